package agenda

import (
	"errors"
	"testing"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	extractor, err := NewExtractor(DefaultRules())
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}
	return extractor
}

func TestExtractScheduleRow(t *testing.T) {
	extractor := newTestExtractor(t)

	grid := Grid{
		{"PROFISSIONAL: Dr. Souza", "ESPECIALIDADE: Cardiologia"},
		{"07:00", "Maria Silva", "PRONTUARIO: 1001"},
	}

	result, err := extractor.Extract(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	entry := result.Entries[0]
	if entry.Time != "07:00" {
		t.Errorf("expected time 07:00, got %q", entry.Time)
	}
	if entry.PatientName != "Maria Silva" {
		t.Errorf("expected name Maria Silva, got %q", entry.PatientName)
	}
	if entry.RecordNumber != "1001" {
		t.Errorf("expected record 1001, got %q", entry.RecordNumber)
	}
	if entry.Doctor != "Dr. Souza" {
		t.Errorf("expected doctor Dr. Souza, got %q", entry.Doctor)
	}
	if entry.Specialty != "Cardiologia" {
		t.Errorf("expected specialty Cardiologia, got %q", entry.Specialty)
	}
	if !entry.Selected || entry.Status != EntryPending {
		t.Errorf("expected selected pending entry, got selected=%v status=%q", entry.Selected, entry.Status)
	}
}

func TestExtractRecordNumberLookahead(t *testing.T) {
	extractor := newTestExtractor(t)

	grid := Grid{
		{"08:30", "Carlos Pereira"},
		{"", "Convênio: Particular"},
		{"PRONTUARIO: 2002"},
	}

	result, err := extractor.Extract(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].RecordNumber != "2002" {
		t.Errorf("expected record 2002 via lookahead, got %q", result.Entries[0].RecordNumber)
	}
}

func TestExtractLookaheadBound(t *testing.T) {
	extractor := newTestExtractor(t)

	// The record label sits three rows below the patient row; only i, i+1
	// and i+2 are considered, so the row must be dropped.
	grid := Grid{
		{"09:00", "Fernanda Costa"},
		{""},
		{""},
		{"PRONTUARIO: 3003"},
	}

	result, err := extractor.Extract(grid)
	if !errors.Is(err, ErrNoPatientRows) {
		t.Fatalf("expected ErrNoPatientRows, got %v", err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(result.Entries))
	}
}

func TestExtractSkipsHeaderRow(t *testing.T) {
	extractor := newTestExtractor(t)

	// The header row carries a time-shaped cell and a long text cell; it
	// must still be skipped, so nothing can claim the record number below.
	grid := Grid{
		{"08:00", "HORÁRIO DO PACIENTE"},
		{"PRONTUARIO: 9001"},
	}

	result, err := extractor.Extract(grid)
	if !errors.Is(err, ErrNoPatientRows) {
		t.Fatalf("expected ErrNoPatientRows, got %v", err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(result.Entries))
	}
}

func TestExtractNameHeuristics(t *testing.T) {
	extractor := newTestExtractor(t)

	// Numeric cells, short cells and scheduling boilerplate must all be
	// passed over in favour of the first real name.
	grid := Grid{
		{"07:30", "123456", "Ana", "AGENDAMENTO CONFIRMADO", "Roberto Almeida", "PRONTUARIO: 500"},
	}

	result, err := extractor.Extract(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	if result.Entries[0].PatientName != "Roberto Almeida" {
		t.Errorf("expected Roberto Almeida, got %q", result.Entries[0].PatientName)
	}
}

func TestExtractAge(t *testing.T) {
	extractor := newTestExtractor(t)

	grid := Grid{
		{"07:00", "Maria Silva", "45 anos", "PRONTUARIO: 1001"},
		{"08:00", "Pedro Silva Santos", "8 meses", "PRONTUARIO: 1002"},
	}

	result, err := extractor.Extract(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Age != 45 {
		t.Errorf("expected age 45, got %d", result.Entries[0].Age)
	}
	if result.Entries[1].Age != 0 {
		t.Errorf("expected month-denominated age to normalize to 0, got %d", result.Entries[1].Age)
	}
}

func TestExtractEmptyGrid(t *testing.T) {
	extractor := newTestExtractor(t)

	grid := Grid{
		{"Relatório de Atendimentos"},
		{"Unidade Central"},
	}

	result, err := extractor.Extract(grid)
	if !errors.Is(err, ErrNoPatientRows) {
		t.Fatalf("expected ErrNoPatientRows, got %v", err)
	}
	if result.RowCount != 2 {
		t.Errorf("expected row count 2, got %d", result.RowCount)
	}
}

func TestDetectMetadataIdempotent(t *testing.T) {
	extractor := newTestExtractor(t)

	rows := NormalizeGrid(Grid{
		{"PROFISSIONAL: Dr. Souza | Sala 3"},
		{"ESPECIALIDADE: Cardiologia"},
		{"DATA: 12/05/2024"},
		{"PROFISSIONAL: Dra. Lima"},
	})

	first := extractor.DetectMetadata(rows)
	second := extractor.DetectMetadata(rows)

	if first != second {
		t.Fatalf("expected idempotent detection, got %+v then %+v", first, second)
	}
	if first.Doctor != "Dr. Souza" {
		t.Errorf("expected first doctor match to win, got %q", first.Doctor)
	}
	if first.Specialty != "Cardiologia" {
		t.Errorf("expected specialty Cardiologia, got %q", first.Specialty)
	}
	if first.Date != "2024-05-12" {
		t.Errorf("expected date normalized to 2024-05-12, got %q", first.Date)
	}
}

func TestExtractCarriesMetadataKnownSoFar(t *testing.T) {
	extractor := newTestExtractor(t)

	// The first patient row precedes the metadata rows, so its entry has no
	// doctor; the second one carries the now-known value.
	grid := Grid{
		{"07:00", "Maria Silva", "PRONTUARIO: 1001"},
		{"PROFISSIONAL: Dr. Souza"},
		{"08:00", "Carlos Pereira", "PRONTUARIO: 1002"},
	}

	result, err := extractor.Extract(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Doctor != "" {
		t.Errorf("expected first entry without doctor, got %q", result.Entries[0].Doctor)
	}
	if result.Entries[1].Doctor != "Dr. Souza" {
		t.Errorf("expected second entry with doctor, got %q", result.Entries[1].Doctor)
	}
	if result.Metadata.Doctor != "Dr. Souza" {
		t.Errorf("expected final metadata doctor, got %q", result.Metadata.Doctor)
	}
}
