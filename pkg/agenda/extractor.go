package agenda

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrNoPatientRows means the grid parsed fine but the heuristics matched
// nothing. Recoverable: the caller should surface Guidance, not treat it as
// a corrupt file.
var ErrNoPatientRows = errors.New("no patient rows matched in grid")

// Guidance shown to the operator when extraction comes back empty.
const Guidance = "Nenhum paciente identificado. Verifique se há uma coluna com horário (ex: 07:00) e se o campo Prontuário está visível, mesmo que na linha de baixo."

// Extractor turns a raw grid into appointment entries using the compiled
// rule catalog. It is a pure function of its input: no I/O, no state carried
// between calls.
type Extractor struct {
	compiled *compiledRules
}

func NewExtractor(rules Rules) (*Extractor, error) {
	compiled, err := rules.compile()
	if err != nil {
		return nil, err
	}
	return &Extractor{compiled: compiled}, nil
}

// ExtractResult carries the entries plus whatever session metadata was
// detected, even partially.
type ExtractResult struct {
	Entries  []Entry  `json:"entries"`
	Metadata Metadata `json:"metadata"`
	RowCount int      `json:"row_count"`
}

// Extract scans the grid top to bottom. Metadata detection and patient-row
// extraction share the pass, so entries emitted before a metadata row was
// reached carry only what was known at that point; callers re-apply the
// final metadata as a display fallback at review time.
func (e *Extractor) Extract(grid Grid) (*ExtractResult, error) {
	rows := NormalizeGrid(grid)
	c := e.compiled

	var meta Metadata
	var entries []Entry

	for i, row := range rows {
		e.applyMetadata(&meta, row)

		if containsAny(row.Flat, c.rules.HeaderLabels) && strings.Contains(row.Flat, "PACIENTE") {
			continue
		}

		timeIdx := e.findTimeColumn(row)
		if timeIdx < 0 {
			continue
		}

		name := e.findName(row, timeIdx)
		if name == "" {
			continue
		}

		number := e.findRecordNumber(rows, i)
		if number == "" {
			// A patient row without a resolvable record number is unusable.
			continue
		}

		entries = append(entries, Entry{
			ID:           uuid.New().String(),
			RecordNumber: number,
			PatientName:  name,
			Age:          e.findAge(row),
			Time:         strings.TrimSpace(row.Cells[timeIdx]),
			Doctor:       meta.Doctor,
			Specialty:    meta.Specialty,
			Selected:     true,
			Status:       EntryPending,
		})
	}

	result := &ExtractResult{
		Entries:  entries,
		Metadata: meta,
		RowCount: len(rows),
	}
	if len(entries) == 0 {
		return result, ErrNoPatientRows
	}
	return result, nil
}

// findTimeColumn scans a bounded prefix of columns for a time-shaped cell.
// The first hit fixes the time column; no hit means this is not a patient
// row.
func (e *Extractor) findTimeColumn(row Row) int {
	window := e.compiled.rules.TimeColumnWindow
	if window > len(row.Cells) {
		window = len(row.Cells)
	}
	for c := 0; c < window; c++ {
		if e.compiled.timeRe.MatchString(strings.TrimSpace(row.Cells[c])) {
			return c
		}
	}
	return -1
}

// findName takes the first cell right of the time column that is long
// enough, not purely numeric, and not scheduling boilerplate.
func (e *Extractor) findName(row Row, timeIdx int) string {
	rules := e.compiled.rules
	for c := timeIdx + 1; c < len(row.Cells); c++ {
		val := row.Cells[c]
		if utf8.RuneCountInString(val) <= rules.MinNameLength {
			continue
		}
		if isNumeric(val) {
			continue
		}
		if containsAny(strings.ToUpper(val), rules.NameExclusions) {
			continue
		}
		return strings.TrimSpace(val)
	}
	return ""
}

// findRecordNumber applies the label-anchored pattern to the current row and
// up to RecordLookahead subsequent rows. Reports wrap the record number onto
// a continuation line often enough that skipping the lookahead loses real
// patients.
func (e *Extractor) findRecordNumber(rows []Row, i int) string {
	lookahead := e.compiled.rules.RecordLookahead
	for offset := 0; offset <= lookahead && i+offset < len(rows); offset++ {
		if m := e.compiled.recordRe.FindStringSubmatch(rows[i+offset].Flat); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// findAge matches "<digits> <unit>" anywhere in the row. Only year units
// produce a nonzero age; months and days normalize to 0.
func (e *Extractor) findAge(row Row) int {
	m := e.compiled.ageRe.FindStringSubmatch(row.Flat)
	if len(m) < 3 {
		return 0
	}
	if !strings.HasPrefix(m[2], "ANO") {
		return 0
	}
	age, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return age
}

func isNumeric(val string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	return err == nil
}
