package record

import (
	"context"
	"errors"
	"testing"
)

func newTestService() *Service {
	return NewService(NewMemoryStore(), nil)
}

func mustCreate(t *testing.T, svc *Service, rec Record) *Record {
	t.Helper()
	created, err := svc.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("failed to create record %s: %v", rec.Number, err)
	}
	return created
}

func TestCreateDefaults(t *testing.T) {
	svc := newTestService()

	rec := mustCreate(t, svc, Record{
		Number:          " 1001 ",
		PatientName:     "Maria Silva",
		CurrentLocation: "Arquivo",
	})

	if rec.Number != "1001" {
		t.Errorf("expected normalized number 1001, got %q", rec.Number)
	}
	if rec.Status != StatusActive {
		t.Errorf("expected status %s, got %s", StatusActive, rec.Status)
	}
	if rec.Sex != SexUnknown {
		t.Errorf("expected sex %s, got %s", SexUnknown, rec.Sex)
	}
	if rec.BirthDate != BirthDateUnknown {
		t.Errorf("expected birth date %s, got %s", BirthDateUnknown, rec.BirthDate)
	}
	if rec.LastMovement == nil {
		t.Error("expected last movement to be stamped")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		rec  Record
	}{
		{"missing number", Record{PatientName: "Maria Silva", CurrentLocation: "Arquivo"}},
		{"missing name", Record{Number: "1001", CurrentLocation: "Arquivo"}},
		{"missing location", Record{Number: "1001", PatientName: "Maria Silva"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.rec)
			if !IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateDuplicateNumber(t *testing.T) {
	svc := newTestService()

	mustCreate(t, svc, Record{Number: "1001", PatientName: "Maria Silva", CurrentLocation: "Arquivo"})

	_, err := svc.Create(context.Background(), Record{
		Number:          "1001",
		PatientName:     "Outra Pessoa",
		CurrentLocation: "Arquivo",
	})
	if !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}
}

func TestMove(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, Record{Number: "1001", PatientName: "Maria Silva", CurrentLocation: "Arquivo"})

	rec, err := svc.Move(ctx, "1001", "Ambulatório", "operador", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CurrentLocation != "Ambulatório" {
		t.Errorf("expected current location Ambulatório, got %s", rec.CurrentLocation)
	}
	if rec.PreviousLocation != "Arquivo" {
		t.Errorf("expected previous location Arquivo, got %s", rec.PreviousLocation)
	}

	movs, err := svc.Movements(ctx, "1001", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(movs) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movs))
	}
	mov := movs[0]
	if mov.Origin != "Arquivo" || mov.Destination != "Ambulatório" {
		t.Errorf("expected Arquivo → Ambulatório, got %s → %s", mov.Origin, mov.Destination)
	}
	if mov.Note != NoteStandardMove {
		t.Errorf("expected standard note when blank, got %q", mov.Note)
	}
	if mov.User != "operador" {
		t.Errorf("expected user operador, got %q", mov.User)
	}
}

func TestMoveUnknownRecord(t *testing.T) {
	svc := newTestService()

	_, err := svc.Move(context.Background(), "9999", "Ambulatório", "operador", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCorrectLeavesPreviousAlone(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, Record{Number: "1001", PatientName: "Maria Silva", CurrentLocation: "Arquivo"})
	if _, err := svc.Move(ctx, "1001", "Ambulatório", "operador", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := svc.Correct(ctx, "1001", "Faturamento", StatusDeactivated, "supervisor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CurrentLocation != "Faturamento" {
		t.Errorf("expected current location Faturamento, got %s", rec.CurrentLocation)
	}
	if rec.PreviousLocation != "Arquivo" {
		t.Errorf("expected previous location untouched at Arquivo, got %s", rec.PreviousLocation)
	}
	if rec.Status != StatusDeactivated {
		t.Errorf("expected status %s, got %s", StatusDeactivated, rec.Status)
	}

	movs, err := svc.Movements(ctx, "1001", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(movs) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movs))
	}
	if movs[0].Origin != "Ambulatório" {
		t.Errorf("expected correction origin Ambulatório, got %s", movs[0].Origin)
	}
	if movs[0].Note != NoteManualCorrection {
		t.Errorf("expected correction note, got %q", movs[0].Note)
	}
}

func TestRevert(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, Record{Number: "1001", PatientName: "Maria Silva", CurrentLocation: "Arquivo"})
	if _, err := svc.Move(ctx, "1001", "Ambulatório", "operador", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := svc.Revert(ctx, "1001", "operador")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CurrentLocation != "Arquivo" {
		t.Errorf("expected reverted location Arquivo, got %s", rec.CurrentLocation)
	}

	movs, err := svc.Movements(ctx, "1001", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if movs[0].Note != NoteRevert {
		t.Errorf("expected revert note, got %q", movs[0].Note)
	}

	// Only one level of undo exists: reverting again lands on the same
	// location.
	again, err := svc.Revert(ctx, "1001", "operador")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.CurrentLocation != "Arquivo" {
		t.Errorf("expected second revert to stay at Arquivo, got %s", again.CurrentLocation)
	}
}

func TestRevertWithoutPreviousLocation(t *testing.T) {
	svc := newTestService()

	mustCreate(t, svc, Record{Number: "1001", PatientName: "Maria Silva", CurrentLocation: "Arquivo"})

	_, err := svc.Revert(context.Background(), "1001", "operador")
	if !errors.Is(err, ErrNoPriorLocation) {
		t.Fatalf("expected ErrNoPriorLocation, got %v", err)
	}
}

func TestUpdateDuplicateNumberGuard(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, Record{Number: "1001", PatientName: "Maria Silva", CurrentLocation: "Arquivo"})
	mustCreate(t, svc, Record{Number: "1002", PatientName: "Carlos Pereira", CurrentLocation: "Arquivo"})

	_, err := svc.Update(ctx, "1002", Record{
		Number:          "1001",
		PatientName:     "Carlos Pereira",
		CurrentLocation: "Arquivo",
	})
	if !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}

	// Renumbering onto a free number must work and free the old one.
	updated, err := svc.Update(ctx, "1002", Record{
		Number:          "1003",
		PatientName:     "Carlos Pereira",
		CurrentLocation: "Arquivo",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Number != "1003" {
		t.Errorf("expected number 1003, got %s", updated.Number)
	}
	if _, err := svc.Get(ctx, "1002"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old number to be gone, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, Record{Number: "1001", PatientName: "Maria Silva", CurrentLocation: "Arquivo"})

	if err := svc.Delete(ctx, "1001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(ctx, "1001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, "1001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
