package record

import "time"

// Record statuses, independent of location.
const (
	StatusActive      = "Ativo"
	StatusDeactivated = "Desativado"
	StatusLost        = "Perdido"
)

// Sentinel values used when a record is created from a schedule row and the
// source said nothing about the patient.
const (
	SexUnknown       = "O"
	BirthDateUnknown = "Não Informado"
)

// Movement log notes. Corrections and reverts are regular log entries tagged
// by note; the log itself is append-only.
const (
	NoteStandardMove     = "Movimentação padrão"
	NoteManualCorrection = "Correção Manual (Editado)"
	NoteRevert           = "Exclusão da movimentação"
)

// Record is a paper patient folder tracked by its unique number and current
// physical location. PreviousLocation holds one level of history only: it is
// overwritten by every standard move and left untouched by reverts.
type Record struct {
	Number           string     `json:"record_number"`
	PatientName      string     `json:"patient_name"`
	Age              int        `json:"age"`
	Sex              string     `json:"sex,omitempty"`
	BirthDate        string     `json:"birth_date,omitempty"`
	Status           string     `json:"status"`
	CurrentLocation  string     `json:"current_location"`
	PreviousLocation string     `json:"previous_location,omitempty"`
	LastMovement     *time.Time `json:"last_movement,omitempty"`
}

// Movement is one immutable audit entry. Record fields are snapshots taken at
// the time of the move.
type Movement struct {
	ID           int64     `json:"id"`
	RecordNumber string    `json:"record_number"`
	PatientName  string    `json:"patient_name"`
	Age          int       `json:"age"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	User         string    `json:"user"`
	Note         string    `json:"note,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
