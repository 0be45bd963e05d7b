package agenda

import "time"

// Processing status of one appointment entry.
const (
	EntryPending      = "pendente"
	EntryMoved        = "movido"
	EntryCreatedMoved = "criado_e_movido"
	EntryError        = "erro"
)

// Fallback labels used when neither the caller nor the extraction detected
// a doctor or specialty for a batch.
const (
	DoctorFallback    = "Vários"
	SpecialtyFallback = "Geral"
)

// Entry is one extracted schedule row, pending review and reconciliation.
// It lives only for the duration of an ingestion session; its final state is
// frozen into the batch digest.
type Entry struct {
	ID           string `json:"id"`
	RecordNumber string `json:"record_number"`
	PatientName  string `json:"patient_name"`
	Age          int    `json:"age,omitempty"`
	Time         string `json:"time"`
	Doctor       string `json:"doctor,omitempty"`
	Specialty    string `json:"specialty,omitempty"`
	Selected     bool   `json:"selected"`
	Status       string `json:"status"`
}

// Conflict flags an entry whose record is not sitting in the source pool.
// Conflicts block the batch until the caller forces it.
type Conflict struct {
	Entry           Entry  `json:"entry"`
	CurrentLocation string `json:"current_location"`
}

// Digest is the immutable summary of one ingestion session. Deleting a
// digest never rewinds record or movement-log state.
type Digest struct {
	ID         string    `json:"id"`
	ImportedAt time.Time `json:"imported_at"`
	User       string    `json:"user"`
	Doctor     string    `json:"doctor"`
	Specialty  string    `json:"specialty"`
	Total      int       `json:"total"`
	Items      []Entry   `json:"items"`
}

// BatchResult reports a reconciliation outcome. Counts are always present so
// partial failure is never mistaken for full success; Conflicts is populated
// instead of Digest when the batch was blocked.
type BatchResult struct {
	Created   int        `json:"created"`
	Moved     int        `json:"moved"`
	Failed    int        `json:"failed"`
	Digest    *Digest    `json:"digest,omitempty"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}
