package record

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateNumber = errors.New("record number already exists")
)

// Store is the persistence collaborator for records and their movement log.
// Every call is a standalone read or write; callers own the read-modify-write
// sequencing (single writer assumed).
type Store interface {
	List(ctx context.Context) ([]Record, error)
	// GetByNumber resolves a record by its normalized number, ErrNotFound
	// when absent.
	GetByNumber(ctx context.Context, number string) (*Record, error)
	// Insert fails with ErrDuplicateNumber when the number is taken.
	Insert(ctx context.Context, rec *Record) error
	// Replace overwrites the record currently stored under number. It fails
	// with ErrDuplicateNumber when rec carries a number already owned by a
	// different record, and ErrNotFound when number is unknown.
	Replace(ctx context.Context, number string, rec *Record) error
	Delete(ctx context.Context, number string) error
	// AppendMovement writes one audit entry. Entries are never updated or
	// deleted.
	AppendMovement(ctx context.Context, mov *Movement) error
	// Movements lists log entries newest first. recordNumber filters when
	// non-empty; limit <= 0 means no limit.
	Movements(ctx context.Context, recordNumber string, limit int) ([]Movement, error)
}

// NormalizeNumber strips the whitespace that spreadsheet exports and manual
// entry tend to introduce, so "1001 " and "1001" address the same record.
func NormalizeNumber(number string) string {
	return strings.TrimSpace(number)
}
