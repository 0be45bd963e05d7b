package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prontrack/platform/pkg/common/kafka"
	"github.com/prontrack/platform/pkg/common/logger"
	"github.com/prontrack/platform/pkg/observability/metrics"
)

var (
	ErrNoPriorLocation = errors.New("record has no previous location to revert to")
	errMissingNumber   = errors.New("record number required")
	errMissingName     = errors.New("patient name required")
	errMissingLocation = errors.New("location required")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string { return e.reason.Error() }

func (e ValidationError) Unwrap() error { return e.reason }

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Service owns the record location state machine: standard moves, manual
// corrections and reverts, each appending one movement log entry. Movement
// events are additionally published to Kafka when a producer is configured.
type Service struct {
	store    Store
	producer *kafka.Producer
}

func NewService(store Store, producer *kafka.Producer) *Service {
	return &Service{store: store, producer: producer}
}

func (s *Service) Store() Store {
	return s.store
}

// Create inserts a brand-new record. The number must be unique; a collision
// is a hard ErrDuplicateNumber, never silently merged.
func (s *Service) Create(ctx context.Context, rec Record) (*Record, error) {
	rec.Number = NormalizeNumber(rec.Number)
	if rec.Number == "" {
		return nil, ValidationError{reason: errMissingNumber}
	}
	if strings.TrimSpace(rec.PatientName) == "" {
		return nil, ValidationError{reason: errMissingName}
	}
	if strings.TrimSpace(rec.CurrentLocation) == "" {
		return nil, ValidationError{reason: errMissingLocation}
	}

	if rec.Status == "" {
		rec.Status = StatusActive
	}
	if rec.Sex == "" {
		rec.Sex = SexUnknown
	}
	if rec.BirthDate == "" {
		rec.BirthDate = BirthDateUnknown
	}
	now := time.Now().UTC()
	rec.LastMovement = &now

	if err := s.store.Insert(ctx, &rec); err != nil {
		return nil, err
	}

	metrics.IncRecordsCreated()
	logger.Log.WithFields(map[string]interface{}{
		"record_number": rec.Number,
		"location":      rec.CurrentLocation,
	}).Info("record created")

	return &rec, nil
}

func (s *Service) Get(ctx context.Context, number string) (*Record, error) {
	return s.store.GetByNumber(ctx, number)
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

// Update replaces a record's full state (edit flow). The duplicate-number
// guard applies when the number itself changed.
func (s *Service) Update(ctx context.Context, number string, rec Record) (*Record, error) {
	rec.Number = NormalizeNumber(rec.Number)
	if rec.Number == "" {
		return nil, ValidationError{reason: errMissingNumber}
	}
	if err := s.store.Replace(ctx, number, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete is the administrative removal path. It is irreversible and leaves
// the movement log untouched.
func (s *Service) Delete(ctx context.Context, number string) error {
	return s.store.Delete(ctx, number)
}

func (s *Service) Movements(ctx context.Context, recordNumber string, limit int) ([]Movement, error) {
	return s.store.Movements(ctx, recordNumber, limit)
}

// Move performs the standard transition: previous becomes current, current
// becomes destination, and one log entry is appended. An empty note gets the
// standard-move tag so the audit trail never carries blank entries.
func (s *Service) Move(ctx context.Context, number, destination, user, note string) (*Record, error) {
	rec, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	origin := rec.CurrentLocation
	now := time.Now().UTC()
	rec.PreviousLocation = origin
	rec.CurrentLocation = destination
	rec.LastMovement = &now

	if err := s.store.Replace(ctx, rec.Number, rec); err != nil {
		return nil, err
	}

	if note == "" {
		note = NoteStandardMove
	}
	if err := s.appendLog(ctx, rec, origin, destination, user, note, now); err != nil {
		return nil, err
	}

	metrics.IncMovementsApplied()
	return rec, nil
}

// Correct overwrites the current location (and optionally the status)
// without going through the standard-move path. The pre-correction location
// is logged as the origin; the previous pointer is left alone.
func (s *Service) Correct(ctx context.Context, number, newLocation, newStatus, user string) (*Record, error) {
	rec, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	origin := rec.CurrentLocation
	now := time.Now().UTC()
	rec.CurrentLocation = newLocation
	if newStatus != "" {
		rec.Status = newStatus
	}
	rec.LastMovement = &now

	if err := s.store.Replace(ctx, rec.Number, rec); err != nil {
		return nil, err
	}

	if err := s.appendLog(ctx, rec, origin, newLocation, user, NoteManualCorrection, now); err != nil {
		return nil, err
	}

	metrics.IncMovementsApplied()
	return rec, nil
}

// Revert restores the previous location. The previous pointer is not
// rewound, so only one level of undo exists; reverting again lands on the
// same location.
func (s *Service) Revert(ctx context.Context, number, user string) (*Record, error) {
	rec, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if rec.PreviousLocation == "" {
		return nil, ErrNoPriorLocation
	}

	origin := rec.CurrentLocation
	restored := rec.PreviousLocation
	now := time.Now().UTC()
	rec.CurrentLocation = restored
	rec.LastMovement = &now

	if err := s.store.Replace(ctx, rec.Number, rec); err != nil {
		return nil, err
	}

	if err := s.appendLog(ctx, rec, origin, restored, user, NoteRevert, now); err != nil {
		return nil, err
	}

	metrics.IncMovementsApplied()
	return rec, nil
}

func (s *Service) appendLog(ctx context.Context, rec *Record, origin, destination, user, note string, at time.Time) error {
	mov := Movement{
		RecordNumber: rec.Number,
		PatientName:  rec.PatientName,
		Age:          rec.Age,
		Origin:       origin,
		Destination:  destination,
		User:         user,
		Note:         note,
		Timestamp:    at,
	}
	if err := s.store.AppendMovement(ctx, &mov); err != nil {
		return fmt.Errorf("appending movement log: %w", err)
	}

	if s.producer != nil {
		payload := map[string]interface{}{
			"record_number": rec.Number,
			"patient_name":  rec.PatientName,
			"origin":        origin,
			"destination":   destination,
			"note":          note,
			"moved_at":      at,
		}
		if err := s.producer.PublishEvent(ctx, "movement", user, payload); err != nil {
			logger.Log.WithError(err).Warn("failed to publish movement event")
		}
	}

	return nil
}
