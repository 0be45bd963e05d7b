package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prontrack/platform/pkg/common/kafka"
	"github.com/prontrack/platform/pkg/common/logger"
	"github.com/prontrack/platform/pkg/observability/metrics"
	"github.com/prontrack/platform/pkg/record"
)

var (
	ErrNoEntriesSelected = errors.New("no entries selected")
	// ErrLocationConflict blocks a batch whose entries target records
	// outside the source pool; only an explicit forced confirmation clears
	// it.
	ErrLocationConflict = errors.New("entries target records outside the source pool")
)

// Service runs schedule ingestion end to end: extraction, conflict
// detection, reconciliation and digest persistence.
type Service struct {
	extractor   *Extractor
	records     *record.Service
	digests     DigestStore
	producer    *kafka.Producer
	sourcePool  string
	destination string
}

func NewService(extractor *Extractor, records *record.Service, digests DigestStore, producer *kafka.Producer, sourcePool, destination string) *Service {
	return &Service{
		extractor:   extractor,
		records:     records,
		digests:     digests,
		producer:    producer,
		sourcePool:  sourcePool,
		destination: destination,
	}
}

func (s *Service) Extract(grid Grid) (*ExtractResult, error) {
	result, err := s.extractor.Extract(grid)
	if result != nil {
		metrics.ObserveExtraction(len(result.Entries))
	}
	return result, err
}

// DetectConflicts is the pure pass: it reads record state and mutates
// nothing. Unknown record numbers are fine, they become creations later.
func (s *Service) DetectConflicts(ctx context.Context, entries []Entry) ([]Conflict, error) {
	var conflicts []Conflict
	for _, entry := range entries {
		rec, err := s.records.Get(ctx, entry.RecordNumber)
		if errors.Is(err, record.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("looking up record %s: %w", entry.RecordNumber, err)
		}
		if rec.CurrentLocation != s.sourcePool {
			conflicts = append(conflicts, Conflict{Entry: entry, CurrentLocation: rec.CurrentLocation})
		}
	}
	if len(conflicts) > 0 {
		metrics.AddConflictsDetected(len(conflicts))
	}
	return conflicts, nil
}

// ProcessRequest is a reviewed batch ready to apply. Doctor, Specialty and
// Date are the session-level values the reviewer confirmed; Force clears a
// previously reported conflict set for the whole batch.
type ProcessRequest struct {
	Entries   []Entry `json:"entries"`
	User      string  `json:"user"`
	Date      string  `json:"date,omitempty"`
	Doctor    string  `json:"doctor,omitempty"`
	Specialty string  `json:"specialty,omitempty"`
	Force     bool    `json:"force,omitempty"`
}

// Process reconciles the selected entries against record state. Conflict
// detection runs first and blocks the whole batch unless forced; the apply
// pass then processes entries in order, degrading individual failures to
// the erro status without aborting siblings.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*BatchResult, error) {
	selected := make([]Entry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if entry.Selected {
			selected = append(selected, entry)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoEntriesSelected
	}

	conflicts, err := s.DetectConflicts(ctx, selected)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 && !req.Force {
		return &BatchResult{Conflicts: conflicts}, ErrLocationConflict
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	note := fmt.Sprintf("Importação de Agenda (%s)", date)

	result := &BatchResult{}
	processed := make([]Entry, 0, len(selected))

	for _, entry := range selected {
		processed = append(processed, s.applyEntry(ctx, entry, req.User, note, result))
	}

	digest := &Digest{
		ID:         uuid.New().String(),
		ImportedAt: time.Now().UTC(),
		User:       req.User,
		Doctor:     firstNonEmpty(req.Doctor, selected[0].Doctor, DoctorFallback),
		Specialty:  firstNonEmpty(req.Specialty, selected[0].Specialty, SpecialtyFallback),
		Total:      len(processed),
		Items:      processed,
	}
	if err := s.digests.Add(ctx, digest); err != nil {
		return nil, fmt.Errorf("persisting batch digest: %w", err)
	}
	result.Digest = digest

	if s.producer != nil {
		payload := map[string]interface{}{
			"digest_id": digest.ID,
			"doctor":    digest.Doctor,
			"specialty": digest.Specialty,
			"total":     digest.Total,
			"created":   result.Created,
			"moved":     result.Moved,
			"failed":    result.Failed,
		}
		if err := s.producer.PublishEvent(ctx, "agenda-import", req.User, payload); err != nil {
			logger.Log.WithError(err).Warn("failed to publish agenda import event")
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"digest_id": digest.ID,
		"created":   result.Created,
		"moved":     result.Moved,
		"failed":    result.Failed,
	}).Info("agenda batch processed")

	return result, nil
}

// applyEntry creates the record when missing, then issues the standard move
// into the agenda destination. Any failure degrades just this entry.
func (s *Service) applyEntry(ctx context.Context, entry Entry, user, note string, result *BatchResult) Entry {
	number := record.NormalizeNumber(entry.RecordNumber)
	status := EntryMoved

	rec, err := s.records.Get(ctx, number)
	if errors.Is(err, record.ErrNotFound) {
		created, createErr := s.records.Create(ctx, record.Record{
			Number:          number,
			PatientName:     entry.PatientName,
			Age:             entry.Age,
			Sex:             record.SexUnknown,
			BirthDate:       record.BirthDateUnknown,
			Status:          record.StatusActive,
			CurrentLocation: s.sourcePool,
		})
		switch {
		case createErr == nil:
			rec = created
			status = EntryCreatedMoved
			result.Created++
		case errors.Is(createErr, record.ErrDuplicateNumber):
			// Someone else created it between lookup and insert; treat it
			// as an existing record.
			rec, err = s.records.Get(ctx, number)
			if err != nil {
				return s.failEntry(entry, result, err)
			}
		default:
			return s.failEntry(entry, result, createErr)
		}
	} else if err != nil {
		return s.failEntry(entry, result, err)
	}

	if _, err := s.records.Move(ctx, rec.Number, s.destination, user, note); err != nil {
		return s.failEntry(entry, result, err)
	}

	result.Moved++
	entry.Status = status
	return entry
}

func (s *Service) failEntry(entry Entry, result *BatchResult, err error) Entry {
	logger.Log.WithError(err).WithField("record_number", entry.RecordNumber).
		Error("failed to reconcile agenda entry")
	metrics.IncEntriesFailed()
	result.Failed++
	entry.Status = EntryError
	return entry
}

func (s *Service) History(ctx context.Context) ([]Digest, error) {
	return s.digests.List(ctx)
}

func (s *Service) HistoryDetail(ctx context.Context, id string) (*Digest, error) {
	return s.digests.Get(ctx, id)
}

// DeleteHistory removes a digest. Record and movement-log state is
// untouched; the audit trail of the moves themselves survives.
func (s *Service) DeleteHistory(ctx context.Context, id string) error {
	return s.digests.Delete(ctx, id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
