package repository

import (
	"context"
	"time"

	"inspection-tracker/internal/entity"
)

// InspectionFilter narrows inspection queries for reporting/export.
type InspectionFilter struct {
	Year     int
	Month    int
	From     *time.Time
	To       *time.Time
	Contract string
}

// InspectionStore is the persistence contract the pipeline writes against.
// Implementations must make InsertBatchSkippingDuplicates transactionally
// safe per batch and safe under concurrent batch submission for one file;
// the natural-key unique constraint is the ultimate duplicate arbiter.
type InspectionStore interface {
	// InsertBatchSkippingDuplicates inserts records, silently skipping any
	// that collide with an already-persisted natural key, and returns the
	// number actually inserted.
	InsertBatchSkippingDuplicates(ctx context.Context, recs []*entity.InspectionRecord) (int, error)

	// CountExisting reports how many records already exist for a year and
	// set of months.
	CountExisting(ctx context.Context, year int, months []int) (int, error)

	ListInspections(ctx context.Context, f InspectionFilter) ([]*entity.InspectionRecord, error)
}

// ProcessedFileStore records ingestion attempts for audit and for the
// duplicate-file gate.
type ProcessedFileStore interface {
	// FindProcessedFileByHash returns the audit entry for a content hash, or
	// (nil, nil) when the file was never seen.
	FindProcessedFileByHash(ctx context.Context, hash string) (*entity.ProcessedFile, error)

	// CreateProcessedFile persists an audit entry. Creation is idempotent on
	// the content hash: when an entry already exists (forced reprocess, or
	// the loser of a concurrent-ingest race) the original is left untouched.
	CreateProcessedFile(ctx context.Context, pf *entity.ProcessedFile) error

	ListProcessedFiles(ctx context.Context, limit int) ([]*entity.ProcessedFile, error)
}

// Store is the full contract the orchestrator depends on.
type Store interface {
	InspectionStore
	ProcessedFileStore
}
