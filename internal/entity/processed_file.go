package entity

import (
	"time"

	"inspection-tracker/constants"
)

// ProcessedFile is the audit entry for one ingestion attempt. It is written
// once, on success or failure, and never mutated afterwards.
type ProcessedFile struct {
	ID          uint   `gorm:"primaryKey"`
	Filename    string `gorm:"size:512;index"`
	ContentHash string `gorm:"uniqueIndex;size:64"`

	Year   int
	Months string `gorm:"size:64"` // comma-separated month numbers, file order

	RecordCount    int
	NewCount       int
	DuplicateCount int
	ErrorCount     int

	DurationMS int64

	Status       constants.ProcessStatus `gorm:"size:16;index"`
	ErrorMessage string                  `gorm:"type:text"`

	// Bounded sample of row-level validation failures, serialized as JSON.
	ValidationErrors string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index"`
}

func (ProcessedFile) TableName() string { return "processed_files" }
