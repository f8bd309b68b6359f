package entity

import (
	"time"

	"inspection-tracker/constants"
)

// ValidationIssue is one structured validation finding for a row.
type ValidationIssue struct {
	Field    string `json:"field"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // ERROR or WARNING
}

// RowFailure ties validation errors back to a source row number.
type RowFailure struct {
	Row    int               `json:"row"`
	Issues []ValidationIssue `json:"issues"`
}

// PeriodInfo describes the reporting window detected in a source file.
type PeriodInfo struct {
	Type     constants.PeriodType `json:"type"`
	Year     int                  `json:"year"`
	Months   []int                `json:"months"`
	MinDate  *time.Time           `json:"minDate,omitempty"`
	MaxDate  *time.Time           `json:"maxDate,omitempty"`
	Existing int                  `json:"existingRecords"`
}

// FileAnalysis is the no-persistence preview of a workbook.
type FileAnalysis struct {
	Filename    string              `json:"filename"`
	SheetName   string              `json:"sheetName"`
	ContentHash string              `json:"contentHash"`
	Headers     []string            `json:"headers"`
	RowCount    int                 `json:"rowCount"`
	Period      PeriodInfo          `json:"period"`
	Sample      []*InspectionRecord `json:"sample"`
	KnownFile   bool                `json:"knownFile"`
}

// ProcessingResult is the per-file summary returned on successful ingestion.
type ProcessingResult struct {
	Success               bool         `json:"success"`
	TotalRecords          int          `json:"totalRecords"`
	NewRecords            int          `json:"newRecords"`
	DuplicateRecords      int          `json:"duplicateRecords"`
	ErrorRecords          int          `json:"errorRecords"`
	ProcessingTimeSeconds float64      `json:"processingTimeSeconds"`
	Period                PeriodInfo   `json:"periodInfo"`
	ValidationErrors      []RowFailure `json:"validationErrorsSample"`
	Warnings              []string     `json:"warnings"`
}

// Alert is the structured descriptor for a condition needing immediate review.
type Alert struct {
	Severity        constants.AlertSeverity `json:"severity"`
	Code            string                  `json:"code"`
	Message         string                  `json:"message"`
	SuggestedAction string                  `json:"suggestedAction"`
	DriverName      string                  `json:"driverName"`
	VehiclePlate    string                  `json:"vehiclePlate"`
	SourceRow       int                     `json:"sourceRow"`
}
