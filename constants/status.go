package constants

// RiskLevel classifies the overall driver/vehicle risk for one inspection.
type RiskLevel string

// Stable values (store these exact strings in DB).
const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// InspectionStatus is the review outcome for an inspection record.
type InspectionStatus string

const (
	StatusPending       InspectionStatus = "PENDING"
	StatusApproved      InspectionStatus = "APPROVED"
	StatusWarning       InspectionStatus = "WARNING"
	StatusCriticalAlert InspectionStatus = "CRITICAL_ALERT"
)

// Shift is the work shift the inspection belongs to.
type Shift string

const (
	ShiftDay         Shift = "DAY"
	ShiftNight       Shift = "NIGHT"
	ShiftUnspecified Shift = "UNSPECIFIED"
)

// ComponentState is the qualitative condition of a component inspected by eye.
type ComponentState string

const (
	StateGood         ComponentState = "GOOD"
	StateFair         ComponentState = "FAIR"
	StatePoor         ComponentState = "POOR"
	StateNotInspected ComponentState = "NOT_INSPECTED"
)

// ProcessStatus is the terminal state of one file-processing attempt.
type ProcessStatus string

const (
	ProcessCompleted ProcessStatus = "COMPLETED"
	ProcessError     ProcessStatus = "ERROR"
)

// AlertSeverity ranks detected alerts.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "CRITICAL"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityMedium   AlertSeverity = "MEDIUM"
)

// PeriodType classifies the reporting window detected in a source file.
type PeriodType string

const (
	PeriodMonthly PeriodType = "MONTHLY"
	PeriodAnnual  PeriodType = "ANNUAL"
	PeriodMixed   PeriodType = "MIXED"
	PeriodUnknown PeriodType = "UNKNOWN"
)
