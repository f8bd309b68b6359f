package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inspection-tracker/constants"
)

// InspectionRecord is the canonical, fully-derived representation of one
// vehicle/driver inspection, independent of the source spreadsheet layout.
type InspectionRecord struct {
	ID uuid.UUID `gorm:"type:text;primaryKey"`

	// Temporal. Date is nil when the source cell was unparseable; such rows are
	// kept for error reporting but excluded from period detection.
	Date  *time.Time      `gorm:"column:inspection_date;uniqueIndex:uniq_inspection_key"`
	Year  int             `gorm:"index"`
	Month int             `gorm:"index"`
	Shift constants.Shift `gorm:"size:16"`

	// Subject.
	DriverName   string `gorm:"size:256;uniqueIndex:uniq_inspection_key"`
	DriverID     string `gorm:"size:64"`
	VehiclePlate string `gorm:"size:16;uniqueIndex:uniq_inspection_key"`

	// Context.
	Contract  string `gorm:"size:128"`
	FieldSite string `gorm:"size:128"`
	Mileage   int

	// Fatigue attributes.
	HasUsedMedication     bool
	HadSufficientSleep    bool
	IsFreeOfFatigueSymptoms bool
	IsFitToDrive          bool

	// Vehicle condition: lights.
	HighBeams     bool
	LowBeams      bool
	TurnSignals   bool
	BrakeLights   bool
	ReverseLights bool

	// Vehicle condition: driving safety.
	BrakesWorking bool
	ParkingBrake  bool
	Seatbelts     bool
	SteeringOK    bool
	SuspensionOK  bool

	// Vehicle condition: cab and visibility.
	WindshieldIntact bool
	WipersWorking    bool
	HornWorking      bool
	CleanWindows     bool
	DoorsAndLocks    bool

	// Vehicle condition: emergency equipment.
	SpareTire        bool
	JackAndTools     bool
	FireExtinguisher bool
	FirstAidKit      bool
	WarningTriangles bool

	// Vehicle condition: fluids and electrics.
	OilLevel        bool
	CoolantLevel    bool
	BrakeFluidLevel bool
	BatteryOK       bool

	// Vehicle condition: paperwork.
	DocumentsValid bool
	InsuranceValid bool

	// Components inspected qualitatively.
	TiresState   constants.ComponentState `gorm:"size:16"`
	MirrorsState constants.ComponentState `gorm:"size:16"`

	Notes string `gorm:"type:text"`

	// Derived, never user-supplied.
	RiskLevel        constants.RiskLevel        `gorm:"size:16;index"`
	InspectionScore  int
	HasCriticalAlert bool `gorm:"index"`
	HasWarning       bool
	InspectionStatus constants.InspectionStatus `gorm:"size:16;index"`

	// Metadata.
	SourceRow   int
	ProcessedAt time.Time
}

func (InspectionRecord) TableName() string { return "inspection_records" }

// NaturalKey builds the composite key used for intra-file duplicate detection:
// ISO day + driver name + plate. Records without a date key on the empty day.
func (r *InspectionRecord) NaturalKey() string {
	day := ""
	if r.Date != nil {
		day = r.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%s", day, strings.ToLower(r.DriverName), r.VehiclePlate)
}

// FatigueFailures counts the three fitness declarations answered negatively.
// Medication is not counted here; it short-circuits to CRITICAL on its own.
func (r *InspectionRecord) FatigueFailures() int {
	n := 0
	if !r.HadSufficientSleep {
		n++
	}
	if !r.IsFreeOfFatigueSymptoms {
		n++
	}
	if !r.IsFitToDrive {
		n++
	}
	return n
}
