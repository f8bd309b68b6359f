// Package alert scans mapped records for conditions that warrant immediate
// attention. Exactly one alert, the most severe, is emitted per record so a
// bad file cannot flood downstream alerting.
package alert

import (
	"inspection-tracker/constants"
	"inspection-tracker/internal/entity"
)

// Alert codes, stable for downstream routing.
const (
	CodeMedicationUse  = "MEDICATION_USE"
	CodeMultiFatigue   = "MULTI_FACTOR_FATIGUE"
	CodeCriticalDefect = "CRITICAL_VEHICLE_DEFECT"
)

// Detect evaluates conditions in priority order and returns the first match,
// or nil when the record raises none.
func Detect(rec *entity.InspectionRecord) *entity.Alert {
	base := entity.Alert{
		DriverName:   rec.DriverName,
		VehiclePlate: rec.VehiclePlate,
		SourceRow:    rec.SourceRow,
	}

	if rec.HasUsedMedication {
		a := base
		a.Severity = constants.SeverityCritical
		a.Code = CodeMedicationUse
		a.Message = "driver reported medication use"
		a.SuggestedAction = "suspend the driver immediately and escalate to the medical team"
		return &a
	}

	if rec.FatigueFailures() >= 2 {
		a := base
		a.Severity = constants.SeverityHigh
		a.Code = CodeMultiFatigue
		a.Message = "multiple fatigue indicators failed"
		a.SuggestedAction = "hold the driver for medical evaluation before the shift"
		return &a
	}

	if !rec.BrakesWorking || !rec.Seatbelts || failedLights(rec) {
		a := base
		a.Severity = constants.SeverityMedium
		a.Code = CodeCriticalDefect
		a.Message = "critical vehicle defect reported"
		a.SuggestedAction = "take the vehicle out of service until repaired"
		return &a
	}

	return nil
}

func failedLights(rec *entity.InspectionRecord) bool {
	return !rec.HighBeams || !rec.LowBeams || !rec.TurnSignals ||
		!rec.BrakeLights || !rec.ReverseLights
}
