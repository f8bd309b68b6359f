// Package derive computes the risk level, inspection score and alert flags of
// a canonical inspection record. Functions here are pure over the record's
// boolean/enum fields; the mapper applies them before a record is ever
// visible to callers.
//
// The weighting scheme is the named-field scheme from the richer of the two
// historical scoring variants; weights live in the tables below so the whole
// policy is reviewable in one place.
package derive

import (
	"math"

	"inspection-tracker/constants"
	"inspection-tracker/internal/entity"
)

// Risk weights. Medication is not summed: it short-circuits to CRITICAL.
const (
	riskInsufficientSleep = 25
	riskFatigueSymptoms   = 25
	riskUnfitToDrive      = 30

	riskBrakes       = 20
	riskSeatbelts    = 15
	riskSteering     = 15
	riskSuspension   = 10
	riskParkingBrake = 8
	riskPerLight     = 5

	riskHighThreshold   = 50
	riskMediumThreshold = 20
)

// Score penalties, subtracted from a base of 100.
const (
	penMedication      = 25
	penSleep           = 15
	penSymptoms        = 15
	penUnfit           = 20
	penBrakes          = 10
	penSeatbelts       = 10
	penSteering        = 8
	penSuspension      = 6
	penParkingBrake    = 5
	penPerLight        = 3
	penBrakeFluid      = 4
	penDocuments       = 4
	penInsurance       = 4
	penFluid           = 3
	penBattery         = 3
	penWindshield      = 3
	penExtinguisher    = 3
	penMinorEquipment  = 2
	penCosmetic        = 1
	penComponentPoor   = 10
	penComponentFair   = 4
	completenessBonus  = 5.0
)

// Apply fills the derived fields of rec in place. completeness is the
// fraction (0..1) of tracked source fields that were non-empty in the row.
func Apply(rec *entity.InspectionRecord, completeness float64) {
	rec.RiskLevel = riskLevel(rec)
	rec.InspectionScore = score(rec, completeness)
	rec.HasCriticalAlert = rec.HasUsedMedication || rec.FatigueFailures() >= 2
	rec.HasWarning = rec.FatigueFailures() >= 1 || rec.HasUsedMedication || safetyDefects(rec) >= 1
	rec.InspectionStatus = status(rec)
}

func riskLevel(rec *entity.InspectionRecord) constants.RiskLevel {
	// Medication use is an absolute override, never aggregated.
	if rec.HasUsedMedication {
		return constants.RiskCritical
	}

	weighted := 0
	if !rec.HadSufficientSleep {
		weighted += riskInsufficientSleep
	}
	if !rec.IsFreeOfFatigueSymptoms {
		weighted += riskFatigueSymptoms
	}
	if !rec.IsFitToDrive {
		weighted += riskUnfitToDrive
	}
	if !rec.BrakesWorking {
		weighted += riskBrakes
	}
	if !rec.Seatbelts {
		weighted += riskSeatbelts
	}
	if !rec.SteeringOK {
		weighted += riskSteering
	}
	if !rec.SuspensionOK {
		weighted += riskSuspension
	}
	if !rec.ParkingBrake {
		weighted += riskParkingBrake
	}
	weighted += failedLights(rec) * riskPerLight

	switch {
	case rec.FatigueFailures() >= 2 || weighted >= riskHighThreshold:
		return constants.RiskHigh
	case safetyDefects(rec) >= 2 || weighted >= riskMediumThreshold:
		return constants.RiskMedium
	default:
		return constants.RiskLow
	}
}

func failedLights(rec *entity.InspectionRecord) int {
	n := 0
	for _, ok := range []bool{rec.HighBeams, rec.LowBeams, rec.TurnSignals, rec.BrakeLights, rec.ReverseLights} {
		if !ok {
			n++
		}
	}
	return n
}

// safetyDefects counts failures among the checks that make the vehicle itself
// unsafe to move: braking, restraint, steering, suspension and lighting.
func safetyDefects(rec *entity.InspectionRecord) int {
	n := failedLights(rec)
	for _, ok := range []bool{rec.BrakesWorking, rec.ParkingBrake, rec.Seatbelts, rec.SteeringOK, rec.SuspensionOK} {
		if !ok {
			n++
		}
	}
	return n
}

func score(rec *entity.InspectionRecord, completeness float64) int {
	total := 100.0

	if rec.HasUsedMedication {
		total -= penMedication
	}
	if !rec.HadSufficientSleep {
		total -= penSleep
	}
	if !rec.IsFreeOfFatigueSymptoms {
		total -= penSymptoms
	}
	if !rec.IsFitToDrive {
		total -= penUnfit
	}

	for _, p := range []struct {
		ok  bool
		pen float64
	}{
		{rec.BrakesWorking, penBrakes},
		{rec.Seatbelts, penSeatbelts},
		{rec.SteeringOK, penSteering},
		{rec.SuspensionOK, penSuspension},
		{rec.ParkingBrake, penParkingBrake},
		{rec.HighBeams, penPerLight},
		{rec.LowBeams, penPerLight},
		{rec.TurnSignals, penPerLight},
		{rec.BrakeLights, penPerLight},
		{rec.ReverseLights, penPerLight},
		{rec.WindshieldIntact, penWindshield},
		{rec.WipersWorking, penMinorEquipment},
		{rec.HornWorking, penMinorEquipment},
		{rec.CleanWindows, penCosmetic},
		{rec.DoorsAndLocks, penMinorEquipment},
		{rec.SpareTire, penMinorEquipment},
		{rec.JackAndTools, penCosmetic},
		{rec.FireExtinguisher, penExtinguisher},
		{rec.FirstAidKit, penMinorEquipment},
		{rec.WarningTriangles, penMinorEquipment},
		{rec.OilLevel, penFluid},
		{rec.CoolantLevel, penFluid},
		{rec.BrakeFluidLevel, penBrakeFluid},
		{rec.BatteryOK, penBattery},
		{rec.DocumentsValid, penDocuments},
		{rec.InsuranceValid, penInsurance},
	} {
		if !p.ok {
			total -= p.pen
		}
	}

	total -= componentPenalty(rec.TiresState)
	total -= componentPenalty(rec.MirrorsState)

	if completeness > 0 {
		if completeness > 1 {
			completeness = 1
		}
		total += completeness * completenessBonus
	}

	rounded := int(math.Round(total))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func componentPenalty(state constants.ComponentState) float64 {
	switch state {
	case constants.StatePoor:
		return penComponentPoor
	case constants.StateFair:
		return penComponentFair
	default:
		return 0
	}
}

func status(rec *entity.InspectionRecord) constants.InspectionStatus {
	switch {
	case rec.RiskLevel == constants.RiskCritical:
		return constants.StatusCriticalAlert
	case rec.HasCriticalAlert || rec.FatigueFailures() >= 1:
		return constants.StatusWarning
	default:
		return constants.StatusApproved
	}
}
