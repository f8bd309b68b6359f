// Package mapper transforms one raw spreadsheet row into a canonical,
// fully-derived InspectionRecord. Individual malformed cells never fail a
// row; coercion degrades them to defaults and the validator reports them.
package mapper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inspection-tracker/internal/coerce"
	"inspection-tracker/internal/colmap"
	"inspection-tracker/internal/derive"
	"inspection-tracker/internal/entity"
	"inspection-tracker/internal/excel"
)

// ErrUnreadableRow marks a row that is structurally unusable (nil or all
// cells blank), as opposed to one with malformed values.
var ErrUnreadableRow = errors.New("row is not readable")

// idNamespace seeds the content-derived record identifiers.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("inspection-record"))

// Mapper binds a resolved column layout; one Mapper serves one file.
type Mapper struct {
	cols *colmap.Resolved
	now  func() time.Time
}

func New(cols *colmap.Resolved) *Mapper {
	return &Mapper{cols: cols, now: time.Now}
}

// NewAt pins the processing clock, for deterministic tests.
func NewAt(cols *colmap.Resolved, now func() time.Time) *Mapper {
	return &Mapper{cols: cols, now: now}
}

// MapRow maps one data row. rowNumber is the 1-based workbook row, kept on
// the record for error reporting. The returned record always carries its
// derived fields; callers never see a partially-derived state.
func (m *Mapper) MapRow(row []string, rowNumber int) (*entity.InspectionRecord, error) {
	if row == nil || allBlank(row) {
		return nil, fmt.Errorf("row %d: %w", rowNumber, ErrUnreadableRow)
	}

	processedAt := m.now().UTC()
	rec := &entity.InspectionRecord{
		SourceRow:   rowNumber,
		ProcessedAt: processedAt,
	}

	rec.Date = coerce.Date(m.raw(row, colmap.FieldDate))
	if rec.Date != nil {
		rec.Year = rec.Date.Year()
		rec.Month = int(rec.Date.Month())
	}
	rec.Shift = coerce.Shift(m.raw(row, colmap.FieldShift))

	rec.DriverName = coerce.Text(m.raw(row, colmap.FieldDriverName))
	rec.DriverID = coerce.Text(m.raw(row, colmap.FieldDriverID))
	rec.VehiclePlate = coerce.Plate(m.raw(row, colmap.FieldVehiclePlate))
	rec.Contract = coerce.Text(m.raw(row, colmap.FieldContract))
	rec.FieldSite = coerce.Text(m.raw(row, colmap.FieldFieldSite))

	if km := coerce.Number(m.raw(row, colmap.FieldMileage)); km > 0 {
		rec.Mileage = int(km)
	}

	// Unparseable and missing boolean cells default to false across the
	// board; legacy data depends on that reading.
	rec.HasUsedMedication = coerce.Boolean(m.raw(row, colmap.FieldHasUsedMedication), false)
	rec.HadSufficientSleep = coerce.Boolean(m.raw(row, colmap.FieldHadSufficientSleep), false)
	rec.IsFreeOfFatigueSymptoms = coerce.Boolean(m.raw(row, colmap.FieldIsFreeOfFatigueSymptoms), false)
	rec.IsFitToDrive = coerce.Boolean(m.raw(row, colmap.FieldIsFitToDrive), false)

	m.mapVehicleChecks(row, rec)

	rec.TiresState = coerce.ComponentState(m.raw(row, colmap.FieldTiresState))
	rec.MirrorsState = coerce.ComponentState(m.raw(row, colmap.FieldMirrorsState))
	rec.Notes = coerce.Text(m.raw(row, colmap.FieldNotes))

	derive.Apply(rec, m.completeness(row))

	rec.ID = m.recordID(rec, processedAt)
	return rec, nil
}

func (m *Mapper) mapVehicleChecks(row []string, rec *entity.InspectionRecord) {
	set := map[string]*bool{
		colmap.FieldHighBeams:        &rec.HighBeams,
		colmap.FieldLowBeams:         &rec.LowBeams,
		colmap.FieldTurnSignals:      &rec.TurnSignals,
		colmap.FieldBrakeLights:      &rec.BrakeLights,
		colmap.FieldReverseLights:    &rec.ReverseLights,
		colmap.FieldBrakesWorking:    &rec.BrakesWorking,
		colmap.FieldParkingBrake:     &rec.ParkingBrake,
		colmap.FieldSeatbelts:        &rec.Seatbelts,
		colmap.FieldSteeringOK:       &rec.SteeringOK,
		colmap.FieldSuspensionOK:     &rec.SuspensionOK,
		colmap.FieldWindshieldIntact: &rec.WindshieldIntact,
		colmap.FieldWipersWorking:    &rec.WipersWorking,
		colmap.FieldHornWorking:      &rec.HornWorking,
		colmap.FieldCleanWindows:     &rec.CleanWindows,
		colmap.FieldDoorsAndLocks:    &rec.DoorsAndLocks,
		colmap.FieldSpareTire:        &rec.SpareTire,
		colmap.FieldJackAndTools:     &rec.JackAndTools,
		colmap.FieldFireExtinguisher: &rec.FireExtinguisher,
		colmap.FieldFirstAidKit:      &rec.FirstAidKit,
		colmap.FieldWarningTriangles: &rec.WarningTriangles,
		colmap.FieldOilLevel:         &rec.OilLevel,
		colmap.FieldCoolantLevel:     &rec.CoolantLevel,
		colmap.FieldBrakeFluidLevel:  &rec.BrakeFluidLevel,
		colmap.FieldBatteryOK:        &rec.BatteryOK,
		colmap.FieldDocumentsValid:   &rec.DocumentsValid,
		colmap.FieldInsuranceValid:   &rec.InsuranceValid,
	}
	for field, dst := range set {
		*dst = coerce.Boolean(m.raw(row, field), false)
	}
}

// raw resolves the source cell for a canonical field, or "" when the file
// has no column for it.
func (m *Mapper) raw(row []string, field string) any {
	idx, ok := m.cols.Lookup(field)
	if !ok {
		return ""
	}
	return excel.Cell(row, idx)
}

// completeness is the fraction of all tracked fields with a non-empty source
// cell, feeding the score's completeness bonus.
func (m *Mapper) completeness(row []string) float64 {
	nonEmpty := 0
	for _, field := range colmap.AllFields {
		if s, ok := m.raw(row, field).(string); ok && strings.TrimSpace(s) != "" {
			nonEmpty++
		}
	}
	return float64(nonEmpty) / float64(len(colmap.AllFields))
}

// recordID derives a stable identifier from the record's natural content and
// the processing instant, rather than a store sequence.
func (m *Mapper) recordID(rec *entity.InspectionRecord, processedAt time.Time) uuid.UUID {
	seed := fmt.Sprintf("%s|%d|%d", rec.NaturalKey(), rec.SourceRow, processedAt.UnixNano())
	return uuid.NewSHA1(idNamespace, []byte(seed))
}

func allBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
