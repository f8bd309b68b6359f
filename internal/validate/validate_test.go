package validate

import (
	"strings"
	"testing"
	"time"

	"inspection-tracker/constants"
	"inspection-tracker/internal/entity"
)

var testNow = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

func testValidator() *Validator {
	return NewAt(func() time.Time { return testNow })
}

func validRecord() *entity.InspectionRecord {
	d := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return &entity.InspectionRecord{
		Date:         &d,
		DriverName:   "Juan Pérez",
		VehiclePlate: "ABCD12",
		Contract:     "CT-4410",
		Shift:        constants.ShiftDay,

		HadSufficientSleep:      true,
		IsFreeOfFatigueSymptoms: true,
		IsFitToDrive:            true,
	}
}

func TestValidRecord(t *testing.T) {
	res := testValidator().Validate(validRecord())
	if !res.IsValid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestRequiredFieldShortCircuit(t *testing.T) {
	rec := validRecord()
	rec.Date = nil
	rec.VehiclePlate = "???" // would also fail format, but must not be reached
	rec.Contract = ""

	res := testValidator().Validate(rec)
	if res.IsValid {
		t.Fatal("expected invalid")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("want exactly the 2 missing fields, got %v", res.Errors)
	}
	for _, e := range res.Errors {
		if e.Type != TypeRequired {
			t.Fatalf("short-circuit violated: %+v", e)
		}
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("short-circuit must not append warnings: %v", res.Warnings)
	}
}

func TestPlateGrammars(t *testing.T) {
	valid := []string{"JKL123", "AB1234", "XYZ45K", "ABCD12"}
	for _, p := range valid {
		rec := validRecord()
		rec.VehiclePlate = p
		if res := testValidator().Validate(rec); !res.IsValid {
			t.Fatalf("plate %q should validate: %v", p, res.Errors)
		}
	}

	invalid := []string{"A1", "123456", "ABCDE1", "AAAA11", "ABC123X"}
	for _, p := range invalid {
		rec := validRecord()
		rec.VehiclePlate = p
		if res := testValidator().Validate(rec); res.IsValid {
			t.Fatalf("plate %q should not validate", p)
		}
	}
}

func TestPlatePlaceholdersAndRuns(t *testing.T) {
	for _, p := range []string{"XXX000", "PRUEBA", "ABC123"} {
		rec := validRecord()
		rec.VehiclePlate = p
		if res := testValidator().Validate(rec); res.IsValid {
			t.Fatalf("placeholder plate %q should not validate", p)
		}
	}

	// AAAA11 matches a grammar but carries a 4-run.
	rec := validRecord()
	rec.VehiclePlate = "AAAA11"
	if res := testValidator().Validate(rec); res.IsValid {
		t.Fatal("repeated-run plate should not validate")
	}
}

func TestDateWindow(t *testing.T) {
	tooOld := testNow.AddDate(-1, -1, 0)
	tooNew := testNow.AddDate(0, 2, 0)
	for _, d := range []time.Time{tooOld, tooNew} {
		rec := validRecord()
		dd := d
		rec.Date = &dd
		if res := testValidator().Validate(rec); res.IsValid {
			t.Fatalf("date %v should be out of window", d)
		}
	}
}

func TestFutureDateWarning(t *testing.T) {
	rec := validRecord()
	d := testNow.AddDate(0, 0, 5) // inside the +1 month window but future
	rec.Date = &d
	res := testValidator().Validate(rec)
	if !res.IsValid {
		t.Fatalf("near-future date should stay valid: %v", res.Errors)
	}
	if !hasWarning(res, "date") {
		t.Fatalf("expected future-date warning, got %v", res.Warnings)
	}
}

func TestDriverNameQuality(t *testing.T) {
	bad := []string{"JP", "12345", "a<script>b"}
	for _, n := range bad {
		rec := validRecord()
		rec.DriverName = n
		if res := testValidator().Validate(rec); res.IsValid {
			t.Fatalf("driver name %q should not validate", n)
		}
	}
}

func TestNonStandardShiftWarns(t *testing.T) {
	rec := validRecord()
	rec.Shift = constants.Shift("ROTATIVO")
	res := testValidator().Validate(rec)
	if !res.IsValid {
		t.Fatalf("non-standard shift must warn, not fail: %v", res.Errors)
	}
	if !hasWarning(res, "shift") {
		t.Fatalf("expected shift warning, got %v", res.Warnings)
	}
}

func TestMedicationInconsistencyWarns(t *testing.T) {
	rec := validRecord()
	rec.HasUsedMedication = true
	rec.IsFitToDrive = true
	res := testValidator().Validate(rec)
	if !res.IsValid {
		t.Fatalf("business-logic findings never block validity: %v", res.Errors)
	}
	if !hasWarning(res, "hasUsedMedication") {
		t.Fatalf("expected medication inconsistency warning, got %v", res.Warnings)
	}
}

func TestMultiFatigueWarns(t *testing.T) {
	rec := validRecord()
	rec.HadSufficientSleep = false
	rec.IsFreeOfFatigueSymptoms = false
	res := testValidator().Validate(rec)
	if !res.IsValid {
		t.Fatal("fatigue warnings never block validity")
	}
	if !hasWarning(res, "fatigue") {
		t.Fatalf("expected fatigue warning, got %v", res.Warnings)
	}
}

func hasWarning(res Result, field string) bool {
	for _, w := range res.Warnings {
		if w.Field == field {
			return true
		}
	}
	return false
}

func TestErrorMessagesNameTheField(t *testing.T) {
	rec := validRecord()
	rec.DriverName = ""
	res := testValidator().Validate(rec)
	if res.IsValid || len(res.Errors) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Errors[0].Message, "driverName") {
		t.Fatalf("message should name the field: %q", res.Errors[0].Message)
	}
}
