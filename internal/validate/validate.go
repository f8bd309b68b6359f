// Package validate enforces required-field presence, format constraints and
// business-logic consistency on canonical inspection records. Nothing here
// ever panics or returns a Go error for a bad record: all findings come back
// as structured entries so the pipeline can account for them per row.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"inspection-tracker/internal/coerce"
	"inspection-tracker/internal/entity"
)

const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
)

// Issue types, stable for downstream filtering.
const (
	TypeRequired      = "REQUIRED_FIELD"
	TypeFormat        = "FORMAT"
	TypeBusinessLogic = "BUSINESS_LOGIC"
)

// Result is the outcome of validating one record. IsValid is true iff the
// errors list is empty; warnings never affect validity.
type Result struct {
	IsValid  bool
	Errors   []entity.ValidationIssue
	Warnings []entity.ValidationIssue
}

// Regional plate grammars accepted after normalization.
var plategrammars = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{3}\d{3}$`),        // AAA111
	regexp.MustCompile(`^[A-Z]{2}\d{4}$`),        // AA1111
	regexp.MustCompile(`^[A-Z]{3}\d{2}[A-Z]$`),   // AAA11A
	regexp.MustCompile(`^[A-Z]{4}\d{2}$`),        // AAAA11
}

// Placeholder plates seen in legacy files that must never validate.
var placeholderPlates = map[string]struct{}{
	"SINPLACA": {}, "SINPATENTE": {}, "NA": {}, "N/A": {}, "XXX000": {},
	"XXXXXX": {}, "000000": {}, "PRUEBA": {}, "TEST": {}, "ABC123": {},
}

var repeatedRunRe = regexp.MustCompile(`(.)\1{3,}`)

var markupCharsRe = regexp.MustCompile(`[<>{}\[\]\\|]`)

// Validator checks canonical records. now is injectable for tests.
type Validator struct {
	now func() time.Time
}

func New() *Validator {
	return &Validator{now: time.Now}
}

// NewAt pins the validator's clock, for deterministic date-window checks.
func NewAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate runs all checks. The required-field check short-circuits: when a
// required field is missing the row is rejected immediately and no format or
// business-logic findings are appended.
func (v *Validator) Validate(rec *entity.InspectionRecord) Result {
	if errs := v.requiredFields(rec); len(errs) > 0 {
		return Result{IsValid: false, Errors: errs}
	}

	var res Result
	v.formatChecks(rec, &res)
	v.businessChecks(rec, &res)
	res.IsValid = len(res.Errors) == 0
	return res
}

func (v *Validator) requiredFields(rec *entity.InspectionRecord) []entity.ValidationIssue {
	var errs []entity.ValidationIssue
	missing := func(field string) {
		errs = append(errs, entity.ValidationIssue{
			Field:    field,
			Type:     TypeRequired,
			Message:  fmt.Sprintf("%s is required", field),
			Severity: SeverityError,
		})
	}

	if rec.Date == nil {
		missing("date")
	}
	if strings.TrimSpace(rec.DriverName) == "" {
		missing("driverName")
	}
	if strings.TrimSpace(rec.VehiclePlate) == "" {
		missing("vehiclePlate")
	}
	if strings.TrimSpace(rec.Contract) == "" {
		missing("contract")
	}
	if strings.TrimSpace(string(rec.Shift)) == "" {
		missing("shift")
	}
	return errs
}

func (v *Validator) formatChecks(rec *entity.InspectionRecord, res *Result) {
	v.checkPlate(rec, res)
	v.checkDate(rec, res)
	v.checkDriverName(rec, res)

	if !coerce.IsStandardShift(rec.Shift) {
		res.Warnings = append(res.Warnings, entity.ValidationIssue{
			Field:    "shift",
			Type:     TypeFormat,
			Message:  fmt.Sprintf("non-standard shift value %q", rec.Shift),
			Severity: SeverityWarning,
		})
	}
}

func (v *Validator) checkPlate(rec *entity.InspectionRecord, res *Result) {
	plate := rec.VehiclePlate
	addErr := func(msg string) {
		res.Errors = append(res.Errors, entity.ValidationIssue{
			Field: "vehiclePlate", Type: TypeFormat, Message: msg, Severity: SeverityError,
		})
	}

	if _, fake := placeholderPlates[plate]; fake {
		addErr(fmt.Sprintf("plate %q is a placeholder value", plate))
		return
	}
	if repeatedRunRe.MatchString(plate) {
		addErr(fmt.Sprintf("plate %q has a run of repeated characters", plate))
		return
	}
	for _, g := range plategrammars {
		if g.MatchString(plate) {
			return
		}
	}
	addErr(fmt.Sprintf("plate %q matches no known plate format", plate))
}

func (v *Validator) checkDate(rec *entity.InspectionRecord, res *Result) {
	now := v.now()
	earliest := now.AddDate(-1, 0, 0)
	latest := now.AddDate(0, 1, 0)

	if rec.Date.Before(earliest) || rec.Date.After(latest) {
		res.Errors = append(res.Errors, entity.ValidationIssue{
			Field:    "date",
			Type:     TypeFormat,
			Message:  fmt.Sprintf("date %s outside accepted window", rec.Date.Format("2006-01-02")),
			Severity: SeverityError,
		})
	}
}

func (v *Validator) checkDriverName(rec *entity.InspectionRecord, res *Result) {
	name := rec.DriverName
	addErr := func(msg string) {
		res.Errors = append(res.Errors, entity.ValidationIssue{
			Field: "driverName", Type: TypeFormat, Message: msg, Severity: SeverityError,
		})
	}

	if len([]rune(name)) < 3 {
		addErr("driver name too short")
		return
	}
	if isPurelyNumeric(name) {
		addErr("driver name is purely numeric")
		return
	}
	if markupCharsRe.MatchString(name) || hasControlChars(name) {
		addErr("driver name contains control or markup characters")
	}
}

func isPurelyNumeric(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			seen = true
			continue
		}
		if unicode.IsSpace(r) || r == '.' || r == '-' {
			continue
		}
		return false
	}
	return seen
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

func (v *Validator) businessChecks(rec *entity.InspectionRecord, res *Result) {
	warn := func(field, msg string) {
		res.Warnings = append(res.Warnings, entity.ValidationIssue{
			Field: field, Type: TypeBusinessLogic, Message: msg, Severity: SeverityWarning,
		})
	}

	if rec.HasUsedMedication && rec.IsFitToDrive {
		warn("hasUsedMedication", "medication use reported together with a fit-to-drive declaration")
	}
	if rec.FatigueFailures() >= 2 {
		warn("fatigue", "two or more fatigue indicators failed; elevated risk")
	}
	if rec.Date != nil && rec.Date.After(v.now()) {
		warn("date", "inspection is future-dated")
	}
}
