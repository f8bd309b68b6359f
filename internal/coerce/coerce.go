// Package coerce converts raw spreadsheet cell values into canonical typed
// values. Source files arrive with Spanish locale tokens, Excel serial dates
// and noisy numeric strings; every function here is total and never panics.
package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"inspection-tracker/constants"
)

// Affirmative/negative token sets seen across the source templates. Matching
// is case-insensitive; unknown tokens fall back to the caller's default.
var affirmativeTokens = map[string]struct{}{
	"si": {}, "sí": {}, "yes": {}, "true": {}, "1": {}, "ok": {},
	"cumple": {}, "bueno": {}, "correcto": {},
}

var negativeTokens = map[string]struct{}{
	"no": {}, "false": {}, "0": {}, "malo": {}, "incorrecto": {},
	"negativo": {}, "no cumple": {},
}

// Boolean maps a raw cell to a bool. Unknown, empty and nil inputs yield def.
func Boolean(raw any, def bool) bool {
	switch v := raw.(type) {
	case nil:
		return def
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		tok := strings.ToLower(strings.TrimSpace(v))
		if tok == "" {
			return def
		}
		if _, ok := affirmativeTokens[tok]; ok {
			return true
		}
		if _, ok := negativeTokens[tok]; ok {
			return false
		}
		return def
	default:
		return def
	}
}

// excelEpoch is 1899-12-30: offset so that serial 1 lands on 1900-01-01 while
// absorbing Excel's historical 1900 leap-year bug for modern serials.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"02/01/06",
	"2006/01/02",
}

// Date converts a raw cell to a calendar date, or nil when unparseable.
// Native dates pass through; numbers are treated as Excel serials; strings
// are parsed day-first, matching the source locale.
func Date(raw any) *time.Time {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		d := time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	case float64:
		return serialDate(v)
	case int:
		return serialDate(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				return &d
			}
		}
		// Cells formatted as dates sometimes surface as the bare serial.
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(serial)
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
		return nil
	default:
		return nil
	}
}

// serialDate bounds serials to a sane window (1904..~2200) so that stray
// numeric cells (mileage, IDs) never masquerade as dates.
func serialDate(serial float64) *time.Time {
	if serial < 1500 || serial > 110000 {
		return nil
	}
	d := excelEpoch.AddDate(0, 0, int(serial))
	return &d
}

var nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)

// Number strips everything but digits, '.' and '-' and parses the remainder.
// Failure yields 0 so downstream arithmetic stays total.
func Number(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		cleaned := nonNumericRe.ReplaceAllString(v, "")
		if cleaned == "" || cleaned == "-" || cleaned == "." {
			return 0
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Text trims and collapses internal whitespace runs to a single space.
// Numeric cells (IDs, contract codes) are rendered without an exponent.
func Text(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.Join(strings.Fields(v), " ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

var plateSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "\t", "")

// Plate uppercases and strips separators. It deliberately does not validate:
// an unparseable plate must still reach the validator for error reporting.
func Plate(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.ToUpper(plateSeparators.Replace(strings.TrimSpace(s)))
}

var shiftSynonyms = map[string]constants.Shift{
	"diurna": constants.ShiftDay, "diurno": constants.ShiftDay,
	"día": constants.ShiftDay, "dia": constants.ShiftDay, "day": constants.ShiftDay,
	"mañana": constants.ShiftDay, "manana": constants.ShiftDay,
	"nocturna": constants.ShiftNight, "nocturno": constants.ShiftNight,
	"noche": constants.ShiftNight, "night": constants.ShiftNight,
}

// Shift collapses regional shift names. Unmatched non-empty input passes
// through uppercased; the validator tags it as non-standard.
func Shift(raw any) constants.Shift {
	s := strings.ToLower(Text(raw))
	if s == "" {
		return constants.ShiftUnspecified
	}
	if sh, ok := shiftSynonyms[s]; ok {
		return sh
	}
	return constants.Shift(strings.ToUpper(s))
}

// IsStandardShift reports whether sh is one of the canonical values.
func IsStandardShift(sh constants.Shift) bool {
	switch sh {
	case constants.ShiftDay, constants.ShiftNight, constants.ShiftUnspecified:
		return true
	}
	return false
}

var componentSynonyms = map[string]constants.ComponentState{
	"bueno": constants.StateGood, "buena": constants.StateGood,
	"buen estado": constants.StateGood, "good": constants.StateGood,
	"ok": constants.StateGood, "excelente": constants.StateGood,
	"regular": constants.StateFair, "fair": constants.StateFair,
	"aceptable": constants.StateFair, "desgastado": constants.StateFair,
	"malo": constants.StatePoor, "mala": constants.StatePoor,
	"mal estado": constants.StatePoor, "poor": constants.StatePoor,
	"deficiente": constants.StatePoor,
	"no inspeccionado": constants.StateNotInspected,
	"n/a": constants.StateNotInspected, "na": constants.StateNotInspected,
}

// ComponentState collapses free-text quality descriptors. Default is
// NOT_INSPECTED, including for unknown descriptors.
func ComponentState(raw any) constants.ComponentState {
	s := strings.ToLower(Text(raw))
	if s == "" {
		return constants.StateNotInspected
	}
	if st, ok := componentSynonyms[s]; ok {
		return st
	}
	return constants.StateNotInspected
}
