// Package colmap holds the column mapping table: the association between
// canonical record fields and the header literals that may denote them in a
// source spreadsheet. The table is data (columns.yaml), versioned with the
// pipeline, and is resolved once per file against the actual header row so
// that per-row access is a fixed index lookup, not repeated string matching.
package colmap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Canonical field names. The mapper switches on these; the YAML table keys
// must stay in sync with this list.
const (
	FieldDate         = "date"
	FieldShift        = "shift"
	FieldDriverName   = "driver_name"
	FieldDriverID     = "driver_id"
	FieldVehiclePlate = "vehicle_plate"
	FieldContract     = "contract"
	FieldFieldSite    = "field_site"
	FieldMileage      = "mileage"

	FieldHasUsedMedication       = "has_used_medication"
	FieldHadSufficientSleep      = "had_sufficient_sleep"
	FieldIsFreeOfFatigueSymptoms = "is_free_of_fatigue_symptoms"
	FieldIsFitToDrive            = "is_fit_to_drive"

	FieldHighBeams        = "high_beams"
	FieldLowBeams         = "low_beams"
	FieldTurnSignals      = "turn_signals"
	FieldBrakeLights      = "brake_lights"
	FieldReverseLights    = "reverse_lights"
	FieldBrakesWorking    = "brakes_working"
	FieldParkingBrake     = "parking_brake"
	FieldSeatbelts        = "seatbelts"
	FieldSteeringOK       = "steering_ok"
	FieldSuspensionOK     = "suspension_ok"
	FieldWindshieldIntact = "windshield_intact"
	FieldWipersWorking    = "wipers_working"
	FieldHornWorking      = "horn_working"
	FieldCleanWindows     = "clean_windows"
	FieldDoorsAndLocks    = "doors_and_locks"
	FieldSpareTire        = "spare_tire"
	FieldJackAndTools     = "jack_and_tools"
	FieldFireExtinguisher = "fire_extinguisher"
	FieldFirstAidKit      = "first_aid_kit"
	FieldWarningTriangles = "warning_triangles"
	FieldOilLevel         = "oil_level"
	FieldCoolantLevel     = "coolant_level"
	FieldBrakeFluidLevel  = "brake_fluid_level"
	FieldBatteryOK        = "battery_ok"
	FieldDocumentsValid   = "documents_valid"
	FieldInsuranceValid   = "insurance_valid"

	FieldTiresState   = "tires_state"
	FieldMirrorsState = "mirrors_state"
	FieldNotes        = "notes"
)

// VehicleBooleanFields lists the named vehicle-condition checks in a stable
// order, used for completeness accounting.
var VehicleBooleanFields = []string{
	FieldHighBeams, FieldLowBeams, FieldTurnSignals, FieldBrakeLights,
	FieldReverseLights, FieldBrakesWorking, FieldParkingBrake, FieldSeatbelts,
	FieldSteeringOK, FieldSuspensionOK, FieldWindshieldIntact, FieldWipersWorking,
	FieldHornWorking, FieldCleanWindows, FieldDoorsAndLocks, FieldSpareTire,
	FieldJackAndTools, FieldFireExtinguisher, FieldFirstAidKit,
	FieldWarningTriangles, FieldOilLevel, FieldCoolantLevel,
	FieldBrakeFluidLevel, FieldBatteryOK, FieldDocumentsValid,
	FieldInsuranceValid,
}

// AllFields lists every canonical field the pipeline tracks, used for
// completeness accounting in scoring.
var AllFields = func() []string {
	fields := []string{
		FieldDate, FieldShift, FieldDriverName, FieldDriverID,
		FieldVehiclePlate, FieldContract, FieldFieldSite, FieldMileage,
		FieldHasUsedMedication, FieldHadSufficientSleep,
		FieldIsFreeOfFatigueSymptoms, FieldIsFitToDrive,
		FieldTiresState, FieldMirrorsState, FieldNotes,
	}
	return append(fields, VehicleBooleanFields...)
}()

//go:embed columns.yaml
var embeddedTable []byte

type fieldEntry struct {
	Headers []string `yaml:"headers"`
}

type tableFile struct {
	Version int                   `yaml:"version"`
	Fields  map[string]fieldEntry `yaml:"fields"`
}

// Table is the immutable, loaded mapping table.
type Table struct {
	Version int
	fields  map[string][]string
}

// Load parses and validates the embedded table. It is cheap enough to call
// once per process; callers share the result.
func Load() (*Table, error) {
	return LoadBytes(embeddedTable)
}

// LoadBytes parses a mapping table from raw YAML, validating its shape
// against a JSON schema before use.
func LoadBytes(raw []byte) (*Table, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse column table: %w", err)
	}
	if err := validateShape(generic); err != nil {
		return nil, fmt.Errorf("column table schema: %w", err)
	}

	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("decode column table: %w", err)
	}

	t := &Table{Version: tf.Version, fields: make(map[string][]string, len(tf.Fields))}
	for name, entry := range tf.Fields {
		headers := make([]string, 0, len(entry.Headers))
		for _, h := range entry.Headers {
			headers = append(headers, strings.TrimSpace(h))
		}
		t.fields[name] = headers
	}
	return t, nil
}

// Headers returns the acceptable literals for a canonical field, in lookup
// order. Nil for unknown fields.
func (t *Table) Headers(field string) []string {
	return t.fields[field]
}

// Resolved is the per-file outcome of matching the table against an actual
// header row: a fixed column index per canonical field.
type Resolved struct {
	indexes map[string]int
}

// Resolve matches the table against the file's header row. For every field
// the headers are tried in table order and the first one present wins, which
// keeps older and newer template variants both ingestible. Matching is
// case-insensitive on otherwise exact, trimmed literals.
func (t *Table) Resolve(headerRow []string) *Resolved {
	byHeader := make(map[string]int, len(headerRow))
	for i, h := range headerRow {
		key := strings.ToUpper(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, taken := byHeader[key]; !taken {
			byHeader[key] = i
		}
	}

	r := &Resolved{indexes: make(map[string]int, len(t.fields))}
	for field, headers := range t.fields {
		for _, h := range headers {
			if idx, ok := byHeader[strings.ToUpper(h)]; ok {
				r.indexes[field] = idx
				break
			}
		}
	}
	return r
}

// Lookup returns the column index for a canonical field, if the source file
// has a matching column at all.
func (r *Resolved) Lookup(field string) (int, bool) {
	idx, ok := r.indexes[field]
	return idx, ok
}

// Has reports whether the source file carries a column for the field.
func (r *Resolved) Has(field string) bool {
	_, ok := r.indexes[field]
	return ok
}

// MappedFields returns how many canonical fields found a source column.
func (r *Resolved) MappedFields() int {
	return len(r.indexes)
}

// tableSchema constrains the YAML table shape: a version and at least one
// field, each with at least one non-empty header literal.
var tableSchema = map[string]any{
	"type":                 "object",
	"required":             []any{"version", "fields"},
	"additionalProperties": false,
	"properties": map[string]any{
		"version": map[string]any{"type": "integer", "minimum": 1},
		"fields": map[string]any{
			"type":          "object",
			"minProperties": 1,
			"additionalProperties": map[string]any{
				"type":                 "object",
				"required":             []any{"headers"},
				"additionalProperties": false,
				"properties": map[string]any{
					"headers": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items":    map[string]any{"type": "string", "minLength": 1},
					},
				},
			},
		},
	},
}

func validateShape(doc any) error {
	b, err := json.Marshal(tableSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("columns-schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("columns-schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return schema.Validate(normalizeYAML(doc))
}

// normalizeYAML converts yaml.v3 generic values into the json-shaped values
// the schema validator expects.
func normalizeYAML(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return float64(vv)
	default:
		return v
	}
}
