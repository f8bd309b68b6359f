package colmap

import "testing"

func TestLoadEmbeddedTable(t *testing.T) {
	tbl, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Version < 1 {
		t.Fatalf("unexpected version %d", tbl.Version)
	}
	for _, field := range []string{FieldDate, FieldDriverName, FieldVehiclePlate, FieldContract, FieldShift, FieldHasUsedMedication} {
		if len(tbl.Headers(field)) == 0 {
			t.Fatalf("field %s has no headers", field)
		}
	}
	for _, field := range VehicleBooleanFields {
		if len(tbl.Headers(field)) == 0 {
			t.Fatalf("vehicle field %s has no headers", field)
		}
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	tbl, err := LoadBytes([]byte(`
version: 1
fields:
  date:
    headers: ["FECHA INSPECCION", "FECHA"]
  driver_name:
    headers: ["CONDUCTOR", "NOMBRE"]
`))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}

	// Both candidate headers are present; list order decides.
	r := tbl.Resolve([]string{"FECHA", "NOMBRE", "FECHA INSPECCION", "CONDUCTOR"})
	if idx, ok := r.Lookup("date"); !ok || idx != 2 {
		t.Fatalf("date resolved to %d, want 2", idx)
	}
	if idx, ok := r.Lookup("driver_name"); !ok || idx != 3 {
		t.Fatalf("driver_name resolved to %d, want 3", idx)
	}
}

func TestResolveCaseAndWhitespace(t *testing.T) {
	tbl, err := LoadBytes([]byte(`
version: 1
fields:
  vehicle_plate:
    headers: ["PATENTE"]
`))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	r := tbl.Resolve([]string{"  Patente "})
	if !r.Has("vehicle_plate") {
		t.Fatal("expected plate column to resolve")
	}
}

func TestResolveMissingColumn(t *testing.T) {
	tbl, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := tbl.Resolve([]string{"ALGO", "OTRA COSA"})
	if r.Has(FieldDate) {
		t.Fatal("date should not resolve against unrelated headers")
	}
	if r.MappedFields() != 0 {
		t.Fatalf("mapped %d fields, want 0", r.MappedFields())
	}
}

func TestLoadBytesRejectsBadShape(t *testing.T) {
	cases := []string{
		`version: 1`,                                // no fields
		"version: 1\nfields: {}",                    // empty fields
		"version: 1\nfields:\n  date:\n    headers: []", // empty headers
		"fields:\n  date:\n    headers: [\"FECHA\"]",    // no version
	}
	for _, raw := range cases {
		if _, err := LoadBytes([]byte(raw)); err == nil {
			t.Fatalf("expected schema error for %q", raw)
		}
	}
}
