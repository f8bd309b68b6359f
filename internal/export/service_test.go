package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"inspection-tracker/constants"
	"inspection-tracker/internal/entity"
	"inspection-tracker/internal/repository"
)

type listOnlyStore struct {
	recs []*entity.InspectionRecord
}

func (s *listOnlyStore) InsertBatchSkippingDuplicates(context.Context, []*entity.InspectionRecord) (int, error) {
	return 0, nil
}

func (s *listOnlyStore) CountExisting(context.Context, int, []int) (int, error) {
	return len(s.recs), nil
}

func (s *listOnlyStore) ListInspections(context.Context, repository.InspectionFilter) ([]*entity.InspectionRecord, error) {
	return s.recs, nil
}

func TestExportInspectionsXLSX(t *testing.T) {
	d := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	store := &listOnlyStore{recs: []*entity.InspectionRecord{
		{
			ID:               uuid.New(),
			Date:             &d,
			Shift:            constants.ShiftDay,
			DriverName:       "Juan Pérez",
			VehiclePlate:     "JKL123",
			Contract:         "CT-4410",
			RiskLevel:        constants.RiskLow,
			InspectionScore:  100,
			InspectionStatus: constants.StatusApproved,
		},
		{
			ID:               uuid.New(),
			Shift:            constants.ShiftNight,
			DriverName:       "Ana Soto",
			VehiclePlate:     "WX1234",
			Contract:         "CT-4410",
			RiskLevel:        constants.RiskCritical,
			InspectionScore:  40,
			HasCriticalAlert: true,
			InspectionStatus: constants.StatusCriticalAlert,
			Notes:            "consumo de medicamentos declarado",
		},
	}}

	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	data, err := svc.ExportInspectionsXLSX(context.Background(), repository.InspectionFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Inspecciones")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Fecha" || rows[0][5] != "Nivel de Riesgo" {
		t.Fatalf("header row: %v", rows[0])
	}
	if rows[1][0] != "2024-03-01" || rows[1][2] != "Juan Pérez" {
		t.Fatalf("first record row: %v", rows[1])
	}
	// Record without a date exports an empty cell, not a zero time.
	if rows[2][0] != "" && rows[2][0] != " " {
		t.Fatalf("nil date cell: %q", rows[2][0])
	}
	if rows[2][8] != "SI" {
		t.Fatalf("critical alert cell: %q", rows[2][8])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate: %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("no-op truncate: %q", got)
	}
}
