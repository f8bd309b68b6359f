package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"inspection-tracker/constants"
	"inspection-tracker/internal/entity"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return s
}

func record(day string, driver, plate string) *entity.InspectionRecord {
	d, _ := time.Parse("2006-01-02", day)
	return &entity.InspectionRecord{
		ID:               uuid.New(),
		Date:             &d,
		Year:             d.Year(),
		Month:            int(d.Month()),
		Shift:            constants.ShiftDay,
		DriverName:       driver,
		VehiclePlate:     plate,
		Contract:         "CT-100",
		RiskLevel:        constants.RiskLow,
		InspectionStatus: constants.StatusApproved,
		InspectionScore:  100,
		ProcessedAt:      time.Now(),
	}
}

func TestInsertBatchSkipsNaturalKeyDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.InsertBatchSkippingDuplicates(ctx, []*entity.InspectionRecord{
		record("2024-03-01", "Juan Pérez", "JKL123"),
		record("2024-03-02", "Juan Pérez", "JKL123"),
	})
	if err != nil || n != 2 {
		t.Fatalf("first batch: n=%d err=%v", n, err)
	}

	// Same natural key, different ID: must be skipped, not error.
	n, err = s.InsertBatchSkippingDuplicates(ctx, []*entity.InspectionRecord{
		record("2024-03-01", "Juan Pérez", "JKL123"),
		record("2024-03-03", "Ana Soto", "WX1234"),
	})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if n != 1 {
		t.Fatalf("inserted = %d, want 1", n)
	}

	total, err := s.CountExisting(ctx, 2024, []int{3})
	if err != nil || total != 3 {
		t.Fatalf("count = %d err=%v, want 3", total, err)
	}
}

func TestCountExistingFiltersByMonth(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertBatchSkippingDuplicates(ctx, []*entity.InspectionRecord{
		record("2024-03-01", "Juan Pérez", "JKL123"),
		record("2024-04-01", "Juan Pérez", "JKL123"),
	}); err != nil {
		t.Fatal(err)
	}

	n, err := s.CountExisting(ctx, 2024, []int{4})
	if err != nil || n != 1 {
		t.Fatalf("month filter: n=%d err=%v", n, err)
	}
	n, err = s.CountExisting(ctx, 2024, nil)
	if err != nil || n != 2 {
		t.Fatalf("year only: n=%d err=%v", n, err)
	}
}

func TestListInspectionsFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	other := record("2024-03-02", "Ana Soto", "WX1234")
	other.Contract = "CT-200"
	if _, err := s.InsertBatchSkippingDuplicates(ctx, []*entity.InspectionRecord{
		record("2024-03-01", "Juan Pérez", "JKL123"),
		other,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListInspections(ctx, InspectionFilter{Year: 2024, Contract: "CT-200"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].DriverName != "Ana Soto" {
		t.Fatalf("filtered list: %+v", got)
	}
}

func TestProcessedFileIdempotentOnHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pf := &entity.ProcessedFile{
		Filename:    "marzo.xlsx",
		ContentHash: "abc123",
		Year:        2024,
		Status:      constants.ProcessCompleted,
		RecordCount: 10,
		CreatedAt:   time.Now(),
	}
	if err := s.CreateProcessedFile(ctx, pf); err != nil {
		t.Fatalf("create: %v", err)
	}
	again := &entity.ProcessedFile{
		Filename:    "marzo-copia.xlsx",
		ContentHash: "abc123",
		Year:        2024,
		Status:      constants.ProcessCompleted,
		CreatedAt:   time.Now(),
	}
	if err := s.CreateProcessedFile(ctx, again); err != nil {
		t.Fatalf("idempotent create: %v", err)
	}

	found, err := s.FindProcessedFileByHash(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.Filename != "marzo.xlsx" {
		t.Fatalf("original entry must win: %+v", found)
	}

	miss, err := s.FindProcessedFileByHash(ctx, "nope")
	if err != nil || miss != nil {
		t.Fatalf("miss must be (nil, nil): %v %v", miss, err)
	}

	list, err := s.ListProcessedFiles(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %d err=%v", len(list), err)
	}
}
