package inspection

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"inspection-tracker/internal/colmap"
	"inspection-tracker/internal/common"
	"inspection-tracker/internal/pipeline"
	"inspection-tracker/internal/repository"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repository.OpenSQLite(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	table, err := colmap.Load()
	if err != nil {
		t.Fatalf("load column table: %v", err)
	}
	cfg := common.PipelineConfig{BatchSize: 100, MaxErrorSamples: 10, ProgressLogEvery: 200, PeriodScanRows: 100}
	return NewService(pipeline.New(table, store, cfg, logger), store, logger)
}

func testWorkbook(t *testing.T, dataRows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	header := []interface{}{"FECHA", "TURNO", "CONDUCTOR", "PATENTE", "CONTRATO", "CONSUMO DE MEDICAMENTOS"}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatal(err)
	}
	for i, r := range dataRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcessFileValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  ProcessFileRequest
	}{
		{"missing filename", ProcessFileRequest{Data: []byte("x")}},
		{"bad extension", ProcessFileRequest{Filename: "datos.csv", Data: []byte("x")}},
		{"empty content", ProcessFileRequest{Filename: "datos.xlsx"}},
	}
	for _, tc := range cases {
		_, err := s.ProcessFile(ctx, tc.req)
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("%s: code = %v, want InvalidArgument", tc.name, status.Code(err))
		}
	}
}

func TestProcessFileThenDuplicateMapsToAlreadyExists(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	data := testWorkbook(t,
		[]interface{}{"01/03/2024", "Diurna", "Juan Pérez", "JKL123", "CT-4410", "NO"},
	)

	result, err := s.ProcessFile(ctx, ProcessFileRequest{Filename: "marzo.xlsx", Data: data})
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	if result.NewRecords != 1 {
		t.Fatalf("new records = %d, want 1", result.NewRecords)
	}

	_, err = s.ProcessFile(ctx, ProcessFileRequest{Filename: "marzo.xlsx", Data: data})
	if status.Code(err) != codes.AlreadyExists {
		t.Fatalf("duplicate file: code = %v, want AlreadyExists", status.Code(err))
	}

	// Forced reprocess is allowed and reports everything as duplicates.
	result, err = s.ProcessFile(ctx, ProcessFileRequest{Filename: "marzo.xlsx", Data: data, ForceReprocess: true})
	if err != nil {
		t.Fatalf("forced reprocess: %v", err)
	}
	if result.NewRecords != 0 || result.DuplicateRecords != 1 {
		t.Fatalf("forced reprocess: new=%d dup=%d", result.NewRecords, result.DuplicateRecords)
	}
}

func TestAnalyzeFileDoesNotPersist(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	data := testWorkbook(t,
		[]interface{}{"01/03/2024", "Diurna", "Juan Pérez", "JKL123", "CT-4410", "NO"},
	)

	analysis, err := s.AnalyzeFile(ctx, "marzo.xlsx", data)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.KnownFile {
		t.Fatal("file must not be known before processing")
	}
	files, err := s.ListProcessedFiles(ctx, 10)
	if err != nil || len(files) != 0 {
		t.Fatalf("analyze persisted something: %d err=%v", len(files), err)
	}
}

func TestProcessDirectory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	a := testWorkbook(t, []interface{}{"01/03/2024", "Diurna", "Juan Pérez", "JKL123", "CT-4410", "NO"})
	b := testWorkbook(t, []interface{}{"02/03/2024", "Nocturna", "Ana Soto", "WX1234", "CT-4410", "NO"})
	if err := os.WriteFile(filepath.Join(dir, "a.xlsx"), a, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.xlsx"), b, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := s.ProcessDirectory(ctx, dir, false)
	if err != nil {
		t.Fatalf("process directory: %v", err)
	}
	if res.Scanned != 2 || res.Processed != 2 || res.Failed != 0 {
		t.Fatalf("result: %+v", res)
	}

	files, err := s.ListProcessedFiles(ctx, 10)
	if err != nil || len(files) != 2 {
		t.Fatalf("audit entries: %d err=%v", len(files), err)
	}
}
