package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"inspection-tracker/internal/repository"
)

// Service is a tiny façade over the store that produces XLSX bytes for exports.
type Service struct {
	store  repository.InspectionStore
	logger *slog.Logger
}

func NewService(store repository.InspectionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportInspectionsXLSX returns an XLSX workbook (as bytes) for the given
// filter. An empty filter exports everything.
func (s *Service) ExportInspectionsXLSX(ctx context.Context, filter repository.InspectionFilter) ([]byte, error) {
	start := time.Now()

	recs, err := s.store.ListInspections(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query inspections: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Inspecciones"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultIndex, _ := f.GetSheetIndex("Sheet1")
	if defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Fecha",
		"Turno",
		"Conductor",
		"Patente",
		"Contrato",
		"Nivel de Riesgo",
		"Puntaje",
		"Estado",
		"Alerta Crítica",
		"Observaciones",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if r.Date != nil {
			write(1, r.Date.Format("2006-01-02"))
		} else {
			write(1, "")
		}
		write(2, string(r.Shift))
		write(3, r.DriverName)
		write(4, r.VehiclePlate)
		write(5, r.Contract)
		write(6, string(r.RiskLevel))
		write(7, r.InspectionScore)
		write(8, string(r.InspectionStatus))
		if r.HasCriticalAlert {
			write(9, "SI")
		} else {
			write(9, "NO")
		}
		write(10, truncate(r.Notes, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 10) // shift
	_ = f.SetColWidth(sheet, "C", "C", 28) // driver
	_ = f.SetColWidth(sheet, "D", "E", 14) // plate, contract
	_ = f.SetColWidth(sheet, "F", "H", 16) // derived fields
	_ = f.SetColWidth(sheet, "J", "J", 48) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
