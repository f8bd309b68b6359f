// Package pipeline drives the end-to-end ingestion of one workbook: read,
// duplicate-file gate, per-row mapping and validation, intra-file
// deduplication, batched persistence and the final audit entry.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"inspection-tracker/constants"
	"inspection-tracker/internal/alert"
	"inspection-tracker/internal/colmap"
	"inspection-tracker/internal/common"
	"inspection-tracker/internal/entity"
	"inspection-tracker/internal/excel"
	"inspection-tracker/internal/mapper"
	"inspection-tracker/internal/repository"
	"inspection-tracker/internal/validate"
)

// Options tune one processing attempt.
type Options struct {
	// ForceReprocess bypasses the duplicate-file gate.
	ForceReprocess bool
	// SheetName selects a worksheet; the first sheet is used when empty.
	SheetName string
}

// Processor is the ingestion orchestrator. The store is injected; its
// lifecycle belongs to the hosting process, never to the pipeline.
type Processor struct {
	table     *colmap.Table
	store     repository.Store
	validator *validate.Validator
	cfg       common.PipelineConfig
	logger    *slog.Logger
	now       func() time.Time
}

func New(table *colmap.Table, store repository.Store, cfg common.PipelineConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		table:     table,
		store:     store,
		validator: validate.New(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// NewAt pins the processor's clock and validator clock, for tests.
func NewAt(table *colmap.Table, store repository.Store, cfg common.PipelineConfig, logger *slog.Logger, now func() time.Time) *Processor {
	p := New(table, store, cfg, logger)
	p.now = now
	p.validator = validate.NewAt(now)
	return p
}

// AnalyzeFile previews a workbook without persisting anything: headers,
// detected period, a small mapped sample, and whether the identical bytes
// were ingested before.
func (p *Processor) AnalyzeFile(ctx context.Context, data []byte, filename string) (*entity.FileAnalysis, error) {
	sheet, err := excel.Read(data, p.cfg.DefaultSheetByName)
	if err != nil {
		return nil, err
	}

	cols := p.table.Resolve(sheet.Headers)
	dateIdx, hasDate := cols.Lookup(colmap.FieldDate)
	if !hasDate {
		dateIdx = -1
	}
	period := excel.DetectPeriod(sheet, dateIdx, p.cfg.PeriodScanRows)
	p.fillExistingCount(ctx, &period)

	known := false
	if existing, err := p.store.FindProcessedFileByHash(ctx, sheet.ContentHash); err == nil && existing != nil {
		known = true
	}

	m := mapper.NewAt(cols, p.now)
	var sample []*entity.InspectionRecord
	for i, row := range sheet.Rows {
		if len(sample) == 5 {
			break
		}
		rec, err := m.MapRow(row, sheet.WorkbookRow(i))
		if err != nil {
			continue
		}
		sample = append(sample, rec)
	}

	return &entity.FileAnalysis{
		Filename:    filename,
		SheetName:   sheet.Name,
		ContentHash: sheet.ContentHash,
		Headers:     sheet.Headers,
		RowCount:    len(sheet.Rows),
		Period:      period,
		Sample:      sample,
		KnownFile:   known,
	}, nil
}

// ProcessFile runs the full pipeline for one workbook. Row-level problems
// are accumulated into the result; only structural failures and the
// duplicate-file conflict come back as errors. Structural failures are also
// recorded as an ERROR-state processed-file entry before returning.
func (p *Processor) ProcessFile(ctx context.Context, data []byte, filename string, opts Options) (*entity.ProcessingResult, error) {
	start := p.now()

	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = p.cfg.DefaultSheetByName
	}
	sheet, err := excel.Read(data, sheetName)
	if err != nil {
		p.recordFailure(ctx, filename, hashBytes(data), start, err)
		return nil, err
	}

	cols := p.table.Resolve(sheet.Headers)
	dateIdx, hasDate := cols.Lookup(colmap.FieldDate)
	if !hasDate {
		err := common.NewAppError(common.CodeNoDateColumn, "no date column could be located in the header row", nil)
		p.recordFailure(ctx, filename, sheet.ContentHash, start, err)
		return nil, err
	}

	// Duplicate-file gate: replaying identical bytes is a conflict, not a
	// reprocess, unless explicitly forced. The content-hash uniqueness at the
	// store settles concurrent races.
	if !opts.ForceReprocess {
		if existing, err := p.store.FindProcessedFileByHash(ctx, sheet.ContentHash); err != nil {
			wrapped := common.NewAppError(common.CodeStructuralError, "duplicate-file lookup failed", err)
			p.recordFailure(ctx, filename, sheet.ContentHash, start, wrapped)
			return nil, wrapped
		} else if existing != nil {
			return nil, common.NewAppError(common.CodeDuplicateFile,
				fmt.Sprintf("file %q was already processed at %s", filename, existing.CreatedAt.Format(time.RFC3339)), nil)
		}
	}

	period := excel.DetectPeriod(sheet, dateIdx, p.cfg.PeriodScanRows)
	p.fillExistingCount(ctx, &period)

	p.logger.Info("processing workbook",
		"filename", filename,
		"sheet", sheet.Name,
		"rows", len(sheet.Rows),
		"mapped_columns", cols.MappedFields(),
		"period", string(period.Type),
	)

	m := mapper.NewAt(cols, p.now)
	var (
		valid      []*entity.InspectionRecord
		failures   []entity.RowFailure
		warnings   []string
		totalRows  int
		errorCount int
		alertCount int
	)

	for i, row := range sheet.Rows {
		rowNum := sheet.WorkbookRow(i)
		rec, err := m.MapRow(row, rowNum)
		if err != nil {
			if errors.Is(err, mapper.ErrUnreadableRow) {
				continue // blank padding rows are not data
			}
			errorCount++
			continue
		}
		totalRows++

		res := p.validator.Validate(rec)
		if !res.IsValid {
			errorCount++
			if len(failures) < p.cfg.MaxErrorSamples {
				failures = append(failures, entity.RowFailure{Row: rowNum, Issues: res.Errors})
			}
			continue
		}
		for _, w := range res.Warnings {
			if len(warnings) < p.cfg.MaxErrorSamples {
				warnings = append(warnings, fmt.Sprintf("row %d: %s", rowNum, w.Message))
			}
		}

		if a := alert.Detect(rec); a != nil {
			alertCount++
			p.logger.Warn("inspection alert",
				"severity", string(a.Severity),
				"code", a.Code,
				"driver", a.DriverName,
				"plate", a.VehiclePlate,
				"row", a.SourceRow,
				"action", a.SuggestedAction,
			)
		}

		valid = append(valid, rec)

		if p.cfg.ProgressLogEvery > 0 && totalRows%p.cfg.ProgressLogEvery == 0 {
			p.logger.Info("processing progress", "filename", filename, "rows_done", totalRows)
		}
	}

	deduped, intraFileDupes := dedupe(valid)

	inserted, storeSkipped, batchErrors := p.persistBatches(ctx, deduped)
	errorCount += batchErrors

	duration := p.now().Sub(start)
	result := &entity.ProcessingResult{
		Success:               true,
		TotalRecords:          totalRows,
		NewRecords:            inserted,
		DuplicateRecords:      intraFileDupes + storeSkipped,
		ErrorRecords:          errorCount,
		ProcessingTimeSeconds: duration.Seconds(),
		Period:                period,
		ValidationErrors:      failures,
		Warnings:              warnings,
	}

	pf := &entity.ProcessedFile{
		Filename:         filename,
		ContentHash:      sheet.ContentHash,
		Year:             period.Year,
		Months:           monthsCSV(period.Months),
		RecordCount:      result.TotalRecords,
		NewCount:         result.NewRecords,
		DuplicateCount:   result.DuplicateRecords,
		ErrorCount:       result.ErrorRecords,
		DurationMS:       duration.Milliseconds(),
		Status:           constants.ProcessCompleted,
		ValidationErrors: marshalFailures(failures),
		CreatedAt:        p.now(),
	}
	if err := p.store.CreateProcessedFile(ctx, pf); err != nil {
		wrapped := common.NewAppError(common.CodeStructuralError, "persisting processed-file record failed", err)
		return nil, wrapped
	}

	p.logger.Info("workbook processed",
		"filename", filename,
		"total", result.TotalRecords,
		"new", result.NewRecords,
		"duplicates", result.DuplicateRecords,
		"errors", result.ErrorRecords,
		"alerts", alertCount,
		"elapsed_ms", duration.Milliseconds(),
	)
	return result, nil
}

// dedupe keeps the first occurrence of each natural key, in input order.
func dedupe(recs []*entity.InspectionRecord) ([]*entity.InspectionRecord, int) {
	seen := make(map[string]struct{}, len(recs))
	out := recs[:0:0]
	dupes := 0
	for _, r := range recs {
		key := r.NaturalKey()
		if _, dup := seen[key]; dup {
			dupes++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, dupes
}

// persistBatches writes records in fixed-size batches. A failing batch adds
// its records to the error tally and does not abort the remaining batches.
func (p *Processor) persistBatches(ctx context.Context, recs []*entity.InspectionRecord) (inserted, skipped, errored int) {
	size := p.cfg.BatchSize
	if size <= 0 {
		size = 500
	}
	for lo := 0; lo < len(recs); lo += size {
		hi := lo + size
		if hi > len(recs) {
			hi = len(recs)
		}
		batch := recs[lo:hi]
		n, err := p.store.InsertBatchSkippingDuplicates(ctx, batch)
		if err != nil {
			p.logger.Error("batch insert failed", "from", lo, "size", len(batch), "error", err)
			errored += len(batch)
			continue
		}
		inserted += n
		skipped += len(batch) - n
	}
	return inserted, skipped, errored
}

func (p *Processor) fillExistingCount(ctx context.Context, period *entity.PeriodInfo) {
	if period.Year == 0 {
		return
	}
	n, err := p.store.CountExisting(ctx, period.Year, period.Months)
	if err != nil {
		p.logger.Warn("existing-record count failed", "year", period.Year, "error", err)
		return
	}
	period.Existing = n
}

// recordFailure persists the ERROR-state audit entry for a failed attempt.
// Best effort: the original error is what propagates to the caller.
func (p *Processor) recordFailure(ctx context.Context, filename, hash string, start time.Time, cause error) {
	pf := &entity.ProcessedFile{
		Filename:     filename,
		ContentHash:  hash,
		DurationMS:   p.now().Sub(start).Milliseconds(),
		Status:       constants.ProcessError,
		ErrorMessage: cause.Error(),
		CreatedAt:    p.now(),
	}
	if err := p.store.CreateProcessedFile(ctx, pf); err != nil {
		p.logger.Error("recording failed attempt", "filename", filename, "error", err)
	}
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func monthsCSV(months []int) string {
	if len(months) == 0 {
		return ""
	}
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

func marshalFailures(failures []entity.RowFailure) string {
	if len(failures) == 0 {
		return ""
	}
	b, err := json.Marshal(failures)
	if err != nil {
		return ""
	}
	return string(b)
}
