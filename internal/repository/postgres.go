package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inspection-tracker/internal/entity"
)

// PostgresStore implements Store on a pgx pool. Duplicate suppression rides
// on the natural-key unique index declared in the migrations.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

var inspectionColumns = []string{
	"id", "inspection_date", "year", "month", "shift",
	"driver_name", "driver_id", "vehicle_plate", "contract", "field_site", "mileage",
	"has_used_medication", "had_sufficient_sleep", "is_free_of_fatigue_symptoms", "is_fit_to_drive",
	"high_beams", "low_beams", "turn_signals", "brake_lights", "reverse_lights",
	"brakes_working", "parking_brake", "seatbelts", "steering_ok", "suspension_ok",
	"windshield_intact", "wipers_working", "horn_working", "clean_windows", "doors_and_locks",
	"spare_tire", "jack_and_tools", "fire_extinguisher", "first_aid_kit", "warning_triangles",
	"oil_level", "coolant_level", "brake_fluid_level", "battery_ok",
	"documents_valid", "insurance_valid",
	"tires_state", "mirrors_state", "notes",
	"risk_level", "inspection_score", "has_critical_alert", "has_warning", "inspection_status",
	"source_row", "processed_at",
}

var insertInspectionSQL = func() string {
	cols := ""
	args := ""
	for i, c := range inspectionColumns {
		if i > 0 {
			cols += ", "
			args += ", "
		}
		cols += c
		args += fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		`INSERT INTO inspection_records (%s) VALUES (%s)
		 ON CONFLICT (inspection_date, driver_name, vehicle_plate) DO NOTHING`,
		cols, args)
}()

func inspectionArgs(r *entity.InspectionRecord) []any {
	return []any{
		r.ID, r.Date, r.Year, r.Month, r.Shift,
		r.DriverName, r.DriverID, r.VehiclePlate, r.Contract, r.FieldSite, r.Mileage,
		r.HasUsedMedication, r.HadSufficientSleep, r.IsFreeOfFatigueSymptoms, r.IsFitToDrive,
		r.HighBeams, r.LowBeams, r.TurnSignals, r.BrakeLights, r.ReverseLights,
		r.BrakesWorking, r.ParkingBrake, r.Seatbelts, r.SteeringOK, r.SuspensionOK,
		r.WindshieldIntact, r.WipersWorking, r.HornWorking, r.CleanWindows, r.DoorsAndLocks,
		r.SpareTire, r.JackAndTools, r.FireExtinguisher, r.FirstAidKit, r.WarningTriangles,
		r.OilLevel, r.CoolantLevel, r.BrakeFluidLevel, r.BatteryOK,
		r.DocumentsValid, r.InsuranceValid,
		r.TiresState, r.MirrorsState, r.Notes,
		r.RiskLevel, r.InspectionScore, r.HasCriticalAlert, r.HasWarning, r.InspectionStatus,
		r.SourceRow, r.ProcessedAt,
	}
}

func (s *PostgresStore) InsertBatchSkippingDuplicates(ctx context.Context, recs []*entity.InspectionRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range recs {
		batch.Queue(insertInspectionSQL, inspectionArgs(r)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range recs {
		tag, err := br.Exec()
		if err != nil {
			s.logger.Error("batch insert failed", "error", err)
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) CountExisting(ctx context.Context, year int, months []int) (int, error) {
	query := `SELECT count(*) FROM inspection_records WHERE year = $1`
	args := []any{year}
	if len(months) > 0 {
		query += ` AND month = ANY($2)`
		ms := make([]int32, len(months))
		for i, m := range months {
			ms[i] = int32(m)
		}
		args = append(args, ms)
	}

	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		s.logger.Error("count existing failed", "year", year, "error", err)
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) ListInspections(ctx context.Context, f InspectionFilter) ([]*entity.InspectionRecord, error) {
	query := `SELECT ` + joinColumns() + ` FROM inspection_records WHERE 1=1`
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Year != 0 {
		query += ` AND year = ` + next(f.Year)
	}
	if f.Month != 0 {
		query += ` AND month = ` + next(f.Month)
	}
	if f.From != nil {
		query += ` AND inspection_date >= ` + next(*f.From)
	}
	if f.To != nil {
		query += ` AND inspection_date <= ` + next(*f.To)
	}
	if f.Contract != "" {
		query += ` AND contract = ` + next(f.Contract)
	}
	query += ` ORDER BY inspection_date, source_row`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("list inspections failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.InspectionRecord
	for rows.Next() {
		r := &entity.InspectionRecord{}
		if err := rows.Scan(
			&r.ID, &r.Date, &r.Year, &r.Month, &r.Shift,
			&r.DriverName, &r.DriverID, &r.VehiclePlate, &r.Contract, &r.FieldSite, &r.Mileage,
			&r.HasUsedMedication, &r.HadSufficientSleep, &r.IsFreeOfFatigueSymptoms, &r.IsFitToDrive,
			&r.HighBeams, &r.LowBeams, &r.TurnSignals, &r.BrakeLights, &r.ReverseLights,
			&r.BrakesWorking, &r.ParkingBrake, &r.Seatbelts, &r.SteeringOK, &r.SuspensionOK,
			&r.WindshieldIntact, &r.WipersWorking, &r.HornWorking, &r.CleanWindows, &r.DoorsAndLocks,
			&r.SpareTire, &r.JackAndTools, &r.FireExtinguisher, &r.FirstAidKit, &r.WarningTriangles,
			&r.OilLevel, &r.CoolantLevel, &r.BrakeFluidLevel, &r.BatteryOK,
			&r.DocumentsValid, &r.InsuranceValid,
			&r.TiresState, &r.MirrorsState, &r.Notes,
			&r.RiskLevel, &r.InspectionScore, &r.HasCriticalAlert, &r.HasWarning, &r.InspectionStatus,
			&r.SourceRow, &r.ProcessedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func joinColumns() string {
	s := ""
	for i, c := range inspectionColumns {
		if i > 0 {
			s += ", "
		}
		s += c
	}
	return s
}

func (s *PostgresStore) FindProcessedFileByHash(ctx context.Context, hash string) (*entity.ProcessedFile, error) {
	pf := &entity.ProcessedFile{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, content_hash, year, months,
		        record_count, new_count, duplicate_count, error_count,
		        duration_ms, status, error_message, validation_errors, created_at
		 FROM processed_files WHERE content_hash = $1`, hash).
		Scan(&pf.ID, &pf.Filename, &pf.ContentHash, &pf.Year, &pf.Months,
			&pf.RecordCount, &pf.NewCount, &pf.DuplicateCount, &pf.ErrorCount,
			&pf.DurationMS, &pf.Status, &pf.ErrorMessage, &pf.ValidationErrors, &pf.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("find processed file failed", "hash", hash, "error", err)
		return nil, err
	}
	return pf, nil
}

func (s *PostgresStore) CreateProcessedFile(ctx context.Context, pf *entity.ProcessedFile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processed_files
		   (filename, content_hash, year, months,
		    record_count, new_count, duplicate_count, error_count,
		    duration_ms, status, error_message, validation_errors, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (content_hash) DO NOTHING`,
		pf.Filename, pf.ContentHash, pf.Year, pf.Months,
		pf.RecordCount, pf.NewCount, pf.DuplicateCount, pf.ErrorCount,
		pf.DurationMS, pf.Status, pf.ErrorMessage, pf.ValidationErrors, pf.CreatedAt)
	if err != nil {
		s.logger.Error("create processed file failed", "filename", pf.Filename, "error", err)
	}
	return err
}

func (s *PostgresStore) ListProcessedFiles(ctx context.Context, limit int) ([]*entity.ProcessedFile, error) {
	query := `SELECT id, filename, content_hash, year, months,
	                 record_count, new_count, duplicate_count, error_count,
	                 duration_ms, status, error_message, validation_errors, created_at
	          FROM processed_files ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.ProcessedFile
	for rows.Next() {
		pf := &entity.ProcessedFile{}
		if err := rows.Scan(&pf.ID, &pf.Filename, &pf.ContentHash, &pf.Year, &pf.Months,
			&pf.RecordCount, &pf.NewCount, &pf.DuplicateCount, &pf.ErrorCount,
			&pf.DurationMS, &pf.Status, &pf.ErrorMessage, &pf.ValidationErrors, &pf.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pf)
	}
	return out, rows.Err()
}
