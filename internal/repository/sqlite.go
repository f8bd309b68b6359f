package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"inspection-tracker/internal/entity"
)

// SQLiteStore implements Store on an embedded SQLite database. It backs the
// CLI when no Postgres DSN is configured and the store tests.
type SQLiteStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and migrates the schema.
// Pass ":memory:" for an ephemeral database.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("failed to open sqlite database", "path", path, "error", err)
		return nil, err
	}
	if err := db.AutoMigrate(&entity.InspectionRecord{}, &entity.ProcessedFile{}); err != nil {
		logger.Error("sqlite migration failed", "error", err)
		return nil, err
	}
	logger.Info("sqlite database ready", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) InsertBatchSkippingDuplicates(ctx context.Context, recs []*entity.InspectionRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(recs, len(recs))
	if res.Error != nil {
		s.logger.Error("batch insert failed", "error", res.Error)
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (s *SQLiteStore) CountExisting(ctx context.Context, year int, months []int) (int, error) {
	q := s.db.WithContext(ctx).Model(&entity.InspectionRecord{}).Where("year = ?", year)
	if len(months) > 0 {
		q = q.Where("month IN ?", months)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		s.logger.Error("count existing failed", "year", year, "error", err)
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) ListInspections(ctx context.Context, f InspectionFilter) ([]*entity.InspectionRecord, error) {
	q := s.db.WithContext(ctx).Model(&entity.InspectionRecord{})
	if f.Year != 0 {
		q = q.Where("year = ?", f.Year)
	}
	if f.Month != 0 {
		q = q.Where("month = ?", f.Month)
	}
	if f.From != nil {
		q = q.Where("inspection_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("inspection_date <= ?", *f.To)
	}
	if f.Contract != "" {
		q = q.Where("contract = ?", f.Contract)
	}
	var out []*entity.InspectionRecord
	if err := q.Order("inspection_date, source_row").Find(&out).Error; err != nil {
		s.logger.Error("list inspections failed", "error", err)
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) FindProcessedFileByHash(ctx context.Context, hash string) (*entity.ProcessedFile, error) {
	var pf entity.ProcessedFile
	err := s.db.WithContext(ctx).Where("content_hash = ?", hash).First(&pf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("find processed file failed", "hash", hash, "error", err)
		return nil, err
	}
	return &pf, nil
}

func (s *SQLiteStore) CreateProcessedFile(ctx context.Context, pf *entity.ProcessedFile) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "content_hash"}}, DoNothing: true}).
		Create(pf).Error
	if err != nil {
		s.logger.Error("create processed file failed", "filename", pf.Filename, "error", err)
	}
	return err
}

func (s *SQLiteStore) ListProcessedFiles(ctx context.Context, limit int) ([]*entity.ProcessedFile, error) {
	q := s.db.WithContext(ctx).Model(&entity.ProcessedFile{}).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*entity.ProcessedFile
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
