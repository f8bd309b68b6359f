package inspection

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"inspection-tracker/constants"
	"inspection-tracker/internal/common"
	"inspection-tracker/internal/entity"
	"inspection-tracker/internal/pipeline"
	"inspection-tracker/internal/repository"
)

// Service is the boundary in front of the processing pipeline. It validates
// requests and translates pipeline errors into gRPC status codes.
type Service struct {
	processor *pipeline.Processor
	store     repository.Store
	logger    *slog.Logger
}

func NewService(p *pipeline.Processor, store repository.Store, logger *slog.Logger) *Service {
	return &Service{processor: p, store: store, logger: logger}
}

// ProcessFileRequest represents one upload to ingest.
type ProcessFileRequest struct {
	Filename       string
	Data           []byte
	ForceReprocess bool
	SheetName      string
}

func (s *Service) validate(filename string, data []byte) error {
	name := strings.TrimSpace(filename)
	if name == "" {
		return status.Error(codes.InvalidArgument, "filename is required")
	}
	if !constants.IsAllowedExt(name) {
		return status.Errorf(codes.InvalidArgument, "unsupported file type %q", filepath.Ext(name))
	}
	if len(data) == 0 {
		return status.Error(codes.InvalidArgument, "file content is empty")
	}
	return nil
}

// ProcessFile ingests one workbook end to end.
func (s *Service) ProcessFile(ctx context.Context, req ProcessFileRequest) (*entity.ProcessingResult, error) {
	if err := s.validate(req.Filename, req.Data); err != nil {
		s.logger.Error("process request rejected", "filename", req.Filename, "error", err)
		return nil, err
	}

	s.logger.Info("starting file processing", "filename", req.Filename, "force", req.ForceReprocess)
	result, err := s.processor.ProcessFile(ctx, req.Data, req.Filename, pipeline.Options{
		ForceReprocess: req.ForceReprocess,
		SheetName:      req.SheetName,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return result, nil
}

// AnalyzeFile inspects a workbook without persisting anything.
func (s *Service) AnalyzeFile(ctx context.Context, filename string, data []byte) (*entity.FileAnalysis, error) {
	if err := s.validate(filename, data); err != nil {
		s.logger.Error("analyze request rejected", "filename", filename, "error", err)
		return nil, err
	}
	analysis, err := s.processor.AnalyzeFile(ctx, data, filename)
	if err != nil {
		return nil, toStatus(err)
	}
	return analysis, nil
}

// DirectoryResult summarizes a directory ingestion run.
type DirectoryResult struct {
	Scanned   int
	Processed int
	Failed    int
	Results   map[string]*entity.ProcessingResult
}

// ProcessDirectory ingests every workbook found directly under root. A file
// that fails does not stop the run.
func (s *Service) ProcessDirectory(ctx context.Context, root string, force bool) (*DirectoryResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		s.logger.Error("cannot read directory", "root", root, "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "read directory: %v", err)
	}

	out := &DirectoryResult{Results: make(map[string]*entity.ProcessingResult)}
	for _, e := range entries {
		if e.IsDir() || !constants.IsAllowedExt(e.Name()) {
			continue
		}
		out.Scanned++
		path := filepath.Join(root, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error("cannot read file", "path", path, "error", err)
			out.Failed++
			continue
		}
		result, err := s.ProcessFile(ctx, ProcessFileRequest{
			Filename:       e.Name(),
			Data:           data,
			ForceReprocess: force,
		})
		if err != nil {
			s.logger.Error("file processing failed", "path", path, "error", err)
			out.Failed++
			continue
		}
		out.Processed++
		out.Results[e.Name()] = result
	}

	s.logger.Info("directory ingest completed",
		"root", root, "scanned", out.Scanned, "processed", out.Processed, "failed", out.Failed)
	return out, nil
}

// ListProcessedFiles returns the most recent audit entries.
func (s *Service) ListProcessedFiles(ctx context.Context, limit int) ([]*entity.ProcessedFile, error) {
	files, err := s.store.ListProcessedFiles(ctx, limit)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list processed files: %v", err)
	}
	return files, nil
}

// toStatus maps stable pipeline error codes onto gRPC status codes so every
// transport surfaces the same failure taxonomy.
func toStatus(err error) error {
	switch common.ErrorCode(err) {
	case common.CodeDuplicateFile:
		return status.Error(codes.AlreadyExists, err.Error())
	case common.CodeEmptyFile, common.CodeNoDateColumn, common.CodeStructuralError:
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Errorf(codes.Internal, "processing failed: %v", err)
	}
}
