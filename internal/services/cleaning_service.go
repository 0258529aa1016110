package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"reportclean/internal/cleaner"
	"reportclean/internal/dataset"
	apperrors "reportclean/internal/errors"
	"reportclean/internal/exporter"
	"reportclean/internal/files"
	"reportclean/internal/infrastructure"
)

const (
	outcomeSuccess    = "success"
	outcomeInputError = "input_error"
	outcomeError      = "error"

	uploadFileName = "upload.zip"
	extractDirName = "extracted"
)

// CleaningConfig holds the settings CleaningService needs from config.Config.
type CleaningConfig struct {
	WorkDir  string
	Limits   files.ExtractLimits
	ExcelBOM bool
}

// CleanRequest describes one archive to clean.
type CleanRequest struct {
	Archive io.Reader
	// ArchiveName is the client-side file name, used for logging only.
	ArchiveName string
	Mode        cleaner.Mode
	Format      exporter.Format
}

// CleanSummary describes a stored cleaning result.
type CleanSummary struct {
	JobID      string
	FileName   string
	Path       string
	SourceFile string
	Mode       cleaner.Mode
	Format     exporter.Format

	InputRows  int
	OutputRows int
	Columns    []string

	// MaleCompleted and FemaleCompleted are nil unless the mode reports counts.
	MaleCompleted   *int
	FemaleCompleted *int

	Exclusions cleaner.Exclusions
}

// CleaningService runs the full clean pipeline for an upload.
type CleaningService struct {
	cfg     CleaningConfig
	store   *files.OutputStore
	tracer  trace.Tracer
	metrics *infrastructure.CleaningMetrics
	logger  *slog.Logger
}

// NewCleaningService creates a cleaning service. tracer and metrics may be nil.
func NewCleaningService(cfg CleaningConfig, store *files.OutputStore, tracer trace.Tracer, metrics *infrastructure.CleaningMetrics, logger *slog.Logger) *CleaningService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	return &CleaningService{
		cfg:     cfg,
		store:   store,
		tracer:  tracer,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "cleaning_service"),
	}
}

// CleanArchive extracts the uploaded zip into a private workspace, cleans
// the specialization report it contains and stores the result. The
// workspace is removed before CleanArchive returns.
func (s *CleaningService) CleanArchive(ctx context.Context, req CleanRequest) (*CleanSummary, error) {
	ctx, span := s.tracer.Start(ctx, "CleaningService.CleanArchive",
		trace.WithAttributes(attribute.String("mode", req.Mode.String())))
	defer span.End()

	start := time.Now()
	summary, err := s.cleanArchive(ctx, req)
	s.finish(ctx, span, req.Mode, summary, err, start)
	return summary, err
}

// CleanCSV cleans a report that is already a CSV stream. source names the
// report in the summary.
func (s *CleaningService) CleanCSV(ctx context.Context, r io.Reader, source string, mode cleaner.Mode, format exporter.Format) (*CleanSummary, error) {
	ctx, span := s.tracer.Start(ctx, "CleaningService.CleanCSV",
		trace.WithAttributes(attribute.String("mode", mode.String())))
	defer span.End()

	start := time.Now()
	summary, err := s.cleanCSV(ctx, r, source, mode, format)
	s.finish(ctx, span, mode, summary, err, start)
	return summary, err
}

// CleanFile cleans a local .zip or .csv file.
func (s *CleaningService) CleanFile(ctx context.Context, path string, mode cleaner.Mode, format exporter.Format) (*CleanSummary, error) {
	if path == "" {
		return nil, apperrors.NewInputError("an input file is required", ErrNoInput)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".zip" && ext != ".csv" {
		return nil, apperrors.NewInputError(ErrUnsupportedInput.Error(), ErrUnsupportedInput).
			WithContext("file", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputError("cannot open input file", err)
	}
	defer f.Close()

	if ext == ".csv" {
		return s.CleanCSV(ctx, f, filepath.Base(path), mode, format)
	}
	return s.CleanArchive(ctx, CleanRequest{
		Archive:     f,
		ArchiveName: filepath.Base(path),
		Mode:        mode,
		Format:      format,
	})
}

// OutputPath resolves a stored output for download.
func (s *CleaningService) OutputPath(jobID, filename string) (string, error) {
	path, err := s.store.Resolve(jobID, filename)
	if err != nil {
		return "", apperrors.NewNotFoundError("cleaned report").
			WithContext("job_id", jobID)
	}
	return path, nil
}

// ReapOutputs removes stored outputs older than retention.
func (s *CleaningService) ReapOutputs(ctx context.Context, retention time.Duration) (int, error) {
	removed, err := s.store.Reap(ctx, retention)
	s.metrics.RecordReaped(ctx, removed)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to reap outputs",
			slog.String("error", err.Error()),
			slog.Int("removed", removed))
	}
	return removed, err
}

func (s *CleaningService) cleanArchive(ctx context.Context, req CleanRequest) (*CleanSummary, error) {
	if req.Archive == nil {
		return nil, apperrors.NewInputError("zip_file is required", ErrNoInput)
	}
	if !req.Mode.Valid() {
		return nil, apperrors.NewInputError(cleaner.ErrInvalidMode.Error(), cleaner.ErrInvalidMode)
	}

	ws, err := files.NewWorkspace(s.cfg.WorkDir, s.logger)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create workspace", err)
	}
	defer ws.Close()

	archivePath, size, err := ws.WriteFile(uploadFileName, req.Archive)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to store upload", err)
	}

	report, err := s.extract(ctx, ws, archivePath)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Report located",
		slog.String("archive", req.ArchiveName),
		slog.Int64("archive_bytes", size),
		slog.String("source_file", report.RelPath),
		slog.Int64("report_bytes", report.Size))

	f, err := os.Open(report.Path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open extracted report", err)
	}
	defer f.Close()

	return s.cleanCSV(ctx, f, report.RelPath, req.Mode, req.Format)
}

func (s *CleaningService) extract(ctx context.Context, ws *files.Workspace, archivePath string) (files.FileInfo, error) {
	ctx, span := s.tracer.Start(ctx, "extract")
	defer span.End()

	dest := ws.Path(extractDirName)
	result, err := files.ExtractZip(ctx, archivePath, dest, s.cfg.Limits)
	if err != nil {
		infrastructure.RecordSpanError(span, err)
		return files.FileInfo{}, classifyExtractError(err)
	}
	span.SetAttributes(
		attribute.Int("files", result.Files),
		attribute.Int64("bytes", result.Bytes),
		attribute.Int("skipped", result.Skipped),
	)

	report, err := files.FindReport(dest)
	if errors.Is(err, files.ErrReportNotFound) {
		return files.FileInfo{}, apperrors.NewNotFoundError("specialization report CSV").
			WithContext("marker", files.ReportNameMarker)
	}
	if err != nil {
		infrastructure.RecordSpanError(span, err)
		return files.FileInfo{}, apperrors.NewStorageError("failed to search extracted archive", err)
	}
	return report, nil
}

func (s *CleaningService) cleanCSV(ctx context.Context, r io.Reader, source string, mode cleaner.Mode, format exporter.Format) (*CleanSummary, error) {
	if !mode.Valid() {
		return nil, apperrors.NewInputError(cleaner.ErrInvalidMode.Error(), cleaner.ErrInvalidMode)
	}
	if format == "" {
		format = exporter.DefaultFormat
	}

	ds, err := s.parse(ctx, r)
	if err != nil {
		return nil, err
	}

	_, span := s.tracer.Start(ctx, "clean")
	result, err := cleaner.Clean(ds, mode)
	if err != nil {
		infrastructure.RecordSpanError(span, err)
		span.End()
		return nil, classifyCleanError(err)
	}
	span.SetAttributes(
		attribute.Int("rows.in", result.InputRows),
		attribute.Int("rows.out", result.OutputRows()),
	)
	span.End()

	summary := &CleanSummary{
		JobID:      files.NewJobID(),
		FileName:   exporter.FileName(mode, format),
		SourceFile: source,
		Mode:       mode,
		Format:     format,
		InputRows:  result.InputRows,
		OutputRows: result.OutputRows(),
		Columns:    result.Dataset.Header,
		Exclusions: result.Exclusions,
	}
	if mode.ReportsCounts() {
		male, female := result.MaleCompleted, result.FemaleCompleted
		summary.MaleCompleted = &male
		summary.FemaleCompleted = &female
	}

	path, err := s.export(ctx, summary.JobID, summary.FileName, result.Dataset, format)
	if err != nil {
		return nil, err
	}
	summary.Path = path

	s.logger.InfoContext(ctx, "Report cleaned",
		slog.String("job_id", summary.JobID),
		slog.String("mode", mode.String()),
		slog.String("format", string(format)),
		slog.String("source_file", source),
		slog.Int("rows_in", summary.InputRows),
		slog.Int("rows_out", summary.OutputRows),
		slog.Int("rows_excluded", summary.Exclusions.Total()))

	return summary, nil
}

func (s *CleaningService) parse(ctx context.Context, r io.Reader) (dataset.Dataset, error) {
	_, span := s.tracer.Start(ctx, "parse")
	defer span.End()

	ds, err := dataset.ReadCSV(r)
	if err != nil {
		infrastructure.RecordSpanError(span, err)
		return dataset.Dataset{}, classifyParseError(err)
	}
	span.SetAttributes(
		attribute.Int("rows", ds.Len()),
		attribute.Int("columns", len(ds.Header)),
	)
	return ds, nil
}

func (s *CleaningService) export(ctx context.Context, jobID, filename string, ds dataset.Dataset, format exporter.Format) (string, error) {
	_, span := s.tracer.Start(ctx, "export",
		trace.WithAttributes(attribute.String("format", string(format))))
	defer span.End()

	out, err := s.store.Create(jobID, filename)
	if err != nil {
		infrastructure.RecordSpanError(span, err)
		return "", apperrors.NewStorageError("failed to create output file", err)
	}

	opts := exporter.Options{BOM: s.cfg.ExcelBOM}
	err = exporter.Write(out, ds, format, opts)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		infrastructure.RecordSpanError(span, err)
		if rmErr := s.store.Remove(jobID); rmErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove partial output",
				slog.String("job_id", jobID),
				slog.String("error", rmErr.Error()))
		}
		if errors.Is(err, exporter.ErrInvalidFormat) {
			return "", apperrors.NewInputError(exporter.ErrInvalidFormat.Error(), err)
		}
		return "", apperrors.NewStorageError("failed to write cleaned report", err)
	}
	return out.Name(), nil
}

func (s *CleaningService) finish(ctx context.Context, span trace.Span, mode cleaner.Mode, summary *CleanSummary, err error, start time.Time) {
	elapsed := time.Since(start)

	if err != nil {
		infrastructure.RecordSpanError(span, err)
		outcome := outcomeError
		if apperrors.IsInputError(err) || apperrors.TypeOf(err) == apperrors.ErrTypeValidation {
			outcome = outcomeInputError
		}
		s.metrics.RecordCleaning(ctx, mode.String(), outcome, 0, 0, elapsed)

		level := slog.LevelError
		if outcome == outcomeInputError {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "Cleaning failed",
			slog.String("mode", mode.String()),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed))
		return
	}

	span.SetAttributes(attribute.String("job_id", summary.JobID))
	s.metrics.RecordCleaning(ctx, mode.String(), outcomeSuccess, summary.InputRows, summary.OutputRows, elapsed)
}

func classifyExtractError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, files.ErrUnsafePath):
		return apperrors.NewInputError("archive contains entries outside the extraction directory", err)
	case errors.Is(err, files.ErrArchiveTooLarge):
		return apperrors.NewTooLargeError("archive exceeds extraction limits", err)
	case errors.Is(err, files.ErrInvalidArchive):
		return apperrors.NewInputError("uploaded file is not a valid zip archive", err)
	default:
		return apperrors.NewStorageError("failed to extract archive", err)
	}
}

func classifyParseError(err error) error {
	var rowErr *dataset.RowLengthError
	var parseErr *csv.ParseError

	switch {
	case errors.Is(err, dataset.ErrNoHeader):
		return apperrors.NewInputError("report CSV is empty", err)
	case errors.As(err, &rowErr):
		return apperrors.NewInputError("report CSV is malformed", err).
			WithContext("line", rowErr.Line)
	case errors.As(err, &parseErr):
		return apperrors.NewInputError("report CSV is malformed", err).
			WithContext("line", parseErr.Line)
	default:
		return apperrors.NewStorageError("failed to read report CSV", err)
	}
}

func classifyCleanError(err error) error {
	var validationErr *cleaner.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return apperrors.NewAppValidationError(err.Error(), err).
			WithContext("column", validationErr.Column)
	case errors.Is(err, cleaner.ErrInvalidMode):
		return apperrors.NewInputError(cleaner.ErrInvalidMode.Error(), err)
	default:
		return fmt.Errorf("clean failed: %w", err)
	}
}
