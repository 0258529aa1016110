package services

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"reportclean/internal/cleaner"
	apperrors "reportclean/internal/errors"
	"reportclean/internal/exporter"
	"reportclean/internal/files"
	"reportclean/internal/infrastructure"
	"reportclean/internal/shared/testutil"
)

type serviceFixture struct {
	service *CleaningService
	workDir string
	store   *files.OutputStore
	logs    *testutil.BufferedSlogHandler
	reader  *sdkmetric.ManualReader
}

func newServiceFixture(t *testing.T, limits files.ExtractLimits) *serviceFixture {
	t.Helper()

	logger, logs := testutil.NewTestLogger(t)
	root := t.TempDir()
	workDir := filepath.Join(root, "work")

	store, err := files.NewOutputStore(filepath.Join(root, "outputs"), logger)
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := infrastructure.NewCleaningMetrics(provider.Meter("test"))
	require.NoError(t, err)

	service := NewCleaningService(CleaningConfig{WorkDir: workDir, Limits: limits}, store, nil, metrics, logger)
	return &serviceFixture{service: service, workDir: workDir, store: store, logs: logs, reader: reader}
}

// assertWorkspaceRemoved checks that no request workspace outlived the call.
func (f *serviceFixture) assertWorkspaceRemoved(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.workDir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func (f *serviceFixture) cleanings(t *testing.T) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))

	counts := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "reportclean.cleanings" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				counts[outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestCleaningService_CleanArchive_Completed(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	summary, err := f.service.CleanArchive(context.Background(), CleanRequest{
		Archive:     bytes.NewReader(testutil.SampleReportZip(t)),
		ArchiveName: "export.zip",
		Mode:        cleaner.ModeCompleted,
	})
	require.NoError(t, err)

	assert.Equal(t, "specialization-report-cleaned-yes.csv", summary.FileName)
	assert.Equal(t, "export/specialization-report-2024.csv", summary.SourceFile)
	assert.Equal(t, exporter.FormatCSV, summary.Format)
	assert.Equal(t, 3, summary.InputRows)
	assert.Equal(t, 1, summary.OutputRows)
	assert.Equal(t, []string{"Name", "Email", "Program Name", "Completed"}, summary.Columns)
	require.NotNil(t, summary.MaleCompleted)
	require.NotNil(t, summary.FemaleCompleted)
	assert.Equal(t, 0, *summary.MaleCompleted)
	assert.Equal(t, 1, *summary.FemaleCompleted)
	assert.Equal(t, cleaner.Exclusions{NotCompleted: 1, DuplicateEmail: 1}, summary.Exclusions)

	data, err := os.ReadFile(summary.Path)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Program Name,Completed\nAna,a@x,Data Science (Female),Yes\n", string(data))

	path, err := f.service.OutputPath(summary.JobID, summary.FileName)
	require.NoError(t, err)
	assert.Equal(t, summary.Path, path)

	f.assertWorkspaceRemoved(t)
	testutil.AssertLogContains(t, f.logs, slog.LevelInfo, "Report cleaned")
	assert.True(t, f.logs.ContainsAttr("rows_excluded", int64(2)))
	assert.Equal(t, map[string]int64{"success": 1}, f.cleanings(t))
}

func TestCleaningService_CleanArchive_NotCompleted(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	summary, err := f.service.CleanArchive(context.Background(), CleanRequest{
		Archive: bytes.NewReader(testutil.SampleReportZip(t)),
		Mode:    cleaner.ModeNotCompleted,
	})
	require.NoError(t, err)

	assert.Equal(t, "specialization-report-cleaned-no.csv", summary.FileName)
	assert.Equal(t, 1, summary.OutputRows)
	assert.Nil(t, summary.MaleCompleted)
	assert.Nil(t, summary.FemaleCompleted)
	assert.Equal(t, cleaner.Exclusions{Completed: 2}, summary.Exclusions)

	data, err := os.ReadFile(summary.Path)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Program Name,Completed\nBo,b@x,Data Science (Male),No\n", string(data))
}

func TestCleaningService_CleanArchive_XLSX(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	summary, err := f.service.CleanArchive(context.Background(), CleanRequest{
		Archive: bytes.NewReader(testutil.SampleReportZip(t)),
		Mode:    cleaner.ModeCompleted,
		Format:  exporter.FormatXLSX,
	})
	require.NoError(t, err)

	assert.Equal(t, "specialization-report-cleaned-yes.xlsx", summary.FileName)
	assert.FileExists(t, summary.Path)
}

func TestCleaningService_CleanArchive_Errors(t *testing.T) {
	tests := []struct {
		name     string
		archive  func(t *testing.T) []byte
		mode     cleaner.Mode
		limits   files.ExtractLimits
		wantType apperrors.ErrorType
	}{
		{
			name:     "not a zip",
			archive:  func(*testing.T) []byte { return []byte("plain text") },
			mode:     cleaner.ModeCompleted,
			wantType: apperrors.ErrTypeInput,
		},
		{
			name: "no report in archive",
			archive: func(t *testing.T) []byte {
				return testutil.BuildZip(t, testutil.ZipEntry{Name: "enrollment-report.csv", Body: "Completed\nyes\n"})
			},
			mode:     cleaner.ModeCompleted,
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name: "zip slip",
			archive: func(t *testing.T) []byte {
				return testutil.BuildZip(t, testutil.ZipEntry{Name: "../specialization-report.csv", Body: "Completed\nyes\n"})
			},
			mode:     cleaner.ModeCompleted,
			wantType: apperrors.ErrTypeInput,
		},
		{
			name: "too many entries",
			archive: func(t *testing.T) []byte {
				return testutil.BuildZip(t,
					testutil.ZipEntry{Name: "a.txt", Body: "a"},
					testutil.ZipEntry{Name: "specialization-report.csv", Body: "Completed\nyes\n"},
				)
			},
			mode:     cleaner.ModeCompleted,
			limits:   files.ExtractLimits{MaxEntries: 1},
			wantType: apperrors.ErrTypeTooLarge,
		},
		{
			name: "missing completed column",
			archive: func(t *testing.T) []byte {
				return testutil.BuildZip(t, testutil.ZipEntry{Name: "specialization-report.csv", Body: "Name,Email\nAna,a@x\n"})
			},
			mode:     cleaner.ModeCompleted,
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "row longer than header",
			archive: func(t *testing.T) []byte {
				return testutil.BuildZip(t, testutil.ZipEntry{Name: "specialization-report.csv", Body: "Name,Completed\nAna,yes,extra\n"})
			},
			mode:     cleaner.ModeCompleted,
			wantType: apperrors.ErrTypeInput,
		},
		{
			name: "empty report",
			archive: func(t *testing.T) []byte {
				return testutil.BuildZip(t, testutil.ZipEntry{Name: "specialization-report.csv"})
			},
			mode:     cleaner.ModeNotCompleted,
			wantType: apperrors.ErrTypeInput,
		},
		{
			name:     "invalid mode",
			archive:  func(t *testing.T) []byte { return testutil.SampleReportZip(t) },
			mode:     cleaner.Mode("maybe"),
			wantType: apperrors.ErrTypeInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, tt.limits)

			summary, err := f.service.CleanArchive(context.Background(), CleanRequest{
				Archive: bytes.NewReader(tt.archive(t)),
				Mode:    tt.mode,
			})
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))

			f.assertWorkspaceRemoved(t)
			assert.Equal(t, map[string]int64{"input_error": 1}, f.cleanings(t))

			entries, err := os.ReadDir(f.store.Root())
			require.NoError(t, err)
			assert.Empty(t, entries, "failed runs leave no output")
		})
	}
}

func TestCleaningService_CleanArchive_NoArchive(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	_, err := f.service.CleanArchive(context.Background(), CleanRequest{Mode: cleaner.ModeCompleted})
	assert.Equal(t, apperrors.ErrTypeInput, apperrors.TypeOf(err))
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestCleaningService_CleanArchive_Canceled(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.CleanArchive(ctx, CleanRequest{
		Archive: bytes.NewReader(testutil.SampleReportZip(t)),
		Mode:    cleaner.ModeCompleted,
	})
	assert.ErrorIs(t, err, context.Canceled)
	f.assertWorkspaceRemoved(t)
	assert.Equal(t, map[string]int64{"error": 1}, f.cleanings(t))
}

func TestCleaningService_CleanCSV(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	summary, err := f.service.CleanCSV(context.Background(),
		strings.NewReader("\xEF\xBB\xBF"+testutil.SampleReportCSV), "report.csv", cleaner.ModeCompleted, "")
	require.NoError(t, err)

	assert.Equal(t, "report.csv", summary.SourceFile)
	assert.Equal(t, exporter.FormatCSV, summary.Format)
	assert.Equal(t, 1, summary.OutputRows)
}

func TestCleaningService_CleanCSV_StrayQuotes(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	summary, err := f.service.CleanCSV(context.Background(),
		strings.NewReader("Name,Email,Completed\nJohn \"JJ\" Doe,a@x,Yes\n"), "report.csv", cleaner.ModeCompleted, exporter.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OutputRows)

	data, err := os.ReadFile(summary.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"John ""JJ"" Doe",a@x,Yes`)
}

func TestCleaningService_CleanFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "specialization-report.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testutil.SampleReportCSV), 0644))
	zipPath := testutil.WriteZip(t, dir, "export.zip",
		testutil.ZipEntry{Name: "specialization-report.csv", Body: testutil.SampleReportCSV})
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0644))

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
		wantSrc  string
	}{
		{name: "csv", path: csvPath, wantSrc: "specialization-report.csv"},
		{name: "zip", path: zipPath, wantSrc: "specialization-report.csv"},
		{name: "unsupported extension", path: txtPath, wantType: apperrors.ErrTypeInput},
		{name: "missing file", path: filepath.Join(dir, "absent.zip"), wantType: apperrors.ErrTypeInput},
		{name: "empty path", wantType: apperrors.ErrTypeInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, files.ExtractLimits{})

			summary, err := f.service.CleanFile(context.Background(), tt.path, cleaner.ModeCompleted, exporter.FormatCSV)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSrc, summary.SourceFile)
			assert.Equal(t, 1, *summary.FemaleCompleted)
		})
	}
}

func TestCleaningService_OutputPath_NotFound(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	_, err := f.service.OutputPath(files.NewJobID(), "specialization-report-cleaned-yes.csv")
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))

	_, err = f.service.OutputPath("../../etc", "passwd")
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
}

func TestCleaningService_ReapOutputs(t *testing.T) {
	f := newServiceFixture(t, files.ExtractLimits{})

	summary, err := f.service.CleanCSV(context.Background(),
		strings.NewReader(testutil.SampleReportCSV), "report.csv", cleaner.ModeCompleted, exporter.FormatCSV)
	require.NoError(t, err)

	removed, err := f.service.ReapOutputs(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Dir(summary.Path), old, old))

	removed, err = f.service.ReapOutputs(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, summary.Path)
}
