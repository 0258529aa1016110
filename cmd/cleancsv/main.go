// Command cleancsv cleans specialization report exports offline.
//
//	cleancsv -in export.zip -mode yes [-out dir] [-format csv|xlsx] [-open]
//
// Further inputs may follow the flags; they are cleaned concurrently. One
// JSON summary line is printed per cleaned input and the exit status is 1
// if any input fails.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"reportclean/internal/cleaner"
	"reportclean/internal/config"
	"reportclean/internal/desktop"
	"reportclean/internal/exporter"
	"reportclean/internal/files"
	"reportclean/internal/infrastructure"
	"reportclean/internal/services"
	"reportclean/pkg/contracts"
	api "reportclean/pkg/contracts/api/v1"
)

// summary is the JSON line printed for each cleaned input
type summary struct {
	Input           string         `json:"input"`
	Output          string         `json:"output"`
	JobID           string         `json:"job_id"`
	SourceFile      string         `json:"source_file"`
	CompletedFilter string         `json:"completed_filter"`
	Format          string         `json:"format"`
	RowsBefore      int            `json:"rows_before_cleaning"`
	RowsAfter       int            `json:"rows_after_cleaning"`
	MaleCompleted   *int           `json:"male_completed"`
	FemaleCompleted *int           `json:"female_completed"`
	Exclusions      api.Exclusions `json:"exclusions"`
}

// opener is satisfied by desktop.Opener
type opener interface {
	Open(path string) error
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run executes the command and returns the exit status. A nil open uses the
// desktop opener.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, open opener) int {
	fs := flag.NewFlagSet("cleancsv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "specialization report export (.zip or .csv)")
	modeFlag := fs.String("mode", string(cleaner.DefaultMode), "yes (completed) | no (not completed)")
	out := fs.String("out", ".", "directory the cleaned report is written under")
	formatFlag := fs.String("format", string(exporter.DefaultFormat), "csv | xlsx")
	workDir := fs.String("work", os.TempDir(), "scratch directory for archive extraction")
	openResult := fs.Bool("open", false, "open the cleaned report in the default application")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetVersionInfo())
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	cfg.Logging.Output = "console"
	logger, _, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "cleancsv: %v\n", err)
		return 1
	}

	inputs := fs.Args()
	if *in != "" {
		inputs = append([]string{*in}, inputs...)
	}
	if len(inputs) == 0 {
		fmt.Fprintln(stderr, "cleancsv: -in is required")
		fs.Usage()
		return 2
	}

	mode, err := cleaner.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintf(stderr, "cleancsv: %v\n", err)
		return 1
	}
	format, err := exporter.ParseFormat(*formatFlag)
	if err != nil {
		fmt.Fprintf(stderr, "cleancsv: %v\n", err)
		return 1
	}

	store, err := files.NewOutputStore(*out, logger)
	if err != nil {
		fmt.Fprintf(stderr, "cleancsv: %v\n", err)
		return 1
	}

	service := services.NewCleaningService(services.CleaningConfig{
		WorkDir: *workDir,
		Limits: files.ExtractLimits{
			MaxEntries: cfg.Upload.MaxEntries,
			MaxBytes:   cfg.Upload.MaxExtractedBytes,
		},
		ExcelBOM: cfg.Output.ExcelBOM,
	}, store, nil, nil, logger)

	if open == nil {
		open = desktop.NewOpener(logger)
	}

	var (
		mu     sync.Mutex
		failed bool
		enc    = json.NewEncoder(stdout)
	)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, input := range inputs {
		g.Go(func() error {
			ctx := infrastructure.EnsureTraceID(ctx)
			result, err := service.CleanFile(ctx, input, mode, format)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = true
				logger.ErrorContext(ctx, "Cleaning failed",
					slog.String("input", input),
					slog.String("error", err.Error()))
				return nil
			}
			if err := enc.Encode(toSummary(input, result)); err != nil {
				failed = true
				return nil
			}

			if *openResult {
				// best effort; never changes the exit status
				if err := open.Open(result.Path); err != nil {
					logger.WarnContext(ctx, "Could not open cleaned report",
						slog.String("path", result.Path),
						slog.String("error", err.Error()))
				}
			}
			return nil
		})
	}
	g.Wait()

	if failed {
		return 1
	}
	return 0
}

func toSummary(input string, s *services.CleanSummary) summary {
	return summary{
		Input:           input,
		Output:          s.Path,
		JobID:           s.JobID,
		SourceFile:      s.SourceFile,
		CompletedFilter: s.Mode.String(),
		Format:          string(s.Format),
		RowsBefore:      s.InputRows,
		RowsAfter:       s.OutputRows,
		MaleCompleted:   s.MaleCompleted,
		FemaleCompleted: s.FemaleCompleted,
		Exclusions: api.Exclusions{
			RemovedFromProgram: s.Exclusions.RemovedFromProgram,
			NotCompleted:       s.Exclusions.NotCompleted,
			Completed:          s.Exclusions.Completed,
			CompletedElsewhere: s.Exclusions.CompletedElsewhere,
			DuplicateEmail:     s.Exclusions.DuplicateEmail,
		},
	}
}
