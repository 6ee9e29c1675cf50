package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/match-features/internal/domain/reference"
	"github.com/riskibarqy/match-features/internal/infrastructure/csvstore"
	"github.com/riskibarqy/match-features/internal/platform/logging"
	"github.com/riskibarqy/match-features/internal/platform/table"
	"go.opentelemetry.io/otel/attribute"
)

const (
	FileEnriched = "enriched"
	FileSkipped  = "skipped"
	FileFailed   = "failed"
)

// ReferenceLoader builds the side tables for one run.
type ReferenceLoader interface {
	Load(ctx context.Context) reference.Set
}

// FeatureSink mirrors an enriched match table somewhere besides the CSV
// file. ReplaceDataset swaps every stored row of dataset for t.
type FeatureSink interface {
	ReplaceDataset(ctx context.Context, dataset string, t *table.Table) error
}

type RunnerConfig struct {
	DataDir    string
	MatchFiles []string
	MaxWorkers int
	ReportPath string
}

type RunReport struct {
	StartedAt     time.Time     `json:"started_at"`
	DurationMs    int64         `json:"duration_ms"`
	WorkerCount   int           `json:"worker_count"`
	EnrichedCount int           `json:"enriched_count"`
	SkippedCount  int           `json:"skipped_count"`
	FailedCount   int           `json:"failed_count"`
	Sources       []SourceState `json:"sources"`
	Files         []FileOutcome `json:"files"`
}

type SourceState struct {
	Source  string `json:"source"`
	Present bool   `json:"present"`
	Rows    int    `json:"rows"`
	Reason  string `json:"reason,omitempty"`
}

type FileOutcome struct {
	Path       string       `json:"path"`
	Dataset    string       `json:"dataset"`
	Status     string       `json:"status"`
	Rows       int          `json:"rows"`
	DurationMs int64        `json:"duration_ms"`
	Message    string       `json:"message,omitempty"`
	Steps      []StepResult `json:"steps,omitempty"`

	// fatal marks output or sink failures; unreadable inputs are not fatal.
	fatal error
}

// Runner enriches every configured match file against one shared set of
// reference tables.
type Runner struct {
	cfg      RunnerConfig
	loader   ReferenceLoader
	defaults DefaultTable
	sink     FeatureSink
	logger   *logging.Logger
}

// NewRunner wires a run. sink may be nil.
func NewRunner(cfg RunnerConfig, loader ReferenceLoader, defaults DefaultTable, sink FeatureSink, logger *logging.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		loader:   loader,
		defaults: defaults,
		sink:     sink,
		logger:   logger,
	}
}

// Run returns an error only when an enriched table could not be written to
// its file or to the sink. Missing and unreadable match files are reported
// per file.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	ctx, span := startRunSpan(ctx, "usecase.Runner.Run", attribute.Int("match_files", len(r.cfg.MatchFiles)))
	defer span.End()

	started := time.Now()
	report := RunReport{StartedAt: started.UTC()}
	if r.loader == nil {
		return report, fmt.Errorf("%w: reference loader is not configured", ErrDependencyUnavailable)
	}

	refs := r.loader.Load(ctx)
	report.Sources = sourceStates(refs)
	enricher := NewEnricher(refs, r.defaults, r.logger)

	paths := r.matchPaths()
	workerCount := normalizeWorkerCount(r.cfg.MaxWorkers, len(paths))
	report.WorkerCount = workerCount
	report.Files = make([]FileOutcome, len(paths))

	if len(paths) > 0 {
		pool, err := ants.NewPool(workerCount)
		if err != nil {
			return report, fmt.Errorf("create worker pool: %w", err)
		}
		defer pool.Release()

		var workers sync.WaitGroup
		var enriched, skipped, failed atomic.Int32
		for i, path := range paths {
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()

				outcome := r.enrichFile(ctx, enricher, path)
				switch outcome.Status {
				case FileEnriched:
					enriched.Add(1)
				case FileSkipped:
					skipped.Add(1)
				default:
					failed.Add(1)
				}
				report.Files[i] = outcome
			}); err != nil {
				workers.Done()
				return report, fmt.Errorf("submit task to worker pool: %w", err)
			}
		}
		workers.Wait()

		report.EnrichedCount = int(enriched.Load())
		report.SkippedCount = int(skipped.Load())
		report.FailedCount = int(failed.Load())
	}
	report.DurationMs = time.Since(started).Milliseconds()

	var fatal []error
	for _, f := range report.Files {
		if f.fatal != nil {
			fatal = append(fatal, f.fatal)
		}
	}

	if strings.TrimSpace(r.cfg.ReportPath) != "" {
		if err := writeReport(r.cfg.ReportPath, report); err != nil {
			fatal = append(fatal, err)
		}
	}

	r.logger.InfoContext(ctx, "enrichment run finished",
		"enriched", report.EnrichedCount,
		"skipped", report.SkippedCount,
		"failed", report.FailedCount,
		"duration", time.Since(started),
	)

	if len(fatal) > 0 {
		span.RecordError(fatal[0])
		return report, crerr.Wrapf(fatal[0], "%d of %d outputs could not be written", len(fatal), len(paths))
	}
	return report, nil
}

func (r *Runner) matchPaths() []string {
	out := make([]string, 0, len(r.cfg.MatchFiles))
	seen := make(map[string]struct{}, len(r.cfg.MatchFiles))
	for _, name := range r.cfg.MatchFiles {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(r.cfg.DataDir, name)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (r *Runner) enrichFile(ctx context.Context, enricher *Enricher, path string) FileOutcome {
	ctx, span := startStepSpan(ctx, "usecase.Runner.enrichFile", attribute.String("path", path))
	defer span.End()

	start := time.Now()
	outcome := FileOutcome{Path: path, Dataset: DatasetName(path)}
	finish := func(status, message string) FileOutcome {
		outcome.Status = status
		outcome.Message = message
		outcome.DurationMs = time.Since(start).Milliseconds()
		return outcome
	}

	in, err := csvstore.Read(path)
	if err != nil {
		if csvstore.IsNotExist(err) {
			r.logger.InfoContext(ctx, "match table skipped", "path", path, "reason", reference.ReasonNotFound)
			return finish(FileSkipped, ErrMissingRequiredInput.Error())
		}
		err = fmt.Errorf("%w: %v", ErrUnreadableInput, err)
		r.logger.ErrorContext(ctx, "match table unreadable", "path", path, "error", err)
		return finish(FileFailed, err.Error())
	}

	out, steps, err := enricher.Enrich(ctx, in)
	if err != nil {
		r.logger.ErrorContext(ctx, "match table enrichment failed", "path", path, "error", err)
		return finish(FileFailed, err.Error())
	}
	outcome.Steps = steps.Steps
	outcome.Rows = out.Len()

	if err := csvstore.Write(path, out); err != nil {
		outcome.fatal = err
		r.logger.ErrorContext(ctx, "match table write failed", "path", path, "error", err)
		return finish(FileFailed, err.Error())
	}

	if r.sink != nil {
		if err := r.sink.ReplaceDataset(ctx, outcome.Dataset, out); err != nil {
			outcome.fatal = crerr.Wrapf(err, "mirror %s to feature store", outcome.Dataset)
			r.logger.ErrorContext(ctx, "feature store mirror failed", "dataset", outcome.Dataset, "error", err)
			return finish(FileFailed, err.Error())
		}
	}

	r.logger.InfoContext(ctx, "match table enriched",
		"path", path,
		"rows", out.Len(),
		"duration", time.Since(start),
	)
	return finish(FileEnriched, "")
}

// DatasetName is the file name without its extension.
func DatasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sourceStates(refs reference.Set) []SourceState {
	schemas := reference.Schemas()
	out := make([]SourceState, 0, len(schemas))
	for _, schema := range schemas {
		opt := refs.Get(schema.Kind)
		out = append(out, SourceState{
			Source:  string(schema.Kind),
			Present: opt.Present(),
			Rows:    opt.Table().Len(),
			Reason:  opt.Reason(),
		})
	}
	return out
}

func writeReport(path string, report RunReport) error {
	raw, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return crerr.Wrap(err, "encode run report")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return crerr.Wrapf(err, "create report dir %s", dir)
		}
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return crerr.Wrapf(err, "write run report %s", path)
	}
	return nil
}

func normalizeWorkerCount(requested, tasks int) int {
	if requested <= 0 {
		requested = 1
	}
	if tasks > 0 && requested > tasks {
		return tasks
	}
	return requested
}
