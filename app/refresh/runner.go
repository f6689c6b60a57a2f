package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagecast/pagecast/app/database"
)

// Summary of one batch run, recorded in the run log for operator
// visibility.
type Summary struct {
	Jobs     int
	OK       int
	Fail     int
	Skip     int
	Duration time.Duration
}

// Runner processes jobs due for refresh, oldest-due first, up to a
// per-run cap. Jobs are refreshed sequentially within a run; run
// duration stays predictable on constrained hosts.
type Runner struct {
	jobRepo   database.JobRepository
	refresher *Refresher
	runLog    *RunLog
	maxPerRun int
}

func NewRunner(jobRepo database.JobRepository, refresher *Refresher, runLog *RunLog, maxPerRun int) *Runner {
	if maxPerRun <= 0 {
		maxPerRun = 25
	}
	return &Runner{
		jobRepo:   jobRepo,
		refresher: refresher,
		runLog:    runLog,
		maxPerRun: maxPerRun,
	}
}

// Run executes one batch refresh pass.
func (r *Runner) Run(ctx context.Context) Summary {
	started := time.Now()

	jobs, err := r.jobRepo.GetJobsDueForRefresh(started.UTC(), r.maxPerRun)
	if err != nil {
		slog.Error("Failed to load due jobs", "error", err)
		return Summary{Duration: time.Since(started)}
	}

	summary := Summary{Jobs: len(jobs)}
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			slog.Warn("Refresh run interrupted", "remaining", summary.Jobs-summary.OK-summary.Fail-summary.Skip)
			summary.Duration = time.Since(started)
			r.logRun(started, summary)
			return summary
		default:
		}

		switch r.refresher.RefreshJob(ctx, job) {
		case StateOK:
			summary.OK++
		case StateSkip:
			summary.Skip++
		default:
			summary.Fail++
		}
	}

	summary.Duration = time.Since(started)

	if summary.Jobs > 0 {
		slog.Info("Refresh run completed",
			"jobs", summary.Jobs,
			"ok", summary.OK,
			"fail", summary.Fail,
			"skip", summary.Skip,
			"duration", summary.Duration)
		r.logRun(started, summary)
	}

	return summary
}

func (r *Runner) logRun(started time.Time, summary Summary) {
	if r.runLog == nil {
		return
	}

	line := fmt.Sprintf("%s jobs=%d ok=%d fail=%d skip=%d duration=%s",
		started.UTC().Format(time.RFC3339), summary.Jobs, summary.OK, summary.Fail,
		summary.Skip, summary.Duration.Round(time.Millisecond))

	if err := r.runLog.Append(line); err != nil {
		slog.Error("Failed to write run log", "error", err)
	}
}
