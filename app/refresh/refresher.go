package refresh

import (
	"cmp"
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pagecast/pagecast/app/database"
	"github.com/pagecast/pagecast/app/extract"
	"github.com/pagecast/pagecast/app/feed"
	"github.com/pagecast/pagecast/app/hosts"
	"github.com/pagecast/pagecast/app/httpclient"
)

// At most this many item pages are fetched for content enrichment per
// refresh, keeping run duration predictable.
const maxEnrichItems = 10

// Refresher runs a single refresh attempt for one job: fetch, extract
// (or native passthrough), filter, build, validate, atomic publish,
// and job-health bookkeeping. A failed attempt never destroys the
// previously published feed.
type Refresher struct {
	client       *httpclient.Client
	nativeParser *feed.NativeParser
	builder      *feed.Builder
	validator    *feed.Validator
	registry     *hosts.Registry
	jobRepo      database.JobRepository
	dataDir      string
}

func NewRefresher(client *httpclient.Client, registry *hosts.Registry,
	jobRepo database.JobRepository, builder *feed.Builder, dataDir string) *Refresher {
	return &Refresher{
		client:       client,
		nativeParser: feed.NewNativeParser(),
		builder:      builder,
		validator:    feed.NewValidator(),
		registry:     registry,
		jobRepo:      jobRepo,
		dataDir:      dataDir,
	}
}

// RefreshJob executes one attempt and returns the terminal state.
func (r *Refresher) RefreshJob(ctx context.Context, job database.Job) State {
	started := time.Now()
	state := r.run(ctx, job)

	slog.Info("Refresh completed",
		"job", job.ID,
		"mode", job.Mode,
		"state", string(state),
		"duration", time.Since(started))

	return state
}

func (r *Refresher) run(ctx context.Context, job database.Job) State {
	now := time.Now().UTC()

	opts := httpclient.Options{UseCache: true}
	if job.Mode == database.ModeNative {
		opts.Accept = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"
	}

	res := r.client.Get(ctx, job.SourceURL, opts)

	meta, items, parseErr := r.collectItems(job, res)
	if parseErr != "" {
		return r.fail(job, now, res.Status, parseErr)
	}

	filtered := FilterItems(items, job.IncludeKeywords, job.ExcludeKeywords)

	outcome := Evaluate(res, len(filtered), job.AllowEmpty, r.registry.AllowEmpty(job.SourceURL))

	switch outcome.State {
	case StateFail:
		return r.fail(job, now, res.Status, outcome.Note)
	case StateSkip:
		if err := r.jobRepo.RecordSkip(job.ID, now, outcome.Note, outcome.AutoSkip); err != nil {
			slog.Error("Failed to record skip", "job", job.ID, "error", err)
		}
		return StateSkip
	}

	final := extract.Normalize(filtered, job.Limit)

	if job.ExtractContent && job.Mode == database.ModeCustom {
		final = extract.EnrichContent(ctx, r.client, final, min(len(final), maxEnrichItems))
	}

	content, buildErr := r.build(job, meta, final)
	if buildErr != "" {
		return r.fail(job, now, res.Status, buildErr)
	}

	validation := r.validator.Run(feed.Format(job.Format), content)
	if !validation.OK {
		// Total unparsed garbage is the one validator outcome that
		// blocks publication.
		return r.fail(job, now, res.Status, "generated feed failed validation: "+firstWarning(validation))
	}

	if err := Publish(filepath.Join(r.dataDir, job.FeedFilename), content); err != nil {
		return r.fail(job, now, res.Status, err.Error())
	}

	err := r.jobRepo.RecordSuccess(job.ID, now, res.Status, len(final), database.Validation{
		OK:        validation.OK,
		Warnings:  validation.Warnings,
		CheckedAt: validation.CheckedAt,
	})
	if err != nil {
		slog.Error("Failed to record success", "job", job.ID, "error", err)
	}

	return StateOK
}

// collectItems turns a fetch result into channel metadata plus
// candidate items; the third return value is a parse failure message,
// empty on success. Fetch failures are left for Evaluate to classify.
func (r *Refresher) collectItems(job database.Job, res httpclient.FetchResult) (extract.Meta, []extract.Item, string) {
	fallback := extract.Meta{Title: job.SourceURL, Link: job.SourceURL}

	if !res.OK || res.Status < 200 || res.Status >= 400 {
		return fallback, nil, ""
	}

	var meta extract.Meta
	var items []extract.Item

	if job.Mode == database.ModeNative {
		data := r.registry.Apply(job.SourceURL, res.Body)
		parsed, nativeItems, err := r.nativeParser.Run(data, 0)
		if err != nil {
			return fallback, nil, err.Error()
		}
		meta, items = parsed, nativeItems
	} else {
		meta, items = extract.ExtractPage(res.Body, cmp.Or(res.FinalURL, job.SourceURL), extract.Options{Limit: job.Limit})
	}

	meta.Title = cmp.Or(meta.Title, job.SourceURL)
	meta.Link = cmp.Or(meta.Link, job.SourceURL)

	return meta, items, ""
}

func (r *Refresher) build(job database.Job, meta extract.Meta, items []extract.Item) ([]byte, string) {
	if feed.Format(job.Format) == feed.FormatJSONFeed {
		content, err := r.builder.JSONFeed(meta.Title, meta.Link, meta.Description, items, job.FeedURL)
		if err != nil {
			return nil, err.Error()
		}
		return []byte(content), ""
	}

	content := r.builder.RSS(meta.Title, meta.Link, meta.Description, items, job.FeedURL, time.Now())
	return []byte(content), ""
}

func (r *Refresher) fail(job database.Job, now time.Time, status int, message string) State {
	diag := database.Diagnostics{
		Error:      message,
		CapturedAt: now,
		HTTPStatus: status,
	}

	if err := r.jobRepo.RecordFailure(job.ID, now, status, message, diag); err != nil {
		slog.Error("Failed to record failure", "job", job.ID, "error", err)
	}

	slog.Warn("Refresh failed", "job", job.ID, "status", status, "streak", job.FailureStreak+1, "error", message)
	return StateFail
}

func firstWarning(v feed.ValidationResult) string {
	if len(v.Warnings) > 0 {
		return v.Warnings[0]
	}
	return "unknown error"
}
