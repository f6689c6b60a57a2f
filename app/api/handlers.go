package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagecast/pagecast/app/cfg"
	"github.com/pagecast/pagecast/app/database"
	"github.com/pagecast/pagecast/app/extract"
	"github.com/pagecast/pagecast/app/feed"
	"github.com/pagecast/pagecast/app/refresh"
)

type Handler struct {
	jobRepo   database.JobRepository
	refresher *refresh.Refresher
	runLog    *refresh.RunLog
	dataDir   string
}

func NewHandler(jobRepo database.JobRepository, refresher *refresh.Refresher, runLog *refresh.RunLog, dataDir string) *Handler {
	return &Handler{
		jobRepo:   jobRepo,
		refresher: refresher,
		runLog:    runLog,
		dataDir:   dataDir,
	}
}

func (h *Handler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	parsed, err := url.Parse(req.SourceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_url must be an absolute http(s) URL"})
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = database.ModeCustom
	}
	if mode != database.ModeCustom && mode != database.ModeNative {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'custom' or 'native'"})
		return
	}

	format := feed.Format(req.Format)
	if req.Format == "" {
		format = feed.FormatRSS
	}
	if !format.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be 'rss' or 'jsonfeed'"})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = extract.DefaultLimit
	}

	interval := req.RefreshInterval
	if interval <= 0 {
		interval = 3600
	}

	job := database.Job{
		ID:              uuid.NewString(),
		SourceURL:       req.SourceURL,
		Mode:            mode,
		Format:          string(format),
		Limit:           limit,
		RefreshInterval: interval,
		IncludeKeywords: req.IncludeKeywords,
		ExcludeKeywords: req.ExcludeKeywords,
		AllowEmpty:      req.AllowEmpty,
		ExtractContent:  req.ExtractContent,
	}
	job.FeedFilename = job.ID + format.Extension()
	job.FeedURL = publicFeedURL(job.FeedFilename)

	if err := h.jobRepo.CreateJob(&job); err != nil {
		slog.Error("Failed to create job", "source_url", req.SourceURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	// First refresh runs synchronously so the caller gets a published
	// feed (or a recorded failure) immediately.
	h.refresher.RefreshJob(c.Request.Context(), job)

	created, err := h.jobRepo.GetJob(job.ID)
	if err != nil || created == nil {
		slog.Error("Failed to reload created job", "job", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created job"})
		return
	}

	c.JSON(http.StatusCreated, toJobResponse(*created))
}

func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.jobRepo.ListJobs()
	if err != nil {
		slog.Error("Failed to list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}

	c.JSON(http.StatusOK, gin.H{"jobs": out, "total": len(out)})
}

func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toJobResponse(*job))
}

func (h *Handler) UpdateFilters(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	var req updateFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.jobRepo.UpdateFilters(job.ID, req.IncludeKeywords, req.ExcludeKeywords); err != nil {
		slog.Error("Failed to update filters", "job", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update filters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RefreshJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	state := h.refresher.RefreshJob(c.Request.Context(), *job)

	c.JSON(http.StatusOK, gin.H{
		"success": state != refresh.StateFail,
		"state":   string(state),
	})
}

func (h *Handler) DeleteJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	if err := h.jobRepo.DeleteJob(job.ID); err != nil {
		slog.Error("Failed to delete job", "job", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}

	// The published artifact goes with the job record.
	if err := os.Remove(filepath.Join(h.dataDir, job.FeedFilename)); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove feed file", "job", job.ID, "file", job.FeedFilename, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetFeed serves the published feed artifact with the format's content
// type. Consumers always get the last successfully generated feed.
func (h *Handler) GetFeed(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))

	job, err := h.jobRepo.GetJobByFilename(filename)
	if err != nil {
		slog.Error("Database error", "operation", "get_job_by_filename", "file", filename, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if job == nil {
		c.Status(http.StatusNotFound)
		return
	}

	content, err := os.ReadFile(filepath.Join(h.dataDir, filename))
	if os.IsNotExist(err) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to read feed file", "file", filename, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Items-Count", strconv.Itoa(job.ItemsCount))
	if job.LastRefreshAt != nil {
		c.Header("X-Last-Refreshed", job.LastRefreshAt.Format(time.RFC3339))
	}
	c.Data(http.StatusOK, feed.Format(job.Format).ContentType(), content)
}

// Extract runs the extraction pipeline against caller-supplied HTML,
// for selector-testing tooling. Optional CSS selectors are tried
// before the built-in structural queries.
func (h *Handler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	items := extract.ExtractItems([]byte(req.HTML), req.SourceURL, req.Limit, req.Selectors...)
	discovered := extract.Discover([]byte(req.HTML), req.SourceURL)

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"discovered": discovered,
		"total":      len(items),
	})
}

// GetRunLog exposes the plain-text refresh run log for download.
func (h *Handler) GetRunLog(c *gin.Context) {
	content, err := os.ReadFile(h.runLog.Path())
	if os.IsNotExist(err) {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", nil)
		return
	}
	if err != nil {
		slog.Error("Failed to read run log", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="refresh.log"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if count, err := h.jobRepo.CountJobs(); err == nil {
		health["jobs"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) loadJob(c *gin.Context) (*database.Job, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing job id"})
		return nil, false
	}

	job, err := h.jobRepo.GetJob(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_job", "job", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return nil, false
	}

	return job, true
}

func publicFeedURL(filename string) string {
	appCfg := cfg.Get()
	if appCfg.BaseUrl != "" {
		return strings.TrimSuffix(appCfg.BaseUrl, "/") + "/feeds/" + filename
	}
	return "http://localhost:" + appCfg.Port + "/feeds/" + filename
}
