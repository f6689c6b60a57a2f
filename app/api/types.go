package api

import (
	"time"

	"github.com/pagecast/pagecast/app/database"
)

type createJobRequest struct {
	SourceURL       string   `json:"source_url" binding:"required"`
	Mode            string   `json:"mode"`
	Format          string   `json:"format"`
	Limit           int      `json:"limit"`
	RefreshInterval int      `json:"refresh_interval"`
	IncludeKeywords []string `json:"include_keywords"`
	ExcludeKeywords []string `json:"exclude_keywords"`
	AllowEmpty      bool     `json:"allow_empty"`
	ExtractContent  bool     `json:"extract_content"`
}

type updateFiltersRequest struct {
	IncludeKeywords []string `json:"include_keywords"`
	ExcludeKeywords []string `json:"exclude_keywords"`
}

type extractRequest struct {
	HTML      string   `json:"html" binding:"required"`
	SourceURL string   `json:"source_url" binding:"required"`
	Limit     int      `json:"limit"`
	Selectors []string `json:"selectors"`
}

type jobResponse struct {
	ID                string                `json:"id"`
	SourceURL         string                `json:"source_url"`
	FeedURL           string                `json:"feed_url"`
	FeedFilename      string                `json:"feed_filename"`
	Mode              string                `json:"mode"`
	Format            string                `json:"format"`
	Limit             int                   `json:"limit"`
	RefreshInterval   int                   `json:"refresh_interval"`
	IncludeKeywords   []string              `json:"include_keywords"`
	ExcludeKeywords   []string              `json:"exclude_keywords"`
	AllowEmpty        bool                  `json:"allow_empty"`
	ExtractContent    bool                  `json:"extract_content"`
	LastRefreshAt     *time.Time            `json:"last_refresh_at,omitempty"`
	LastRefreshStatus string                `json:"last_refresh_status,omitempty"`
	LastRefreshError  string                `json:"last_refresh_error,omitempty"`
	LastRefreshCode   int                   `json:"last_refresh_code,omitempty"`
	ItemsCount        int                   `json:"items_count"`
	FailureStreak     int                   `json:"failure_streak"`
	LastValidation    *database.Validation  `json:"last_validation,omitempty"`
	Diagnostics       *database.Diagnostics `json:"diagnostics,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func toJobResponse(job database.Job) jobResponse {
	return jobResponse{
		ID:                job.ID,
		SourceURL:         job.SourceURL,
		FeedURL:           job.FeedURL,
		FeedFilename:      job.FeedFilename,
		Mode:              job.Mode,
		Format:            job.Format,
		Limit:             job.Limit,
		RefreshInterval:   job.RefreshInterval,
		IncludeKeywords:   job.IncludeKeywords,
		ExcludeKeywords:   job.ExcludeKeywords,
		AllowEmpty:        job.AllowEmpty,
		ExtractContent:    job.ExtractContent,
		LastRefreshAt:     job.LastRefreshAt,
		LastRefreshStatus: job.LastRefreshStatus,
		LastRefreshError:  job.LastRefreshError,
		LastRefreshCode:   job.LastRefreshCode,
		ItemsCount:        job.ItemsCount,
		FailureStreak:     job.FailureStreak,
		LastValidation:    job.LastValidation,
		Diagnostics:       job.Diagnostics,
		CreatedAt:         job.CreatedAt,
		UpdatedAt:         job.UpdatedAt,
	}
}
