package database

import "time"

const (
	ModeNative = "native"
	ModeCustom = "custom"
)

const (
	StatusOK   = "ok"
	StatusFail = "fail"
	StatusSkip = "skip"
)

// Job is the durable record of a recurring feed-generation unit.
type Job struct {
	ID              string
	SourceURL       string
	FeedURL         string
	FeedFilename    string
	Mode            string // "native" | "custom"
	Format          string // "rss" | "jsonfeed"
	Limit           int
	RefreshInterval int // seconds
	IncludeKeywords []string
	ExcludeKeywords []string
	AllowEmpty      bool
	ExtractContent  bool

	LastRefreshAt     *time.Time
	LastRefreshStatus string
	LastRefreshError  string
	LastRefreshCode   int
	ItemsCount        int
	FailureStreak     int
	LastValidation    *Validation
	Diagnostics       *Diagnostics

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validation mirrors the validator outcome of the last publish.
type Validation struct {
	OK        bool      `json:"ok"`
	Warnings  []string  `json:"warnings,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Diagnostics captures the failure context of the last refresh.
type Diagnostics struct {
	Error      string    `json:"error,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Note       string    `json:"note,omitempty"`
	Details    string    `json:"details,omitempty"`
}

// Due reports whether the job should be refreshed at now.
func (j *Job) Due(now time.Time) bool {
	if j.LastRefreshAt == nil {
		return true
	}
	return !now.Before(j.LastRefreshAt.Add(time.Duration(j.RefreshInterval) * time.Second))
}
