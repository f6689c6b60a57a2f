package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage paths
	DataDir   string `long:"data-dir" env:"DATA_DIR" default:"./data/feeds" description:"Directory where published feed files are written"`
	CacheDir  string `long:"cache-dir" env:"CACHE_DIR" default:"./data/cache" description:"Directory for the conditional HTTP cache"`
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./data/pagecast.db" description:"Path to the SQLite job database"`
	HostsFile string `long:"hosts-file" env:"HOSTS_FILE" default:"" description:"Optional YAML file with per-host overrides and allow-empty hosts"`
	RunLog    string `long:"run-log" env:"RUN_LOG" default:"./data/refresh.log" description:"Path to the plain-text refresh run log"`

	// HTTP server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Fetch configuration
	UserAgent      string `long:"user-agent" env:"USER_AGENT" default:"Pagecast/1.0" description:"User agent string for HTTP requests"`
	Timeout        int    `long:"timeout" env:"HTTP_TIMEOUT" default:"20" description:"HTTP request timeout in seconds"`
	ConnectTimeout int    `long:"connect-timeout" env:"HTTP_CONNECT_TIMEOUT" default:"10" description:"HTTP connect timeout in seconds"`
	MaxRedirects   int    `long:"max-redirects" env:"HTTP_MAX_REDIRECTS" default:"5" description:"Maximum number of redirects to follow"`
	CacheTTL       int    `long:"cache-ttl" env:"CACHE_TTL" default:"900" description:"HTTP cache freshness window in seconds"`

	// Refresh configuration
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Refresh scheduler interval in seconds"`
	MaxJobsPerRun     int `long:"max-jobs-per-run" env:"MAX_JOBS_PER_RUN" default:"25" description:"Maximum number of jobs refreshed per scheduler run"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:           raw.DataDir,
		CacheDir:          raw.CacheDir,
		DBPath:            raw.DBPath,
		HostsFile:         raw.HostsFile,
		RunLog:            raw.RunLog,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timeout:           raw.Timeout,
		ConnectTimeout:    raw.ConnectTimeout,
		MaxRedirects:      raw.MaxRedirects,
		CacheTTL:          raw.CacheTTL,
		SchedulerInterval: raw.SchedulerInterval,
		MaxJobsPerRun:     raw.MaxJobsPerRun,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
