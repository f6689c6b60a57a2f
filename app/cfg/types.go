package cfg

type Cfg struct {
	// Storage paths
	DataDir   string
	CacheDir  string
	DBPath    string
	HostsFile string
	RunLog    string

	// HTTP server configuration
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Fetch configuration
	UserAgent      string
	Timeout        int
	ConnectTimeout int
	MaxRedirects   int
	CacheTTL       int

	// Refresh configuration
	SchedulerInterval int
	MaxJobsPerRun     int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
