package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	InboxDir          string
	CitiesFile        string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Ingestion tuning
	MinTitleLength   int
	MaxTitleLength   int
	PastWindowDays   int
	FutureWindowDays int
	RejectSampleSize int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
