package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/discovr.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	InboxDir          string `long:"inbox-dir" env:"INBOX_DIR" default:"./inbox" description:"Directory scrapers drop candidate batches into, one subdirectory per source"`
	CitiesFile        string `long:"cities-file" env:"CITIES_FILE" description:"YAML file replacing the built-in city, region and source tables (optional)"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://ingest.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for batch ingestion"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Ingestion tuning
	MinTitleLength   int `long:"min-title-length" env:"MIN_TITLE_LENGTH" default:"10" description:"Titles shorter than this are rejected as junk"`
	MaxTitleLength   int `long:"max-title-length" env:"MAX_TITLE_LENGTH" default:"250" description:"Titles longer than this are rejected as junk"`
	PastWindowDays   int `long:"past-window-days" env:"PAST_WINDOW_DAYS" default:"365" description:"Oldest accepted start date, in days before now"`
	FutureWindowDays int `long:"future-window-days" env:"FUTURE_WINDOW_DAYS" default:"730" description:"Latest accepted start date, in days after now"`
	RejectSampleSize int `long:"reject-sample-size" env:"REJECT_SAMPLE_SIZE" default:"50" description:"Rejected records kept per batch for inspection"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/Toronto)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SourcesDir:        raw.SourcesDir,
		InboxDir:          raw.InboxDir,
		CitiesFile:        raw.CitiesFile,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		MinTitleLength:    raw.MinTitleLength,
		MaxTitleLength:    raw.MaxTitleLength,
		PastWindowDays:    raw.PastWindowDays,
		FutureWindowDays:  raw.FutureWindowDays,
		RejectSampleSize:  raw.RejectSampleSize,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	positiveFields := map[string]int{
		"worker count":       c.WorkerCount,
		"scheduler interval": c.SchedulerInterval,
		"min title length":   c.MinTitleLength,
		"max title length":   c.MaxTitleLength,
		"past window days":   c.PastWindowDays,
		"future window days": c.FutureWindowDays,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if c.MinTitleLength > c.MaxTitleLength {
		return fmt.Errorf("min title length %d exceeds max title length %d", c.MinTitleLength, c.MaxTitleLength)
	}
	if c.RejectSampleSize < 0 {
		return fmt.Errorf("reject sample size must be non-negative")
	}

	return nil
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
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
