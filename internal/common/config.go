package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Extraction  ExtractionConfig `toml:"extraction"`
	Timestamp   TimestampConfig  `toml:"timestamp"`
	Imputation  ImputationConfig `toml:"imputation"`
	Emotion     EmotionConfig    `toml:"emotion"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	Output      OutputConfig     `toml:"output"`
	Storage     StorageConfig    `toml:"storage"`
	Fetch       FetchConfig      `toml:"fetch"`
	Schedule    ScheduleConfig   `toml:"schedule"`
	Report      ReportConfig     `toml:"report"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`                                      // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                 // Time format for log lines (default: "15:04:05")
	Dir        string   `toml:"dir"`                                         // Log and crash file directory (default: beside output dir)
}

// ExtractionConfig controls the structural extractor
type ExtractionConfig struct {
	MaxRecords  int    `toml:"max_records" validate:"gte=0"` // Max record blocks per document, 0 = all
	ProfileFile string `toml:"profile_file"`                 // Optional TOML file overriding the default selectors
}

// TimestampConfig controls timestamp normalization
type TimestampConfig struct {
	Format string `toml:"format" validate:"required"` // Go layout of the canonical timestamp
}

// ImputationConfig controls sentiment backfill and the classifier behind it
type ImputationConfig struct {
	Enabled        bool    `toml:"enabled"`                                // Fill missing sentiment from emotion signal
	CorpusPath     string  `toml:"corpus_path"`                            // Labeled corpus (tab-separated, UTF-16 or UTF-8)
	TestFraction   float64 `toml:"test_fraction" validate:"gt=0,lt=1"`     // Held-out share used for the reported score
	Regularization float64 `toml:"regularization" validate:"gt=0"`         // Inverse L2 strength (C)
	MaxIterations  int     `toml:"max_iterations" validate:"gte=1"`        // Optimizer iteration cap
	Tolerance      float64 `toml:"tolerance" validate:"gt=0"`              // Gradient norm at which fitting stops
	Seed           uint64  `toml:"seed"`                                   // Seed for the train/held-out split
}

// EmotionConfig selects the emotion extraction provider
type EmotionConfig struct {
	Provider    string `toml:"provider" validate:"oneof=lexicon gemini claude"` // lexicon (offline), gemini, claude
	LexiconFile string `toml:"lexicon_file"`                                    // Optional YAML lexicon replacing the embedded one
}

// GeminiConfig contains Google Gemini API configuration for the gemini emotion provider
type GeminiConfig struct {
	APIKey    string        `toml:"api_key"`
	Model     string        `toml:"model"`
	Timeout   time.Duration `toml:"timeout"`    // Per-call timeout
	RateLimit time.Duration `toml:"rate_limit"` // Minimum spacing between calls
}

// ClaudeConfig contains Anthropic Claude API configuration for the claude emotion provider
type ClaudeConfig struct {
	APIKey    string        `toml:"api_key"`
	Model     string        `toml:"model"`
	MaxTokens int           `toml:"max_tokens"`
	Timeout   time.Duration `toml:"timeout"`
	RateLimit time.Duration `toml:"rate_limit"`
}

// OutputConfig controls the tabular sink
type OutputConfig struct {
	Dir               string `toml:"dir" validate:"required"`
	Encoding          string `toml:"encoding" validate:"oneof=utf-8 utf-16"`
	IncludeProvenance bool   `toml:"include_provenance"` // Append a Sentiment_Source column
	WriteBoth         bool   `toml:"write_both"`         // Posts: write the unfilled and filled files in one run
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	InMemory       bool   `toml:"in_memory"`        // Keep nothing on disk; path is ignored
	GCOnClose      bool   `toml:"gc_on_close"`      // Reclaim stale value log space on shutdown
}

// FetchConfig drives the headless browser that produces document snapshots
type FetchConfig struct {
	UserAgent      string        `toml:"user_agent"`
	Headless       bool          `toml:"headless"`
	ScrollCount    int           `toml:"scroll_count" validate:"gte=0"` // Max scrolls on an infinite-scroll page
	ScrollWait     time.Duration `toml:"scroll_wait"`                   // Pause between scrolls
	PageWait       time.Duration `toml:"page_wait"`                     // Pause between page loads
	RequestTimeout time.Duration `toml:"request_timeout"`
	PostsURL       string        `toml:"posts_url"`                     // Symbol stream URL, %s = symbol
	ArticlesURL    string        `toml:"articles_url"`                  // Search results URL, %d = page number
	ArticlePages   int           `toml:"article_pages" validate:"gte=1"`
}

// ScheduleConfig contains the cron schedule for the schedule command
type ScheduleConfig struct {
	Cron   string `toml:"cron"`   // Standard 5-field cron expression
	Symbol string `toml:"symbol"` // Symbol fetched and processed on every tick
}

// ReportConfig controls the run report written next to the output
type ReportConfig struct {
	Enabled bool `toml:"enabled"`
	HTML    bool `toml:"html"` // Also render the markdown report to HTML
	PDF     bool `toml:"pdf"`  // Also lay the report out as PDF
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Extraction: ExtractionConfig{
			MaxRecords: 1000,
		},
		Timestamp: TimestampConfig{
			Format: "01/02/2006, 15:04:05",
		},
		Imputation: ImputationConfig{
			Enabled:        true,
			CorpusPath:     "./tweets_database.csv",
			TestFraction:   0.25,
			Regularization: 1.0,
			MaxIterations:  300,
			Tolerance:      1e-4,
			Seed:           42,
		},
		Emotion: EmotionConfig{
			Provider: "lexicon",
		},
		Gemini: GeminiConfig{
			Model:     "gemini-3-flash-preview",
			Timeout:   30 * time.Second,
			RateLimit: 4 * time.Second, // 15 RPM on the free tier
		},
		Claude: ClaudeConfig{
			Model:     "claude-haiku-4-5",
			MaxTokens: 256,
			Timeout:   30 * time.Second,
			RateLimit: time.Second,
		},
		Output: OutputConfig{
			Dir:      "./output",
			Encoding: "utf-16",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:      "./data",
				GCOnClose: true,
			},
		},
		Fetch: FetchConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:       true,
			ScrollCount:    150,
			ScrollWait:     3 * time.Second,
			PageWait:       3 * time.Second,
			RequestTimeout: 10 * time.Minute,
			PostsURL:       "https://stocktwits.com/symbol/%s",
			ArticlesURL:    "https://www.wsj.com/search?query=cryptocurrency&isToggleOn=true&operator=AND&sort=date-desc&duration=4y&source=wsjie%%2Cblog%%2Cinteractivemedia%%2Cwsjsitesrch%%2Cwsjpro%%2Cwsjaudio&page=%d",
			ArticlePages:   1,
		},
		Schedule: ScheduleConfig{
			Cron:   "0 */6 * * *",
			Symbol: "ETH.X",
		},
		Report: ReportConfig{
			Enabled: true,
			HTML:    false,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI overrides are applied by the caller afterwards.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETMOOD_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("MARKETMOOD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("MARKETMOOD_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if dir := os.Getenv("MARKETMOOD_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}

	// Extraction configuration
	if maxRecords := os.Getenv("MARKETMOOD_MAX_RECORDS"); maxRecords != "" {
		if mr, err := strconv.Atoi(maxRecords); err == nil {
			config.Extraction.MaxRecords = mr
		}
	}
	if profileFile := os.Getenv("MARKETMOOD_PROFILE_FILE"); profileFile != "" {
		config.Extraction.ProfileFile = profileFile
	}

	if format := os.Getenv("MARKETMOOD_TIMESTAMP_FORMAT"); format != "" {
		config.Timestamp.Format = format
	}

	// Imputation configuration
	if enabled := os.Getenv("MARKETMOOD_IMPUTATION_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Imputation.Enabled = e
		}
	}
	if corpus := os.Getenv("MARKETMOOD_CORPUS_PATH"); corpus != "" {
		config.Imputation.CorpusPath = corpus
	}
	if seed := os.Getenv("MARKETMOOD_IMPUTATION_SEED"); seed != "" {
		if s, err := strconv.ParseUint(seed, 10, 64); err == nil {
			config.Imputation.Seed = s
		}
	}

	// Emotion provider configuration
	if provider := os.Getenv("MARKETMOOD_EMOTION_PROVIDER"); provider != "" {
		config.Emotion.Provider = provider
	}
	if lexicon := os.Getenv("MARKETMOOD_LEXICON_FILE"); lexicon != "" {
		config.Emotion.LexiconFile = lexicon
	}
	if apiKey := os.Getenv("MARKETMOOD_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("MARKETMOOD_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("MARKETMOOD_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // MARKETMOOD_ prefix takes priority
	}
	if model := os.Getenv("MARKETMOOD_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Output configuration
	if dir := os.Getenv("MARKETMOOD_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}
	if encoding := os.Getenv("MARKETMOOD_OUTPUT_ENCODING"); encoding != "" {
		config.Output.Encoding = encoding
	}

	// Storage configuration
	if badgerPath := os.Getenv("MARKETMOOD_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Fetch configuration
	if userAgent := os.Getenv("MARKETMOOD_FETCH_USER_AGENT"); userAgent != "" {
		config.Fetch.UserAgent = userAgent
	}
	if scrollCount := os.Getenv("MARKETMOOD_FETCH_SCROLL_COUNT"); scrollCount != "" {
		if sc, err := strconv.Atoi(scrollCount); err == nil {
			config.Fetch.ScrollCount = sc
		}
	}
	if scrollWait := os.Getenv("MARKETMOOD_FETCH_SCROLL_WAIT"); scrollWait != "" {
		if sw, err := time.ParseDuration(scrollWait); err == nil {
			config.Fetch.ScrollWait = sw
		}
	}

	if schedule := os.Getenv("MARKETMOOD_SCHEDULE"); schedule != "" {
		config.Schedule.Cron = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string, maxRecords int) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if maxRecords >= 0 {
		config.Extraction.MaxRecords = maxRecords
	}
}

// Validate checks field constraints and the cron schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Schedule.Cron != "" {
		if err := ValidateSchedule(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid configuration: schedule: %w", err)
		}
	}
	return nil
}

// ValidateSchedule validates a 5-field cron expression and rejects every-minute schedules
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) > 0 && parts[0] == "*" {
		return fmt.Errorf("schedule must not run every minute")
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
