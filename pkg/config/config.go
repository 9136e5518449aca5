package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
	Request   RequestConfig   `yaml:"request"`
	Source    SourceConfig    `yaml:"source"`
	Script    ScriptConfig    `yaml:"script"`
	Media     MediaConfig     `yaml:"media"`
	Content   ContentConfig   `yaml:"content"`
	Selection SelectionConfig `yaml:"selection"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Clock     ClockConfig     `yaml:"clock"`
	Interrupt InterruptConfig `yaml:"interrupt"`
	Breakdown BreakdownConfig `yaml:"breakdown"`
	Voting    VotingConfig    `yaml:"voting"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"` // debug, info, warn, error
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RequestConfig holds outbound HTTP request settings.
type RequestConfig struct {
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// SourceConfig holds news source settings.
type SourceConfig struct {
	URL      string   `yaml:"url"`
	APIKey   string   `yaml:"api_key"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// ProviderConfig describes one generation provider in a fallback chain.
type ProviderConfig struct {
	Name  string `yaml:"name"`  // "gemini", "openai"
	Model string `yaml:"model"` // vendor model id
	Key   string `yaml:"key"`   // API key
}

// ScriptConfig holds settings for the script-writing stage.
type ScriptConfig struct {
	Providers      []ProviderConfig `yaml:"providers"`
	AttemptTimeout Duration         `yaml:"attempt_timeout"`
}

// MediaServiceConfig describes one external media generation service.
type MediaServiceConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// MediaConfig holds settings for speech/video/composite generation.
type MediaConfig struct {
	Speech         []MediaServiceConfig `yaml:"speech"`
	Video          []MediaServiceConfig `yaml:"video"`
	Composite      []MediaServiceConfig `yaml:"composite"`
	AttemptTimeout Duration             `yaml:"attempt_timeout"`
}

// ContentConfig holds content store bounds.
type ContentConfig struct {
	Capacity  int      `yaml:"capacity"`
	Retention Duration `yaml:"retention"`
}

// ProfileConfig is a time-of-day selection preference table.
type ProfileConfig struct {
	Name      string `yaml:"name"`
	StartHour int    `yaml:"start_hour"` // inclusive, 0-23
	// Prefer is the ordered category quota table applied in the quota
	// pass of slate selection. Order matters and survives YAML loads.
	Prefer []CategoryQuota `yaml:"prefer"`
}

// CategoryQuota is one entry of a profile preference table.
type CategoryQuota struct {
	Category string `yaml:"category"`
	Count    int    `yaml:"count"`
}

// SelectionConfig holds slate selection settings.
type SelectionConfig struct {
	SlateSize int             `yaml:"slate_size"`
	Profiles  []ProfileConfig `yaml:"profiles"`
}

// PipelineConfig holds the worker cadences.
type PipelineConfig struct {
	TickInterval   Duration `yaml:"tick_interval"`
	IngestEvery    Duration `yaml:"ingest_every"`
	StoryEvery     Duration `yaml:"story_every"`
	ScriptEvery    Duration `yaml:"script_every"`
	EvictionEvery  Duration `yaml:"eviction_every"`
	RenderQueueCap int      `yaml:"render_queue_cap"`
}

// ClockConfig holds segment clock settings.
type ClockConfig struct {
	SchedulePath  string   `yaml:"schedule_path"` // optional override of the built-in table
	CheckInterval Duration `yaml:"check_interval"`
}

// InterruptConfig holds breaking interrupt settings.
type InterruptConfig struct {
	Duration Duration `yaml:"duration"`
}

// BreakdownConfig holds the stochastic breakdown settings.
type BreakdownConfig struct {
	BaseProbability float64  `yaml:"base_probability"`
	HourlyRamp      float64  `yaml:"hourly_ramp"`
	MaxProbability  float64  `yaml:"max_probability"`
	CheckInterval   Duration `yaml:"check_interval"`
	Duration        Duration `yaml:"duration"`
}

// VotingConfig holds voting session settings.
type VotingConfig struct {
	Cadence         Duration `yaml:"cadence"`
	SessionDuration Duration `yaml:"session_duration"`
	MaxCandidates   int      `yaml:"max_candidates"`
	ResultsWindow   Duration `yaml:"results_window"`
	AppearanceMin   Duration `yaml:"appearance_min"`
	AppearanceMax   Duration `yaml:"appearance_max"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Path:  "logs/staticnews.log",
			Level: "info",
		},
		DB: DBConfig{
			Path: "data/staticnews.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Request: RequestConfig{
			Timeout: Duration(30 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(2 * time.Second),
				MaxDelay:  Duration(2 * time.Minute),
			},
		},
		Source: SourceConfig{
			URL:      "https://newsapi.org/v2/top-headlines?language=en",
			CacheTTL: Duration(30 * time.Minute),
		},
		Script: ScriptConfig{
			Providers: []ProviderConfig{
				{Name: "gemini", Model: "gemini-2.0-flash"},
				{Name: "openai", Model: "gpt-4o-mini"},
			},
			AttemptTimeout: Duration(45 * time.Second),
		},
		Media: MediaConfig{
			AttemptTimeout: Duration(90 * time.Second),
		},
		Content: ContentConfig{
			Capacity:  200,
			Retention: Duration(12 * time.Hour),
		},
		Selection: SelectionConfig{
			SlateSize: 6,
			Profiles:  DefaultProfiles(),
		},
		Pipeline: PipelineConfig{
			TickInterval:   Duration(5 * time.Second),
			IngestEvery:    Duration(10 * time.Minute),
			StoryEvery:     Duration(15 * time.Minute),
			ScriptEvery:    Duration(2 * time.Minute),
			EvictionEvery:  Duration(5 * time.Minute),
			RenderQueueCap: 32,
		},
		Clock: ClockConfig{
			CheckInterval: Duration(15 * time.Second),
		},
		Interrupt: InterruptConfig{
			Duration: Duration(120 * time.Second),
		},
		Breakdown: BreakdownConfig{
			BaseProbability: 0.1,
			HourlyRamp:      0.05,
			MaxProbability:  0.5,
			CheckInterval:   Duration(15 * time.Minute),
			Duration:        Duration(90 * time.Second),
		},
		Voting: VotingConfig{
			Cadence:         Duration(2 * time.Hour),
			SessionDuration: Duration(10 * time.Minute),
			MaxCandidates:   5,
			ResultsWindow:   Duration(2 * time.Minute),
			AppearanceMin:   Duration(5 * time.Minute),
			AppearanceMax:   Duration(30 * time.Minute),
		},
	}
}

// DefaultProfiles returns the built-in time-of-day preference tables.
func DefaultProfiles() []ProfileConfig {
	return []ProfileConfig{
		{
			Name:      "morning",
			StartHour: 6,
			Prefer: []CategoryQuota{
				{Category: "breaking", Count: 3},
				{Category: "human_interest", Count: 2},
				{Category: "weird", Count: 1},
			},
		},
		{
			Name:      "daytime",
			StartHour: 10,
			Prefer: []CategoryQuota{
				{Category: "breaking", Count: 2},
				{Category: "investigative", Count: 2},
				{Category: "opinion", Count: 1},
			},
		},
		{
			Name:      "evening",
			StartHour: 18,
			Prefer: []CategoryQuota{
				{Category: "breaking", Count: 2},
				{Category: "investigative", Count: 1},
				{Category: "human_interest", Count: 2},
			},
		},
		{
			Name:      "overnight",
			StartHour: 23,
			Prefer: []CategoryQuota{
				{Category: "weird", Count: 3},
				{Category: "opinion", Count: 2},
			},
		},
	}
}

// Load reads the config file at path, creating it with defaults when
// missing. API keys left empty in the file are filled from the
// environment (a local .env is honoured).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	// Load from env if empty, but do NOT save back to disk.
	_ = godotenv.Load()
	for i := range cfg.Script.Providers {
		p := &cfg.Script.Providers[i]
		if p.Key != "" {
			continue
		}
		switch p.Name {
		case "gemini":
			p.Key = os.Getenv("GEMINI_API_KEY")
		case "openai":
			p.Key = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Source.APIKey == "" {
		cfg.Source.APIKey = os.Getenv("NEWS_API_KEY")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GenerateDefault writes the default config file.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}

func (c *Config) validate() error {
	if c.Selection.SlateSize <= 0 {
		return fmt.Errorf("selection.slate_size must be positive, got %d", c.Selection.SlateSize)
	}
	if c.Content.Capacity <= 0 {
		return fmt.Errorf("content.capacity must be positive, got %d", c.Content.Capacity)
	}
	if c.Breakdown.MaxProbability < c.Breakdown.BaseProbability {
		return fmt.Errorf("breakdown.max_probability (%v) below base_probability (%v)",
			c.Breakdown.MaxProbability, c.Breakdown.BaseProbability)
	}
	if c.Voting.MaxCandidates <= 0 || c.Voting.MaxCandidates > 5 {
		return fmt.Errorf("voting.max_candidates must be 1-5, got %d", c.Voting.MaxCandidates)
	}
	if c.Voting.AppearanceMax < c.Voting.AppearanceMin {
		return fmt.Errorf("voting.appearance_max below appearance_min")
	}
	for _, p := range c.Selection.Profiles {
		if p.StartHour < 0 || p.StartHour > 23 {
			return fmt.Errorf("profile %q: start_hour %d out of range", p.Name, p.StartHour)
		}
	}
	return nil
}

// ProfileFor resolves the preference table in effect at the given hour.
// Profiles are keyed by inclusive start hour; the one with the latest
// start not after the hour wins, wrapping past midnight.
func (c *SelectionConfig) ProfileFor(hour int) *ProfileConfig {
	if len(c.Profiles) == 0 {
		return nil
	}

	var best *ProfileConfig
	bestStart := -1
	latest := &c.Profiles[0]
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.StartHour > latest.StartHour {
			latest = p
		}
		if p.StartHour <= hour && p.StartHour > bestStart {
			best = p
			bestStart = p.StartHour
		}
	}
	if best == nil {
		// Before the earliest start: the overnight profile wraps around.
		return latest
	}
	return best
}
