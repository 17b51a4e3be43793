package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Gray Logic profiler.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Resolver ResolverConfig `yaml:"resolver"`
	Scoring  ScoringConfig  `yaml:"scoring"`
}

// DatabaseConfig contains SQLite database settings for the evidence and profile store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP read API settings.
type APIConfig struct {
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// RateLimitConfig contains request rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// InfluxDBConfig contains InfluxDB connection settings for resolution telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ResolverConfig controls a resolution batch.
type ResolverConfig struct {
	// RulesFile is the fingerprint rule table (.yaml, .yml, .json or .msgpack).
	RulesFile string `yaml:"rules_file"`

	// Workers bounds how many device keys resolve concurrently.
	Workers int `yaml:"workers"`

	// DeviceTimeout bounds a single device resolution in seconds. 0 disables it.
	DeviceTimeout int `yaml:"device_timeout"`

	// Publish enables retained MQTT publication of every emitted profile.
	Publish bool `yaml:"publish"`
}

// ScoringConfig holds the scoring calibration. Weights are keyed by source domain.
type ScoringConfig struct {
	Weights map[string]float64 `yaml:"weights"`

	DiversityBonus       float64         `yaml:"diversity_bonus"`
	DiversityMinSources  int             `yaml:"diversity_min_sources"`
	DatapointBonus       float64         `yaml:"datapoint_bonus"`
	RecencyBonus         float64         `yaml:"recency_bonus"`
	FingerprintBonus     float64         `yaml:"fingerprint_bonus"`
	ContradictionPenalty float64         `yaml:"contradiction_penalty"`
	SingleSourcePenalty  float64         `yaml:"single_source_penalty"`
	OutdatedPenalty      float64         `yaml:"outdated_penalty"`
	FreshnessWindowDays  int             `yaml:"freshness_window_days"`
	StalenessDays        int             `yaml:"staleness_days"`
	MinScore             float64         `yaml:"min_score"`
	MaxScore             float64         `yaml:"max_score"`
	ConfirmedThreshold   float64         `yaml:"confirmed_threshold"`
	ProposedThreshold    float64         `yaml:"proposed_threshold"`
	LevelThresholds      LevelThresholds `yaml:"levels"`
}

// LevelThresholds are the lower bounds of the confidence level buckets.
type LevelThresholds struct {
	Excellent float64 `yaml:"excellent"`
	VeryGood  float64 `yaml:"very_good"`
	Good      float64 `yaml:"good"`
	Fair      float64 `yaml:"fair"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_DATABASE_PATH, GRAYLOGIC_RESOLVER_WORKERS
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the shipped defaults, including the scoring calibration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/profiler.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-profiler",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8091,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             20,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Resolver: ResolverConfig{
			RulesFile:     "./configs/fingerprint-rules.yaml",
			Workers:       4,
			DeviceTimeout: 30,
		},
		Scoring: DefaultScoring(),
	}
}

// DefaultScoring returns the shipped scoring calibration.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Weights: map[string]float64{
			"official_manufacturer": 40,
			"official_platform":     35,
			"upstream_repo":         25,
			"local_pairing_log":     30,
			"local_event_log":       25,
			"reputable_forum":       15,
			"retailer":              8,
			"blog_video":            5,
		},
		DiversityBonus:       15,
		DiversityMinSources:  3,
		DatapointBonus:       10,
		RecencyBonus:         10,
		FingerprintBonus:     5,
		ContradictionPenalty: 25,
		SingleSourcePenalty:  20,
		OutdatedPenalty:      10,
		FreshnessWindowDays:  90,
		StalenessDays:        365,
		MinScore:             -50,
		MaxScore:             100,
		ConfirmedThreshold:   70,
		ProposedThreshold:    40,
		LevelThresholds: LevelThresholds{
			Excellent: 85,
			VeryGood:  70,
			Good:      50,
			Fair:      30,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric values are ignored and the file value stays in place.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("GRAYLOGIC_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("GRAYLOGIC_RESOLVER_RULES_FILE"); v != "" {
		cfg.Resolver.RulesFile = v
	}
	if v := os.Getenv("GRAYLOGIC_RESOLVER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resolver.Workers = n
		}
	}

	if v := os.Getenv("GRAYLOGIC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.RateLimit.Enabled && c.API.RateLimit.RequestsPerMinute < 1 {
		errs = append(errs, "api.rate_limit.requests_per_minute must be positive when enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Resolver.RulesFile == "" {
		errs = append(errs, "resolver.rules_file is required")
	}
	if c.Resolver.Workers < 1 {
		errs = append(errs, "resolver.workers must be at least 1")
	}
	if c.Resolver.DeviceTimeout < 0 {
		errs = append(errs, "resolver.device_timeout must not be negative")
	}

	errs = append(errs, c.Scoring.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validate reports calibration problems, prefixed with their YAML path.
func (s ScoringConfig) validate() []string {
	var errs []string

	domains := make([]string, 0, len(s.Weights))
	for d := range s.Weights {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		if s.Weights[d] < 0 {
			errs = append(errs, fmt.Sprintf("scoring.weights.%s must not be negative", d))
		}
	}

	for name, v := range map[string]float64{
		"diversity_bonus":       s.DiversityBonus,
		"datapoint_bonus":       s.DatapointBonus,
		"recency_bonus":         s.RecencyBonus,
		"fingerprint_bonus":     s.FingerprintBonus,
		"contradiction_penalty": s.ContradictionPenalty,
		"single_source_penalty": s.SingleSourcePenalty,
		"outdated_penalty":      s.OutdatedPenalty,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("scoring.%s must not be negative", name))
		}
	}
	sort.Strings(errs)

	if s.DiversityMinSources < 2 {
		errs = append(errs, "scoring.diversity_min_sources must be at least 2")
	}
	if s.MinScore >= s.MaxScore {
		errs = append(errs, "scoring.min_score must be below scoring.max_score")
	}
	if s.ProposedThreshold > s.ConfirmedThreshold {
		errs = append(errs, "scoring.proposed_threshold must not exceed scoring.confirmed_threshold")
	}
	if s.FreshnessWindowDays < 0 || s.StalenessDays < 0 {
		errs = append(errs, "scoring windows must not be negative")
	}
	if s.FreshnessWindowDays > s.StalenessDays {
		errs = append(errs, "scoring.freshness_window_days must not exceed scoring.staleness_days")
	}
	l := s.LevelThresholds
	if l.Excellent < l.VeryGood || l.VeryGood < l.Good || l.Good < l.Fair {
		errs = append(errs, "scoring.levels must be ordered excellent >= very_good >= good >= fair")
	}

	return errs
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetDeviceTimeout returns the per-device resolution timeout, zero when disabled.
func (c *Config) GetDeviceTimeout() time.Duration {
	return time.Duration(c.Resolver.DeviceTimeout) * time.Second
}
