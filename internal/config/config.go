package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Supported values of STORE_BACKEND and MATCHER.
var (
	StoreBackends = []string{"file", "redis", "postgres"}
	Matchers      = []string{"exact", "hnsw"}
)

type Config struct {
	Recognition RecognitionConfig `yaml:"recognition"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Store       StoreConfig       `yaml:"store"`
	Redis       RedisConfig       `yaml:"redis"`
	Database    DatabaseConfig    `yaml:"database"`
	Events      EventsConfig      `yaml:"events"`
	Log         LogConfig         `yaml:"log"`
	Web         WebConfig         `yaml:"web"`
}

type RecognitionConfig struct {
	Dim             int     `yaml:"embedding_dim"`
	Threshold       float64 `yaml:"threshold"`        // strict acceptance threshold
	HighConfidence  float64 `yaml:"high_confidence"`  // lower bound of the high tier; the threshold starts the medium tier
	LowConfidence   float64 `yaml:"low_confidence"`   // lower bound of the low tier
	Matcher         string  `yaml:"matcher"`          // exact or hnsw
	IndexCandidates int     `yaml:"index_candidates"` // neighbours fetched from the hnsw index
}

type ExtractorConfig struct {
	URL         string `yaml:"url"`
	InputSize   int    `yaml:"input_size"` // side of the square image sent to the model
	JPEGQuality int    `yaml:"jpeg_quality"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// Timeout returns the per-request timeout of the extractor client.
func (c ExtractorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

type StoreConfig struct {
	Backend   string `yaml:"backend"`   // file, redis or postgres
	Namespace string `yaml:"namespace"` // groups the gallery and role sets
	Path      string `yaml:"path"`      // directory for the file backend
}

type RedisConfig struct {
	URL string `yaml:"url"` // redis://[:password@]host:port/db
}

type DatabaseConfig struct {
	URL          string `yaml:"url"` // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type EventsConfig struct {
	NATSURL string `yaml:"nats_url"` // events are disabled when empty
	Subject string `yaml:"subject"`  // subject prefix
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma separated variable, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Defaults returns the configuration embedded in the binary.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the embedded defaults overridden by the environment.
func Load() *Config {
	d := Defaults()

	return &Config{
		Recognition: RecognitionConfig{
			Dim:             envInt("EMBEDDING_DIM", d.Recognition.Dim),
			Threshold:       envFloat("MATCH_THRESHOLD", d.Recognition.Threshold),
			HighConfidence:  envFloat("CONFIDENCE_HIGH", d.Recognition.HighConfidence),
			LowConfidence:   envFloat("CONFIDENCE_LOW", d.Recognition.LowConfidence),
			Matcher:         strings.ToLower(envString("MATCHER", d.Recognition.Matcher)),
			IndexCandidates: envInt("MATCHER_CANDIDATES", d.Recognition.IndexCandidates),
		},
		Extractor: ExtractorConfig{
			URL:         envString("EXTRACTOR_URL", d.Extractor.URL),
			InputSize:   d.Extractor.InputSize,
			JPEGQuality: d.Extractor.JPEGQuality,
			TimeoutSec:  envInt("EXTRACTOR_TIMEOUT_SEC", d.Extractor.TimeoutSec),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(envString("STORE_BACKEND", d.Store.Backend)),
			Namespace: envString("STORE_NAMESPACE", d.Store.Namespace),
			Path:      envString("STORE_PATH", d.Store.Path),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Events: EventsConfig{
			NATSURL: os.Getenv("NATS_URL"),
			Subject: envString("NATS_SUBJECT", d.Events.Subject),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envString("LOG_LEVEL", d.Log.Level)),
			Format: strings.ToLower(envString("LOG_FORMAT", d.Log.Format)),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", d.Web.Host),
			Port:           envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Recognition.Dim <= 0 {
		errs = append(errs, fmt.Errorf("embedding dimension must be positive, got %d", c.Recognition.Dim))
	}
	if c.Recognition.Threshold <= 0 || c.Recognition.Threshold >= 1 {
		errs = append(errs, fmt.Errorf("match threshold must be in (0, 1), got %v", c.Recognition.Threshold))
	}
	if r := c.Recognition; !(r.LowConfidence <= r.Threshold && r.Threshold <= r.HighConfidence && r.HighConfidence <= 1) {
		errs = append(errs, fmt.Errorf("confidence tiers must satisfy low <= threshold <= high <= 1, got %v / %v / %v",
			r.LowConfidence, r.Threshold, r.HighConfidence))
	}
	if !slices.Contains(Matchers, c.Recognition.Matcher) {
		errs = append(errs, fmt.Errorf("unknown matcher %q (want one of %s)", c.Recognition.Matcher, strings.Join(Matchers, ", ")))
	}
	if !slices.Contains(StoreBackends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("unknown store backend %q (want one of %s)", c.Store.Backend, strings.Join(StoreBackends, ", ")))
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("STORE_PATH is required for the file backend"))
		}
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	}

	return errors.Join(errs...)
}
