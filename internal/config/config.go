package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime settings for the vacancyhub server
type Config struct {
	LogLevel string
	Host     string // default 0.0.0.0
	Port     string // default PORT env or 8080

	HeadHunter struct {
		BaseURL  string
		PageSize int
	}
	SuperJob struct {
		BaseURL  string
		PageSize int
		APIKey   string // X-Api-App-Id header value
	}

	// Pipeline knobs shared by every provider.
	RequestTimeout time.Duration // per-attempt HTTP deadline
	RequestDelay   time.Duration // minimum interval between upstream calls
	CacheTTL       time.Duration // freshness window for cached responses
	CacheDir       string
	MaxPages       int // hard cap on upstream pages per query
	MaxSources     int // hard cap on sources queried per search

	Neo4j struct {
		URI      string
		Username string
		Password string
	}
	Sheets struct {
		CredentialsPath string // optional; export tool degrades to disabled
	}
}

// Load populates config from environment variables
func Load() (Config, error) {
	cfg := Config{
		LogLevel:       "info",
		Host:           "0.0.0.0",
		Port:           "8080",
		RequestTimeout: 10 * time.Second,
		RequestDelay:   500 * time.Millisecond,
		CacheTTL:       time.Hour,
		CacheDir:       "data/cache",
		MaxPages:       20,
		MaxSources:     2,
	}
	cfg.HeadHunter.BaseURL = "https://api.hh.ru/vacancies"
	cfg.HeadHunter.PageSize = 50
	cfg.SuperJob.BaseURL = "https://api.superjob.ru/2.0/vacancies/"
	cfg.SuperJob.PageSize = 50

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MCP_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("HH_BASE_URL"); v != "" {
		cfg.HeadHunter.BaseURL = v
	}
	if v := os.Getenv("SJ_BASE_URL"); v != "" {
		cfg.SuperJob.BaseURL = v
	}
	cfg.SuperJob.APIKey = os.Getenv("SUPERJOB_API_KEY")

	var err error
	if cfg.HeadHunter.PageSize, err = intEnv("HH_PAGE_SIZE", cfg.HeadHunter.PageSize); err != nil {
		return cfg, err
	}
	if cfg.SuperJob.PageSize, err = intEnv("SJ_PAGE_SIZE", cfg.SuperJob.PageSize); err != nil {
		return cfg, err
	}
	if cfg.MaxPages, err = intEnv("MAX_PAGES", cfg.MaxPages); err != nil {
		return cfg, err
	}
	if cfg.MaxSources, err = intEnv("MAX_SOURCES", cfg.MaxSources); err != nil {
		return cfg, err
	}

	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return cfg, err
	}
	if cfg.RequestDelay, err = durationEnv("REQUEST_DELAY", cfg.RequestDelay); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	cfg.Neo4j.URI = os.Getenv("NEO4J_URI")
	cfg.Neo4j.Username = os.Getenv("NEO4J_USERNAME")
	cfg.Neo4j.Password = os.Getenv("NEO4J_PASSWORD")

	cfg.Sheets.CredentialsPath = os.Getenv("SHEETS_CREDENTIALS_PATH")

	var missingVars []string

	if cfg.Neo4j.URI == "" {
		missingVars = append(missingVars, "NEO4J_URI")
	}
	if cfg.Neo4j.Username == "" {
		missingVars = append(missingVars, "NEO4J_USERNAME")
	}
	if cfg.Neo4j.Password == "" {
		missingVars = append(missingVars, "NEO4J_PASSWORD")
	}

	if len(missingVars) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return d, nil
}
