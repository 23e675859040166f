// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	SourceBaseURL   string
	SourceIndexPath string
	SourceBellsPath string
	ListenAddr      string
	LogLevel        string
	UserAgent       string
	AllowedOrigins  []string

	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	FetchRetries    int
	FetchRPS        float64
	ExtractWorkers  int
	BellsTTL        time.Duration
}

// Load reads an optional .env file from the working directory and then the
// configuration from environment variables. Variables already set take
// precedence over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := &Config{
		SourceBaseURL:   strings.TrimRight(getenv("SOURCE_BASE_URL", "https://www.pilot-ipek.ru"), "/"),
		SourceIndexPath: getenv("SOURCE_INDEX_PATH", "/raspo/"),
		SourceBellsPath: getenv("SOURCE_BELLS_PATH", "/raspo/Расписание звонков"),
		ListenAddr:      getenv("LISTEN_ADDR", ":3000"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		UserAgent:       os.Getenv("USER_AGENT"),
		AllowedOrigins:  splitList(getenv("ALLOWED_ORIGINS", "https://vk.com")),
	}

	var err error
	if cfg.RefreshInterval, err = duration("REFRESH_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = duration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BellsTTL, err = duration("BELLS_TTL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FetchRetries, err = integer("FETCH_RETRIES", 2, 0); err != nil {
		return nil, err
	}
	if cfg.ExtractWorkers, err = integer("EXTRACT_WORKERS", 1, 1); err != nil {
		return nil, err
	}

	cfg.FetchRPS = 4
	if raw := os.Getenv("FETCH_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("invalid FETCH_RPS %q: must be a non-negative number", raw)
		}
		cfg.FetchRPS = rps
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

func integer(key string, def, minimum int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n < minimum {
		return 0, fmt.Errorf("invalid %s %q: must be at least %d", key, raw, minimum)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
