package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var envKeys = []string{
	"SOURCE_BASE_URL", "SOURCE_INDEX_PATH", "SOURCE_BELLS_PATH", "LISTEN_ADDR", "LOG_LEVEL",
	"USER_AGENT", "ALLOWED_ORIGINS", "REFRESH_INTERVAL", "FETCH_TIMEOUT", "FETCH_RETRIES",
	"FETCH_RPS", "EXTRACT_WORKERS", "BELLS_TTL",
}

func defaults() *Config {
	return &Config{
		SourceBaseURL:   "https://www.pilot-ipek.ru",
		SourceIndexPath: "/raspo/",
		SourceBellsPath: "/raspo/Расписание звонков",
		ListenAddr:      ":3000",
		LogLevel:        "info",
		AllowedOrigins:  []string{"https://vk.com"},
		RefreshInterval: 30 * time.Minute,
		FetchTimeout:    10 * time.Second,
		FetchRetries:    2,
		FetchRPS:        4,
		ExtractWorkers:  1,
		BellsTTL:        6 * time.Hour,
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "defaults applied",
			env:  map[string]string{},
			want: func(*Config) {},
		},
		{
			name: "all values set",
			env: map[string]string{
				"SOURCE_BASE_URL":   "http://localhost:8080/",
				"SOURCE_INDEX_PATH": "/index/",
				"SOURCE_BELLS_PATH": "/bells",
				"LISTEN_ADDR":       "127.0.0.1:9000",
				"LOG_LEVEL":         "debug",
				"USER_AGENT":        "test-agent",
				"ALLOWED_ORIGINS":   "https://vk.com, https://example.org ,",
				"REFRESH_INTERVAL":  "5m",
				"FETCH_TIMEOUT":     "3s",
				"FETCH_RETRIES":     "0",
				"FETCH_RPS":         "0.5",
				"EXTRACT_WORKERS":   "4",
				"BELLS_TTL":         "1h",
			},
			want: func(c *Config) {
				c.SourceBaseURL = "http://localhost:8080"
				c.SourceIndexPath = "/index/"
				c.SourceBellsPath = "/bells"
				c.ListenAddr = "127.0.0.1:9000"
				c.LogLevel = "debug"
				c.UserAgent = "test-agent"
				c.AllowedOrigins = []string{"https://vk.com", "https://example.org"}
				c.RefreshInterval = 5 * time.Minute
				c.FetchTimeout = 3 * time.Second
				c.FetchRetries = 0
				c.FetchRPS = 0.5
				c.ExtractWorkers = 4
				c.BellsTTL = time.Hour
			},
		},
		{
			name:    "invalid duration",
			env:     map[string]string{"REFRESH_INTERVAL": "soon"},
			wantErr: true,
		},
		{
			name:    "non-positive duration",
			env:     map[string]string{"FETCH_TIMEOUT": "0s"},
			wantErr: true,
		},
		{
			name:    "invalid retries",
			env:     map[string]string{"FETCH_RETRIES": "two"},
			wantErr: true,
		},
		{
			name:    "negative retries",
			env:     map[string]string{"FETCH_RETRIES": "-1"},
			wantErr: true,
		},
		{
			name:    "zero workers",
			env:     map[string]string{"EXTRACT_WORKERS": "0"},
			wantErr: true,
		},
		{
			name:    "invalid rps",
			env:     map[string]string{"FETCH_RPS": "fast"},
			wantErr: true,
		},
	}

	missing := filepath.Join(t.TempDir(), "missing.env")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envKeys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := LoadFile(missing)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := defaults()
			tt.want(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFileReadsEnvFile(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	os.Unsetenv("LISTEN_ADDR")
	os.Unsetenv("BELLS_TTL")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LISTEN_ADDR=:4000\nBELLS_TTL=2h\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("LISTEN_ADDR")
		os.Unsetenv("BELLS_TTL")
	})

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(":4000", got.ListenAddr); diff != "" {
		t.Errorf("listen addr mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2*time.Hour, got.BellsTTL); diff != "" {
		t.Errorf("bells ttl mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileKeepsEnvironmentPrecedence(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("warn", got.LogLevel); diff != "" {
		t.Errorf("log level mismatch (-want +got):\n%s", diff)
	}
}
