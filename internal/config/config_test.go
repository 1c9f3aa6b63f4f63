// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and size/duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9090"
  shutdown_timeout: "3s"

database:
  path: "./test.db"

icons:
  dir: "./icons"
  max_upload_size: "512 KiB"
  symbols_file: "./symbols.toml"

uploads:
  rate_per_second: 2.5
  burst: 4

auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  token_ttl: "1h"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9090")
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Icons.Dir != "./icons" {
		t.Errorf("Icons.Dir = %q, want %q", cfg.Icons.Dir, "./icons")
	}
	if cfg.Icons.MaxUploadSize != 512*1024 {
		t.Errorf("Icons.MaxUploadSize = %d, want %d", cfg.Icons.MaxUploadSize, 512*1024)
	}
	if cfg.Icons.SymbolsFile != "./symbols.toml" {
		t.Errorf("Icons.SymbolsFile = %q", cfg.Icons.SymbolsFile)
	}
	if cfg.Uploads.RatePerSecond != 2.5 || cfg.Uploads.Burst != 4 {
		t.Errorf("Uploads = %+v, want rate 2.5 burst 4", cfg.Uploads)
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled() = false, want true")
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"
icons:
  dir: "./icons"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Icons.MaxUploadSize != 1<<20 {
		t.Errorf("Icons.MaxUploadSize = %d, want %d", cfg.Icons.MaxUploadSize, 1<<20)
	}
	if cfg.Uploads.RatePerSecond != DefaultUploadRate || cfg.Uploads.Burst != DefaultUploadBurst {
		t.Errorf("Uploads = %+v", cfg.Uploads)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true, want false without a secret")
	}
	if cfg.Auth.TokenTTL != 720*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 720h", cfg.Auth.TokenTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_FOLDER_ICONS_SECRET", "secret-from-environment-32-bytes")
	t.Setenv("TEST_FOLDER_ICONS_DIR", "/srv/icons")

	configPath := writeConfig(t, `
database:
  path: "./test.db"
icons:
  dir: "${TEST_FOLDER_ICONS_DIR}"
auth:
  jwt_secret: "${TEST_FOLDER_ICONS_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "secret-from-environment-32-bytes" {
		t.Errorf("Auth.JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Icons.Dir != "/srv/icons" {
		t.Errorf("Icons.Dir = %q, want %q", cfg.Icons.Dir, "/srv/icons")
	}
}

func TestLoad_UnsetEnvVarIsEmpty(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"
icons:
  dir: "./icons"
auth:
  jwt_secret: "${TEST_FOLDER_ICONS_DEFINITELY_UNSET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("unset env var should leave auth disabled")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing database path",
			content: "icons:\n  dir: ./icons\n",
			wantErr: "database.path is required",
		},
		{
			name:    "missing icons dir",
			content: "database:\n  path: ./test.db\n",
			wantErr: "icons.dir is required",
		},
		{
			name:    "bad upload size",
			content: "database:\n  path: ./test.db\nicons:\n  dir: ./icons\n  max_upload_size: lots\n",
			wantErr: "max_upload_size",
		},
		{
			name:    "bad shutdown timeout",
			content: "database:\n  path: ./test.db\nicons:\n  dir: ./icons\nserver:\n  shutdown_timeout: soon\n",
			wantErr: "shutdown_timeout",
		},
		{
			name:    "bad log level",
			content: "database:\n  path: ./test.db\nicons:\n  dir: ./icons\nlogging:\n  level: loud\n",
			wantErr: "logging.level",
		},
		{
			name:    "negative burst",
			content: "database:\n  path: ./test.db\nicons:\n  dir: ./icons\nuploads:\n  burst: -1\n",
			wantErr: "uploads",
		},
		{
			name:    "malformed yaml",
			content: "database: [unterminated\n",
			wantErr: "parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() should have returned an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("Load() error = %v, want reading config file error", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("FOLDER_ICONS_CONFIG", "/etc/folder-icons.yaml")
	if got := DefaultPath(); got != "/etc/folder-icons.yaml" {
		t.Errorf("DefaultPath() = %q, want env override", got)
	}

	t.Setenv("FOLDER_ICONS_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultPath(); got != filepath.Join("/tmp/xdg", "folder-icons", "config.yaml") {
		t.Errorf("DefaultPath() = %q, want XDG location", got)
	}
}
