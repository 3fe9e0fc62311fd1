package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./flix.db" {
			t.Errorf("expected database path ./flix.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL == "" {
			t.Error("expected a default API base URL")
		}

		if got := config.API.Timeout(); got != 30*time.Second {
			t.Errorf("expected 30s timeout, got %v", got)
		}

		if got := config.UI.ToastDuration(); got != 3*time.Second {
			t.Errorf("expected 3s toast duration, got %v", got)
		}

		if config.API.MovieLimit != 100 {
			t.Errorf("expected movie limit 100, got %d", config.API.MovieLimit)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "http://localhost:8080"
requests_per_second = 0

[database]
path = "/custom/path.db"
max_open_conns = 20
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL != "http://localhost:8080" {
			t.Errorf("expected base URL http://localhost:8080, got %s", config.API.BaseURL)
		}

		if config.API.RequestsPerSecond != 0 {
			t.Errorf("expected rate limit disabled, got %v", config.API.RequestsPerSecond)
		}

		if config.Log.Level != "info" {
			t.Errorf("missing keys should keep defaults, got log level %q", config.Log.Level)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := os.WriteFile(configPath, []byte("[api]\nbase_url = \"\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}

		if err := os.WriteFile(configPath, []byte("not toml ["), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for bad syntax, got %v", err)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		t.Setenv("FLIX_API_URL", "http://env.example")
		t.Setenv("FLIX_MOVIE_LIMIT", "25")

		config := DefaultConfig()
		if err := LoadEnv(config, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("missing dotenv file should be ignored: %v", err)
		}

		if config.API.BaseURL != "http://env.example" {
			t.Errorf("expected env base URL, got %s", config.API.BaseURL)
		}
		if config.API.MovieLimit != 25 {
			t.Errorf("expected movie limit 25, got %d", config.API.MovieLimit)
		}
	})

	t.Run("LoadEnv DotEnv File", func(t *testing.T) {
		dotenv := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(dotenv, []byte("FLIX_DATABASE_PATH=/from/dotenv.db\n"), 0644); err != nil {
			t.Fatalf("failed to write dotenv: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("FLIX_DATABASE_PATH") })

		config := DefaultConfig()
		if err := LoadEnv(config, dotenv); err != nil {
			t.Fatalf("failed to load env: %v", err)
		}

		if config.Database.Path != "/from/dotenv.db" {
			t.Errorf("expected dotenv database path, got %s", config.Database.Path)
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		if ParseLogLevel("debug").String() != "debug" {
			t.Error("expected debug level")
		}
		if ParseLogLevel("nonsense").String() != "info" {
			t.Error("expected unknown levels to fall back to info")
		}
	})
}
