package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the console's connection and logging settings.
type Config struct {
	BaseURL      string
	WSPath       string
	SessionID    string
	CSRFToken    string
	LogFile      string
	LogLevel     string
	LogFormat    string
	SoundFile    string
	SoundCommand string
}

const (
	defaultConfigPath = "~/.config/bufeadmin/config.toml"
	defaultBaseURL    = "http://127.0.0.1:8000"
	defaultWSPath     = "/ws/bufe/orders/"
	defaultLogFile    = "~/.local/share/bufeadmin/bufeadmin.log"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
	envFileName       = ".env"
)

// Environment overrides, read from the process environment and from a .env
// file next to the config file. The process environment wins.
const (
	EnvBaseURL   = "BUFEADMIN_BASE_URL"
	EnvSessionID = "BUFEADMIN_SESSION_ID"
	EnvCSRFToken = "BUFEADMIN_CSRF_TOKEN"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:   defaultBaseURL,
		WSPath:    defaultWSPath,
		LogFile:   mustExpand(defaultLogFile),
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

// Load locates and parses the config file, falling back to defaults when it
// is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		if err := parseInto(&cfg, file); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, filepath.Join(filepath.Dir(resolved), envFileName)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseInto(cfg *Config, r io.Reader) error {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL      string `toml:"base_url"`
		WSPath       string `toml:"ws_path"`
		SessionID    string `toml:"session_id"`
		CSRFToken    string `toml:"csrf_token"`
		LogFile      string `toml:"log_file"`
		LogLevel     string `toml:"log_level"`
		LogFormat    string `toml:"log_format"`
		SoundFile    string `toml:"sound_file"`
		SoundCommand string `toml:"sound_command"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setIfPresent(&cfg.BaseURL, raw.BaseURL)
	setIfPresent(&cfg.WSPath, raw.WSPath)
	setIfPresent(&cfg.SessionID, raw.SessionID)
	setIfPresent(&cfg.CSRFToken, raw.CSRFToken)
	setIfPresent(&cfg.LogLevel, strings.ToLower(raw.LogLevel))
	setIfPresent(&cfg.LogFormat, strings.ToLower(raw.LogFormat))
	setIfPresent(&cfg.SoundCommand, raw.SoundCommand)
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.SoundFile); v != "" {
		cfg.SoundFile = mustExpand(v)
	}

	if !strings.HasPrefix(cfg.WSPath, "/") {
		cfg.WSPath = "/" + cfg.WSPath
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("parse config: log_format must be text or json, got %q", cfg.LogFormat)
	}
	return nil
}

func applyEnv(cfg *Config, envFile string) error {
	fileEnv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", envFile, err)
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileEnv[key]
	}
	setIfPresent(&cfg.BaseURL, lookup(EnvBaseURL))
	setIfPresent(&cfg.SessionID, lookup(EnvSessionID))
	setIfPresent(&cfg.CSRFToken, lookup(EnvCSRFToken))
	return nil
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
