package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	DefaultSessionHours  = 2
	DefaultPreviewScale  = 0.5
	DefaultPreviewWorker = 4
)

type Config struct {
	CredentialDigest    string        `yaml:"credential_digest"`
	SessionHours        float64       `yaml:"session_hours"`
	DevelopmentOverride bool          `yaml:"development_override"`
	StateDir            string        `yaml:"state_dir"`
	OutputDir           string        `yaml:"output_dir"`
	OpenAfterSave       bool          `yaml:"open_after_save"`
	Storage             StorageConfig `yaml:"storage"`
	Preview             PreviewConfig `yaml:"preview"`
	Log                 LogConfig     `yaml:"log"`

	// Path is the file the config was read from, empty when none existed.
	Path string `yaml:"-"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
}

type PreviewConfig struct {
	Scale   float64 `yaml:"scale"`
	Workers int     `yaml:"workers"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// SessionDuration converts the configured hours into a duration.
func (c Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionHours * float64(time.Hour))
}

// StatePath resolves a file name inside the state directory.
func (c Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}

// DefaultPath returns $XDG_CONFIG_HOME/pdfmerge/config.yaml, falling back to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pdfmerge", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pdfmerge", "config.yaml"), nil
}

func defaultStateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "pdfmerge"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "pdfmerge"), nil
}

// Load reads the YAML file at path, applies .env and PDFMERGE_* overrides, and validates.
// An empty path means the default location, which may be absent.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Config{
		SessionHours: DefaultSessionHours,
		Storage:      StorageConfig{Backend: BackendFile},
		Preview:      PreviewConfig{Scale: DefaultPreviewScale, Workers: DefaultPreviewWorker},
		Log:          LogConfig{Level: "info"},
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		cfg.Path = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.StateDir == "" {
		dir, err := defaultStateDir()
		if err != nil {
			return Config{}, err
		}
		cfg.StateDir = dir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Log.File == "" {
		cfg.Log.File = cfg.StatePath("pdfmerge.log")
	}
	cfg.CredentialDigest = strings.ToLower(strings.TrimSpace(cfg.CredentialDigest))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CredentialDigest != "" {
		if len(c.CredentialDigest) != 64 {
			return fmt.Errorf("credential_digest must be a 64 character sha-256 hex digest")
		}
		if _, err := hex.DecodeString(c.CredentialDigest); err != nil {
			return fmt.Errorf("credential_digest is not hex: %w", err)
		}
	}
	if c.SessionHours <= 0 {
		return fmt.Errorf("session_hours must be positive")
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	if c.Preview.Scale <= 0 {
		return fmt.Errorf("preview.scale must be positive")
	}
	if c.Preview.Workers <= 0 {
		return fmt.Errorf("preview.workers must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PDFMERGE_CREDENTIAL_DIGEST"); v != "" {
		cfg.CredentialDigest = v
	}
	if v := os.Getenv("PDFMERGE_SESSION_HOURS"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PDFMERGE_SESSION_HOURS: %w", err)
		}
		cfg.SessionHours = hours
	}
	if v := os.Getenv("PDFMERGE_DEV_MODE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PDFMERGE_DEV_MODE: %w", err)
		}
		cfg.DevelopmentOverride = on
	}
	if v := os.Getenv("PDFMERGE_OPEN_AFTER_SAVE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PDFMERGE_OPEN_AFTER_SAVE: %w", err)
		}
		cfg.OpenAfterSave = on
	}
	if v := os.Getenv("PDFMERGE_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("PDFMERGE_STORAGE"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PDFMERGE_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("PDFMERGE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("PDFMERGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}
