package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/gcurrier/anythingllm-document-sync/internal/errors"
)

const (
	// DefaultConfigName is the config file used when --config is not given.
	DefaultConfigName = "config.yml"

	// defaultBaseURL is the AnythingLLM API address for a local install.
	defaultBaseURL = "http://localhost:3001"

	configDirPerm  = os.FileMode(0o700)
	configFilePerm = os.FileMode(0o600)
)

// Config holds everything a sync run needs: the API connection, the
// workspace, the local roots to scan, and the exclusion rules. Values
// come from a YAML file in the config directory; ANYTHINGLLM_* env vars
// override the file (a .env file is honoured when present).
type Config struct {
	APIKey            string   `yaml:"api-key"            env:"ANYTHINGLLM_API_KEY"`
	WorkspaceSlug     string   `yaml:"workspace-slug"     env:"ANYTHINGLLM_WORKSPACE_SLUG"`
	BaseURL           string   `yaml:"base-url"           env:"ANYTHINGLLM_BASE_URL"`
	FilePaths         []string `yaml:"file-paths"`
	DirectoryExcludes []string `yaml:"directory-excludes"`
	FileExcludes      []string `yaml:"file-excludes"`
}

// BaseDir returns the application directory (~/.anythingllm-sync),
// creating it if missing. All configs, tracking databases, locks and
// logs live under it.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	dir := filepath.Join(home, ".anythingllm-sync")
	if err := os.MkdirAll(dir, configDirPerm); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return dir, nil
}

// Load reads and validates the config file at path. Root paths are
// resolved to absolute form and must exist; any validation failure is a
// fatal configuration error surfaced before anything remote happens.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Configf("reading config %s", path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Configf("parsing config %s: %v", path, err)
	}

	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, apperrors.Configf("parsing environment overrides: %v", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for i, root := range cfg.FilePaths {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, apperrors.Configf("resolving root %s: %v", root, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, apperrors.Configf("root path %s does not exist", abs)
		}

		if !info.IsDir() {
			return nil, apperrors.Configf("root path %s is not a directory", abs)
		}

		cfg.FilePaths[i] = abs
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return apperrors.Configf("api-key is required")
	}

	if c.WorkspaceSlug == "" {
		return apperrors.Configf("workspace-slug is required")
	}

	if len(c.FilePaths) == 0 {
		return apperrors.Configf("at least one entry in file-paths is required")
	}

	return nil
}

// TrackingDBPath returns the per-workspace tracking database location
// inside baseDir.
func TrackingDBPath(baseDir, slug string) string {
	return filepath.Join(baseDir, "tracking-"+slug+".db")
}

// LockPath returns the per-workspace run-lock location inside baseDir.
func LockPath(baseDir, slug string) string {
	return filepath.Join(baseDir, slug+".lock")
}

// configTemplate is written on first run so users edit real keys instead
// of reading docs.
const configTemplate = `# AnythingLLM document sync configuration.
# Edit the values below and re-run the command.

api-key: YOUR_ANYTHINGLLM_API_KEY_HERE
workspace-slug: your-workspace-slug-here

# API address. Leave as-is for a local AnythingLLM install.
base-url: http://localhost:3001

file-paths:
  - /home/user/path/to/your/repo-or-folder

directory-excludes:
  - .git
  - node_modules
  - __pycache__
  - venv

file-excludes:
  - "*.log"
  - "*.tmp"
`

// WriteTemplate writes a commented starter config to path. Fails if the
// file already exists.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}

	if err := os.WriteFile(path, []byte(configTemplate), configFilePerm); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
