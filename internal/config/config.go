// internal/config/config.go
//
// This package handles configuration and the .dealdesk directory structure.
// Every project that uses dealdesk gets a .dealdesk/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DeskDir is the name of the directory we create in each project
	DeskDir = ".dealdesk"

	DriverMemory = "memory"
	DriverSQLite = "sqlite"

	defaultStorePath      = "data/dealdesk.db"
	defaultFixturesPath   = "fixtures.yaml"
	defaultRequestTimeout = 10 * time.Second
)

const defaultProjectConfigYAML = `# dealdesk project configuration
version: 1

# Where deals, people and pipelines live.
#   memory: seeded from fixtures on every launch, nothing is written back
#   sqlite: a database file under .dealdesk/, seeded from fixtures when empty
store:
  driver: memory
  path: data/dealdesk.db
  fixtures: fixtures.yaml
  # Artificial delay per store call, handy for watching loading states.
  latency: 0s

forms:
  request_timeout: 10s
`

// StoreConfig selects and locates the record store.
type StoreConfig struct {
	Driver   string        `yaml:"driver"`
	Path     string        `yaml:"path,omitempty"`
	Fixtures string        `yaml:"fixtures,omitempty"`
	Latency  time.Duration `yaml:"latency,omitempty"`
}

// FormsConfig tunes form behavior.
type FormsConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// ProjectConfig models .dealdesk/config.yaml.
type ProjectConfig struct {
	Version int         `yaml:"version"`
	Store   StoreConfig `yaml:"store"`
	Forms   FormsConfig `yaml:"forms"`
}

// Config holds the runtime configuration for dealdesk.
type Config struct {
	// ProjectDir is the directory where the user ran `dealdesk` from
	ProjectDir string

	// DeskProjectDir is ProjectDir/.dealdesk
	DeskProjectDir string

	Project ProjectConfig
}

// InitDeskDir creates the .dealdesk directory structure in the given project directory.
//
// Structure created:
// .dealdesk/
// ├── config.yaml
// ├── logs/   <- journal of form activity
// └── data/   <- sqlite database, when that driver is selected
func InitDeskDir(projectDir string) error {
	deskDir := filepath.Join(projectDir, DeskDir)

	dirs := []string{
		filepath.Join(deskDir, "logs"),
		filepath.Join(deskDir, "data"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(deskDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:     projectDir,
		DeskProjectDir: filepath.Join(projectDir, DeskDir),
		Project:        defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.Project.normalize(cfg.DeskProjectDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DeskProjectDir, "logs")
}

// JournalPath returns the path of the form activity journal
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DeskProjectDir, "config.yaml")
}

// Store returns the resolved store settings.
func (c *Config) Store() StoreConfig {
	return c.Project.Store
}

// RequestTimeout bounds every store call a form makes.
func (c *Config) RequestTimeout() time.Duration {
	if c == nil || c.Project.Forms.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.Project.Forms.RequestTimeout
}

// SetStoreDriver updates the store driver and persists the value back to
// .dealdesk/config.yaml.
func (c *Config) SetStoreDriver(driver string) error {
	driver = normalizeDriver(driver)
	if driver == "" {
		return fmt.Errorf("config: store driver is required")
	}
	c.Project.Store.Driver = driver
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.DeskProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if driver := strings.TrimSpace(os.Getenv("DEALDESK_STORE_DRIVER")); driver != "" {
		c.Project.Store.Driver = driver
	}
	if path := strings.TrimSpace(os.Getenv("DEALDESK_STORE_PATH")); path != "" {
		c.Project.Store.Path = path
	}
	if value := strings.TrimSpace(os.Getenv("DEALDESK_STORE_LATENCY")); value != "" {
		latency, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("config: DEALDESK_STORE_LATENCY: %w", err)
		}
		c.Project.Store.Latency = latency
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Store: StoreConfig{
			Driver:   DriverMemory,
			Path:     defaultStorePath,
			Fixtures: defaultFixturesPath,
		},
		Forms: FormsConfig{RequestTimeout: defaultRequestTimeout},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Store.Driver) == "" {
		pc.Store.Driver = DriverMemory
	}
	if strings.TrimSpace(pc.Store.Path) == "" {
		pc.Store.Path = defaultStorePath
	}
	if strings.TrimSpace(pc.Store.Fixtures) == "" {
		pc.Store.Fixtures = defaultFixturesPath
	}
	if pc.Forms.RequestTimeout == 0 {
		pc.Forms.RequestTimeout = defaultRequestTimeout
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Store.Driver = normalizeDriver(pc.Store.Driver)
	pc.Store.Path = resolvePath(base, pc.Store.Path)
	pc.Store.Fixtures = resolvePath(base, pc.Store.Fixtures)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if pc.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("store.driver must be '%s' or '%s'", DriverMemory, DriverSQLite)
	}
	if pc.Store.Latency < 0 {
		return fmt.Errorf("store.latency must not be negative")
	}
	if pc.Forms.RequestTimeout < 0 {
		return fmt.Errorf("forms.request_timeout must not be negative")
	}
	return nil
}

func normalizeDriver(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func parseDuration(value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.DeskProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.DeskProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure desk dir: %w", err)
	}
	out := c.Project
	out.Store.Path = relativeTo(c.DeskProjectDir, out.Store.Path)
	out.Store.Fixtures = relativeTo(c.DeskProjectDir, out.Store.Fixtures)
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
