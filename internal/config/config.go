// Package config manages YAML-based configuration and CLI flags.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Model configures the live model gateway
type Model struct {
	Endpoint string        `yaml:"endpoint,omitempty" validate:"omitempty,url"`
	APIKey   string        `yaml:"api_key,omitempty"`
	Name     string        `yaml:"name,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Config holds all configuration options for Workset
type Config struct {
	Port       int    `yaml:"port" validate:"gte=1,lte=65535"`
	StorageDir string `yaml:"storage_dir" validate:"required"`
	Watch      bool   `yaml:"watch"`
	Open       bool   `yaml:"open"`
	Style      string `yaml:"style"`
	LogLevel   string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Model        Model    `yaml:"model"`
	MaxSteps     int      `yaml:"max_steps" validate:"gte=1"`
	MockMaxSteps int      `yaml:"mock_max_steps" validate:"gte=1"`
	EntryPoints  []string `yaml:"entry_points" validate:"dive,required"`

	// Tree listings skip names matching these patterns
	Exclude []string `yaml:"exclude"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		StorageDir:   filepath.Join(GetConfigDir(), "projects"),
		Watch:        true,
		Open:         false,
		Style:        "monokai",
		LogLevel:     "info",
		Model:        Model{Timeout: 2 * time.Minute},
		MaxSteps:     40,
		MockMaxSteps: 4,
		EntryPoints:  []string{"/App.jsx", "/App.tsx", "/index.jsx", "/index.tsx"},
		Exclude:      []string{"node_modules", ".git"},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/workset"
	}
	return filepath.Join(home, ".config", "workset")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from file and command line flags
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with an explicit argument list
func LoadArgs(args []string) (*Config, error) {
	cfg := DefaultConfig()

	// Accept `workset serve --port 9000`
	if len(args) > 0 && args[0] == "serve" {
		args = args[1:]
	}

	fs := flag.NewFlagSet("workset", flag.ContinueOnError)
	port := fs.Int("port", 0, "HTTP server port")
	storageDir := fs.String("storage", "", "Project storage directory")
	endpoint := fs.String("model-endpoint", "", "Model gateway URL")
	maxSteps := fs.Int("max-steps", 0, "Step budget for live runs")
	logLevel := fs.String("log-level", "", "Log level (debug/info/warn/error)")
	watch := fs.Bool("watch", true, "Watch the storage directory for external edits")
	open := fs.Bool("open", false, "Open browser on startup")
	configFile := fs.String("config", "", "Configuration file path")

	fs.StringVar(storageDir, "s", "", "Project storage directory (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Determine config file path
	var cfgPath string
	if *configFile != "" {
		cfgPath = *configFile
	} else {
		// Try ~/.config/workset/config.yaml first
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("workset.yaml"); err == nil {
			cfgPath = "workset.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only return error if user explicitly specified config file
			return nil, err
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = GetConfigPath()
	}

	// Command line flags override config file (only if explicitly set)
	if *port != 0 {
		cfg.Port = *port
	}
	if *storageDir != "" {
		cfg.StorageDir = *storageDir
	}
	if *endpoint != "" {
		cfg.Model.Endpoint = *endpoint
	}
	if *maxSteps != 0 {
		cfg.MaxSteps = *maxSteps
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.Watch = *watch
	cfg.Open = *open

	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = os.Getenv("WORKSET_API_KEY")
	}
	if abs, err := filepath.Abs(cfg.StorageDir); err == nil {
		cfg.StorageDir = abs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save saves the current configuration to the config file. The API key is
// never written back.
func (c *Config) Save() error {
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	saveConfig := *c
	saveConfig.Model.APIKey = ""

	data, err := yaml.Marshal(&saveConfig)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// HasModel reports whether a live model gateway is configured
func (c *Config) HasModel() bool {
	return c.Model.Endpoint != ""
}

// IsExcluded checks if a path should be hidden from tree listings
func (c *Config) IsExcluded(path string) bool {
	base := filepath.Base(path)
	for _, exclude := range c.Exclude {
		if matched, _ := filepath.Match(exclude, base); matched {
			return true
		}
	}
	return false
}

// SlogLevel maps LogLevel onto slog
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
