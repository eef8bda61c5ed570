package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reloquent/schemaforge/internal/correction"
	"github.com/reloquent/schemaforge/internal/ddl"
	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/validation"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.schemaforge/config.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version    int                `yaml:"version"`
	Dialect    dialect.Name       `yaml:"dialect"`
	Compile    ddl.Options        `yaml:"compile"`
	Migration  MigrationConfig    `yaml:"migration"`
	Validation validation.Options `yaml:"validation"`
	Correction correction.Options `yaml:"correction"`
	Source     SourceConfig       `yaml:"source,omitempty"`
	AWS        AWSConfig          `yaml:"aws,omitempty"`
	Logging    LogConfig          `yaml:"logging,omitempty"`
	OutputDir  string             `yaml:"output_dir,omitempty"`
	StateFile  string             `yaml:"state_file,omitempty"`
}

// MigrationConfig holds defaults for generated migration scripts.
type MigrationConfig struct {
	SafeMode     bool `yaml:"safe_mode"`
	GenerateDown bool `yaml:"generate_down"`
}

// SourceConfig defines the database a model is discovered from.
type SourceConfig struct {
	Type           string `yaml:"type"` // postgresql or oracle
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Database       string `yaml:"database"`
	Schema         string `yaml:"schema,omitempty"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SSL            bool   `yaml:"ssl,omitempty"`
	MaxConnections int    `yaml:"max_connections,omitempty"` // default 4, max 20
}

// AWSConfig selects the credentials used for AWS Secrets Manager lookups.
type AWSConfig struct {
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level         string `yaml:"level,omitempty"`          // debug, info, warn, error
	Directory     string `yaml:"directory,omitempty"`      // default ~/.schemaforge/logs/
	RetentionDays int    `yaml:"retention_days,omitempty"` // default 30
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		Version:    CurrentVersion,
		Dialect:    dialect.MySQL,
		Compile:    ddl.DefaultOptions(),
		Migration:  MigrationConfig{GenerateDown: true},
		Validation: validation.DefaultOptions(),
		Correction: correction.DefaultOptions(),
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the config file from the given path. Keys absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	cfg.Version = 0
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadOrDefault loads the config at path, falling back to Default when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = dialect.MySQL
	}
	if c.Validation.Dialect == "" {
		c.Validation.Dialect = c.Dialect
	}
	if c.Correction.Dialect == "" {
		c.Correction.Dialect = c.Dialect
	}
	if c.Source.MaxConnections == 0 {
		c.Source.MaxConnections = 4
	}
	if c.Source.MaxConnections > 20 {
		c.Source.MaxConnections = 20
	}
	if c.Source.Port == 0 {
		switch c.Source.Type {
		case "postgresql":
			c.Source.Port = 5432
		case "oracle":
			c.Source.Port = 1521
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.schemaforge/logs/")
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = 30
	}
	if c.OutputDir == "" {
		c.OutputDir = "migrations"
	}
	if c.StateFile == "" {
		c.StateFile = ExpandHome("~/.schemaforge/state.yaml")
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := dialect.Lookup(c.Dialect); !ok {
		errs = append(errs, fmt.Errorf("unknown dialect %q (supported: %s)", c.Dialect, dialectList()))
	}
	switch c.Source.Type {
	case "", "postgresql", "oracle":
	default:
		errs = append(errs, fmt.Errorf("unsupported source type %q (postgresql or oracle)", c.Source.Type))
	}
	if c.Source.Type != "" {
		if c.Source.Host == "" {
			errs = append(errs, errors.New("source.host is required"))
		}
		if c.Source.Database == "" {
			errs = append(errs, errors.New("source.database is required"))
		}
	}
	if c.Validation.MaxVarcharLength < 0 || c.Validation.MaxEnumValues < 0 {
		errs = append(errs, errors.New("validation limits must not be negative"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// Masked returns a copy with secrets replaced, suitable for display.
func (c *Config) Masked() *Config {
	out := *c
	if out.Source.Password != "" {
		out.Source.Password = "********"
	}
	return &out
}

func dialectList() string {
	var names []string
	for _, n := range dialect.Names() {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Source.Password, err = c.ResolveValue(c.Source.Password)
	if err != nil {
		return fmt.Errorf("source password: %w", err)
	}
	c.Source.Username, err = c.ResolveValue(c.Source.Username)
	if err != nil {
		return fmt.Errorf("source username: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value using the
// config's AWS settings.
func (c *Config) ResolveValue(val string) (string, error) {
	return resolve(val, c.AWS)
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	return resolve(val, AWSConfig{})
}

func resolve(val string, aws AWSConfig) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref, aws)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
