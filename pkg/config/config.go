// Package config loads bundler settings using Viper.
//
// Settings come from, in increasing precedence: defaults, a config file
// (minipack.config.yaml, .yml, .json or .toml), MINIPACK_* environment
// variables, and flags bound on the Viper instance passed to Load. Relative
// paths are taken from the working directory.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/coldog/minipack/pkg/compiler"
)

const (
	// FileName is the name of the config file (without extension).
	FileName = "minipack.config"
	// EnvPrefix prefixes environment overrides, e.g. MINIPACK_OUTPUT_PATH.
	EnvPrefix = "MINIPACK"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Output is where the bundle is written. Filename may contain "[hash]".
type Output struct {
	Path     string `mapstructure:"path"`
	Filename string `mapstructure:"filename"`
}

// Resolve tunes module resolution.
type Resolve struct {
	// Extensions are appended, in order, to specifiers naming no file.
	Extensions []string `mapstructure:"extensions"`
}

// Config is the bundler configuration.
type Config struct {
	Entry string `mapstructure:"entry"`
	// Context is the root module identities are relative to. Defaults to
	// the entry's directory.
	Context     string  `mapstructure:"context"`
	Output      Output  `mapstructure:"output"`
	Resolve     Resolve `mapstructure:"resolve"`
	Target      string  `mapstructure:"target"`
	Minify      bool    `mapstructure:"minify"`
	Concurrency int     `mapstructure:"concurrency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: Output{
			Path:     "dist",
			Filename: "bundle.js",
		},
		Resolve:     Resolve{Extensions: []string{}},
		Target:      "es2015",
		Concurrency: 1,
	}
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// ConfigFilePath, when set, is the only file read and must exist.
	ConfigFilePath string
	// Dir is searched for FileName when ConfigFilePath is empty. Defaults to
	// the working directory.
	Dir string
}

// Load reads the configuration into v (a fresh instance when nil) and returns
// it with the path of the config file used, or "" when none was found.
func Load(v *viper.Viper, opts LoadOptions) (*Config, string, error) {
	if v == nil {
		v = viper.New()
	}

	defaults := DefaultConfig()
	v.SetDefault("entry", defaults.Entry)
	v.SetDefault("context", defaults.Context)
	v.SetDefault("output.path", defaults.Output.Path)
	v.SetDefault("output.filename", defaults.Output.Filename)
	v.SetDefault("resolve.extensions", defaults.Resolve.Extensions)
	v.SetDefault("target", defaults.Target)
	v.SetDefault("minify", defaults.Minify)
	v.SetDefault("concurrency", defaults.Concurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFilePath != "" {
		v.SetConfigFile(opts.ConfigFilePath)
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFilePath != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, used, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Entry) == "":
		return fmt.Errorf("%w: entry is required", ErrInvalidConfig)
	case strings.TrimSpace(c.Output.Path) == "":
		return fmt.Errorf("%w: output.path is required", ErrInvalidConfig)
	case strings.TrimSpace(c.Output.Filename) == "":
		return fmt.Errorf("%w: output.filename is required", ErrInvalidConfig)
	case strings.ContainsAny(c.Output.Filename, `/\`):
		return fmt.Errorf("%w: output.filename %q must not contain path separators", ErrInvalidConfig, c.Output.Filename)
	case c.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if _, err := compiler.ParseTarget(c.Target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Root returns the directory module identities are relative to.
func (c *Config) Root() string {
	if c.Context != "" {
		return c.Context
	}
	return filepath.Dir(c.Entry)
}
