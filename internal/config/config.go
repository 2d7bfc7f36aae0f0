// Package config provides configuration management for vue-explore using
// Viper for loading from files, environment variables and command-line
// flags.
//
// Configuration is read from YAML files, overridden by environment variables
// with the VUE_EXPLORE_ prefix, and validated before use. It holds the
// engine policy knobs, the polling cadence and the logging setup.
package config

import (
	"strings"
	"time"

	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "VUE_EXPLORE"

// Defaults applied when a key is not configured.
const (
	DefaultDepth     = -1
	DefaultInterval  = 250 * time.Millisecond
	DefaultDebounce  = 100 * time.Millisecond
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

type Config struct {
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Poll   PollConfig   `yaml:"poll" mapstructure:"poll"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

type EngineConfig struct {
	ReservedPrefixes []string `yaml:"reserved_prefixes" mapstructure:"reserved_prefixes"`
	ReentrancyGuard  bool     `yaml:"reentrancy_guard" mapstructure:"reentrancy_guard"`
	DefaultDepth     int      `yaml:"default_depth" mapstructure:"default_depth"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			ReservedPrefixes: []string{"$", "_"},
			ReentrancyGuard:  true,
			DefaultDepth:     DefaultDepth,
		},
		Poll: PollConfig{
			Interval: DefaultInterval,
			Debounce: DefaultDebounce,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Keys lists every configuration key.
var Keys = []string{
	"engine.reserved_prefixes",
	"engine.reentrancy_guard",
	"engine.default_depth",
	"poll.interval",
	"poll.debounce",
	"log.level",
	"log.format",
}

// BindEnvironment maps every key to its VUE_EXPLORE_ environment variable,
// e.g. poll.interval to VUE_EXPLORE_POLL_INTERVAL. Keys that no file or
// flag mentions are otherwise invisible to Unmarshal.
func BindEnvironment(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range Keys {
		if err := v.BindEnv(key); err != nil {
			return errors.WrapConfig(err, errors.ErrCodeInvalidConfig, "cannot bind environment").
				WithContext("key", key)
		}
	}
	return nil
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults for unset keys
// and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Decode reads the configuration from v and applies defaults for unset
// keys without validating it.
func Decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeInvalidConfig, "cannot decode configuration")
	}

	defaults := Default()

	if !v.IsSet("engine.reserved_prefixes") {
		config.Engine.ReservedPrefixes = defaults.Engine.ReservedPrefixes
	} else if len(config.Engine.ReservedPrefixes) == 0 {
		// Comma separated values from the environment arrive as a string.
		config.Engine.ReservedPrefixes = v.GetStringSlice("engine.reserved_prefixes")
	}

	// Booleans and ints cannot distinguish zero from unset after unmarshal.
	if !v.IsSet("engine.reentrancy_guard") {
		config.Engine.ReentrancyGuard = defaults.Engine.ReentrancyGuard
	}
	if !v.IsSet("engine.default_depth") {
		config.Engine.DefaultDepth = defaults.Engine.DefaultDepth
	}

	if config.Poll.Interval == 0 && !v.IsSet("poll.interval") {
		config.Poll.Interval = defaults.Poll.Interval
	}
	if config.Poll.Debounce == 0 && !v.IsSet("poll.debounce") {
		config.Poll.Debounce = defaults.Poll.Debounce
	}

	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = defaults.Log.Format
	}

	return &config, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	result := ValidateWithDetails(c)
	if !result.HasErrors() {
		return nil
	}

	issues := make([]error, 0, len(result.Errors))
	for i := range result.Errors {
		issues = append(issues, &result.Errors[i])
	}
	return errors.WrapConfig(errors.CombineErrors(issues...), errors.ErrCodeInvalidConfig, "invalid configuration").
		WithContext("fields", result.Fields())
}
