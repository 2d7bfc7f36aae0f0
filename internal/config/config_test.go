package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		check       func(t *testing.T, c *Config)
	}{
		{
			name:  "defaults",
			setup: func(v *viper.Viper) {},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, Default(), c)
			},
		},
		{
			name: "explicit false and zero survive defaults",
			setup: func(v *viper.Viper) {
				v.Set("engine.reentrancy_guard", false)
				v.Set("engine.default_depth", 0)
			},
			check: func(t *testing.T, c *Config) {
				assert.False(t, c.Engine.ReentrancyGuard)
				assert.Equal(t, 0, c.Engine.DefaultDepth)
			},
		},
		{
			name: "durations from strings",
			setup: func(v *viper.Viper) {
				v.Set("poll.interval", "2s")
				v.Set("poll.debounce", "0s")
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 2*time.Second, c.Poll.Interval)
				assert.Equal(t, time.Duration(0), c.Poll.Debounce)
			},
		},
		{
			name: "custom prefixes",
			setup: func(v *viper.Viper) {
				v.Set("engine.reserved_prefixes", []string{"#"})
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, []string{"#"}, c.Engine.ReservedPrefixes)
			},
		},
		{
			name: "invalid log level",
			setup: func(v *viper.Viper) {
				v.Set("log.level", "chatty")
			},
			expectError: true,
		},
		{
			name: "undecodable value",
			setup: func(v *viper.Viper) {
				v.Set("engine.default_depth", "deep")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			config, err := LoadFrom(v)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, config)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestLoadFromFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".vue-explore.yml")
	content := "engine:\n  default_depth: 2\npoll:\n  interval: 1s\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("VUE_EXPLORE_LOG_FORMAT", "json")
	t.Setenv("VUE_EXPLORE_POLL_DEBOUNCE", "40ms")
	t.Setenv("VUE_EXPLORE_ENGINE_REENTRANCY_GUARD", "false")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, BindEnvironment(v))
	require.NoError(t, v.ReadInConfig())

	config, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 2, config.Engine.DefaultDepth)
	assert.Equal(t, time.Second, config.Poll.Interval)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, 40*time.Millisecond, config.Poll.Debounce)
	assert.False(t, config.Engine.ReentrancyGuard)
	assert.Equal(t, []string{"$", "_"}, config.Engine.ReservedPrefixes)
}

func TestLoadUsesGlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("poll.interval", "5s")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, config.Poll.Interval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		fields   []string
		warnings int
	}{
		{"default is valid", func(c *Config) {}, nil, 0},
		{"empty prefix", func(c *Config) { c.Engine.ReservedPrefixes = []string{"$", ""} }, []string{"engine.reserved_prefixes"}, 0},
		{"depth below unlimited", func(c *Config) { c.Engine.DefaultDepth = -2 }, []string{"engine.default_depth"}, 0},
		{"zero interval", func(c *Config) { c.Poll.Interval = 0 }, []string{"poll.interval"}, 0},
		{"negative debounce", func(c *Config) { c.Poll.Debounce = -time.Second }, []string{"poll.debounce"}, 0},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, []string{"log.format"}, 0},
		{"guard disabled warns", func(c *Config) { c.Engine.ReentrancyGuard = false }, nil, 1},
		{"debounce over interval warns", func(c *Config) { c.Poll.Debounce = time.Second }, nil, 1},
		{
			"several problems",
			func(c *Config) {
				c.Poll.Interval = -1
				c.Log.Level = "loud"
			},
			[]string{"poll.interval", "log.level"},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)

			result := ValidateWithDetails(c)
			assert.Len(t, result.Warnings, tt.warnings)

			if tt.fields == nil {
				assert.True(t, result.Valid)
				assert.NoError(t, c.Validate())
				return
			}
			assert.False(t, result.Valid)
			assert.Equal(t, tt.fields, result.Fields())

			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
			for _, field := range tt.fields {
				assert.Contains(t, result.String(), field)
			}
		})
	}
}

func TestDecodeSkipsValidation(t *testing.T) {
	v := viper.New()
	v.Set("poll.interval", "-1s")

	config, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, -time.Second, config.Poll.Interval)
	assert.Equal(t, DefaultDebounce, config.Poll.Debounce)

	_, err = LoadFrom(v)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}
