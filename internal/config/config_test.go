package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policylens/pkg/policytypes"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultAskTimeout, cfg.AskTimeout)
	assert.Equal(t, DefaultDownloadInterval, cfg.DownloadInterval)
	assert.Equal(t, DefaultProbeInterval, cfg.ProbeInterval)
	assert.Equal(t, policytypes.DefaultHistoryCapacity, cfg.HistoryCapacity)
	assert.False(t, cfg.TestMode)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLICYLENS_BASE_URL", "http://backend:8080")
	t.Setenv("POLICYLENS_ACTOR", "reviewer")
	t.Setenv("POLICYLENS_ASK_TIMEOUT", "30s")
	t.Setenv("POLICYLENS_TEST_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.BaseURL)
	assert.Equal(t, "reviewer", cfg.Actor)
	assert.Equal(t, 30*time.Second, cfg.AskTimeout)
	assert.True(t, cfg.TestMode)
	assert.True(t, cfg.IsTestMode())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty base url",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: "base_url",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.AskTimeout = 0 },
			wantErr: "ask_timeout",
		},
		{
			name:    "non-positive capacity",
			mutate:  func(c *Config) { c.HistoryCapacity = -1 },
			wantErr: "history_capacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				BaseURL:         DefaultBaseURL,
				AskTimeout:      DefaultAskTimeout,
				HistoryCapacity: policytypes.DefaultHistoryCapacity,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
