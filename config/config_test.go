package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "changeme", cfg.EditToken)
	assert.Equal(t, ModeFull, cfg.EditMode)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, int64(50<<20), cfg.MaxBodyBytes)
	assert.True(t, cfg.LiveUpdates)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.False(t, cfg.ReadOnly())
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, filepath.Join(".", "dane.json"), cfg.DataFile())
	assert.Equal(t, filepath.Join(".", "year.txt"), cfg.YearFile())
}

func TestFromEnvTokenPrecedence(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"EDIT_PASSWORD": "pw"}))
	require.NoError(t, err)
	assert.Equal(t, "pw", cfg.EditToken)

	cfg, err = FromEnv(envOf(map[string]string{"EDIT_PASSWORD": "pw", "EDIT_TOKEN": "tok"}))
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.EditToken)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"EDIT_MODE":        "ReadOnly",
		"PORT":             "3000",
		"DATA_DIR":         "/data",
		"LIVE_UPDATES":     "false",
		"RATE_LIMIT_RPS":   "2.5",
		"RATE_LIMIT_BURST": "4",
		"TRUSTED_PROXY":    "true",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.ReadOnly())
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, filepath.Join("/data", "dane.json"), cfg.DataFile())
	assert.False(t, cfg.LiveUpdates)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 4, cfg.RateLimitBurst)
	assert.True(t, cfg.TrustProxy)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port":  {"PORT": "http"},
		"body":  {"MAX_BODY_BYTES": "-1"},
		"live":  {"LIVE_UPDATES": "maybe"},
		"rps":   {"RATE_LIMIT_RPS": "-3"},
		"burst": {"RATE_LIMIT_BURST": "0"},
		"proxy": {"TRUSTED_PROXY": "sometimes"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}
