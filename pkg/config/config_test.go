package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RING_CONFIG_FILE", dir)
	return dir
}

func TestDirUsesEnvOverride(t *testing.T) {
	dir := withTempConfigDir(t)

	got, err := Dir()

	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestLoadReturnsDefaultWhenFileMissing(t *testing.T) {
	withTempConfigDir(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultContextName, cfg.CurrentContext)
	assert.Equal(t, 5, cfg.Scheduler.Interval)
	ctx, err := cfg.Current()
	require.NoError(t, err)
	assert.Equal(t, "http", ctx.API.Scheme)
	assert.Equal(t, 3030, ctx.API.Port)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	withTempConfigDir(t)

	cfg := &Config{
		CurrentContext: "staging",
		Contexts: map[string]Context{
			"staging": {IP: "10.0.0.5", API: API{Scheme: "https", Port: 8443}},
		},
		Scheduler: Scheduler{Interval: 10},
	}
	require.NoError(t, Save(cfg))

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", got.CurrentContext)
	ctx, err := got.Current()
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.5:8443", ctx.URL())
}

func TestCurrentErrorsOnUnknownContext(t *testing.T) {
	cfg := &Config{CurrentContext: "missing", Contexts: map[string]Context{}}

	_, err := cfg.Current()

	assert.Error(t, err)
}

func TestInitCreatesConfigAndAuthFiles(t *testing.T) {
	dir := withTempConfigDir(t)

	require.NoError(t, Init())

	_, err := Load()
	require.NoError(t, err)

	tokens, err := LoadTokens()
	require.NoError(t, err)
	assert.Empty(t, tokens)

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.FileExists(t, filepath.Join(dir, "auth.json"))
}

func TestTokenForReturnsErrorWhenNotLoggedIn(t *testing.T) {
	withTempConfigDir(t)

	_, err := TokenFor("default")

	assert.Error(t, err)
}

func TestSetTokenThenTokenForRoundTrip(t *testing.T) {
	withTempConfigDir(t)

	require.NoError(t, SetToken("default", "abc123"))

	token, err := TokenFor("default")

	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}
