package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/nixplan/internal/adapters/config"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.Filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return dir
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	loader := config.NewLoader()

	settings, err := loader.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "stable", settings.Channel)
	assert.Equal(t, "nixplan.nix", settings.PlanFile)
	assert.Zero(t, settings.Parallelism)
	assert.Empty(t, settings.Systems)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := writeSettings(t, `
channel: nightly
systems:
  - x86_64-linux
  - aarch64-darwin
parallelism: 8
cacheDir: /tmp/nixplan-cache
planFile: plans/workspace.nix
`)

	loader := config.NewLoader()
	settings, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "nightly", settings.Channel)
	assert.Equal(t, []string{"x86_64-linux", "aarch64-darwin"}, settings.Systems)
	assert.Equal(t, 8, settings.Parallelism)
	assert.Equal(t, "/tmp/nixplan-cache", settings.CacheDir)
	assert.Equal(t, "plans/workspace.nix", settings.PlanFile)
}

func TestLoad_PartialFileKeepsRemainingDefaults(t *testing.T) {
	dir := writeSettings(t, "channel: beta\n")

	loader := config.NewLoader()
	settings, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "beta", settings.Channel)
	assert.Equal(t, "nixplan.nix", settings.PlanFile)
}

func TestLoad_NegativeParallelismIgnored(t *testing.T) {
	dir := writeSettings(t, "parallelism: -3\n")

	loader := config.NewLoader()
	settings, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Zero(t, settings.Parallelism)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeSettings(t, "channel: [unterminated\n")

	loader := config.NewLoader()
	_, err := loader.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse settings file")
}
