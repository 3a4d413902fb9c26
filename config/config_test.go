package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join("data", "data_cleaned.csv"), cfg.Paths.Resolve(cfg.Paths.Cleaned))
	assert.Equal(t, "/abs/x.csv", cfg.Paths.Resolve("/abs/x.csv"))
	assert.Equal(t, 5*time.Minute, cfg.Sources.Timeout)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, "GM1992", reg.Code("GM0501"))
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  log_level: debug
sources:
  timeout: 30s
  concurrency: 0
paths:
  data_dir: /srv/covid
geo:
  code_property: gemeentecode
reconcile:
  fusions:
    - {from: GM0001, from_name: Old, to: GM0002, to_name: New}
`), 0o644))

	t.Setenv("COVIDNL_ADDR", ":9999")
	t.Setenv("COVIDNL_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.App.LogLevel, "env wins over yaml")
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "/srv/covid", cfg.Paths.DataDir)
	assert.Equal(t, "cases_2.csv", cfg.Paths.Cases, "unset keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, 1, cfg.Sources.Concurrency)
	assert.Equal(t, "gemeentecode", cfg.Geo.CodeProperty)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, "GM0002", reg.Code("GM0001"))
	assert.Equal(t, "GM0501", reg.Code("GM0501"), "custom rules replace defaults")
}

func TestLoadRejectsInvalidRules(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
reconcile:
  fusions:
    - {from: GM0001, to: GM0001, to_name: Same}
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := Default()
	cfg.Server.Addr = ":7070"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", loaded.Server.Addr)
	assert.Error(t, Save(path, nil))
}
