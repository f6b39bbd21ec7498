package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points ALGOSCOPE_HOME at a temp dir and clears the env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("ALGOSCOPE_HOME", home)
	for _, k := range []string{
		"PORT", "ALGOSCOPE_LISTEN_ADDR", "ALGOSCOPE_BASE_URL", "ALGOSCOPE_API_URL",
		"ALGOSCOPE_CATALOG", "ALGOSCOPE_CATALOG_DB", "ALGOSCOPE_LOG_LEVEL",
		"ALGOSCOPE_LOG_FORMAT", "ALGOSCOPE_STRICT", "ALGOSCOPE_CORS_ORIGINS",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.Strict)
}

func TestLoadConfig_SettingsThenEnv(t *testing.T) {
	home := isolate(t)
	settings := "listen_addr: \":7000\"\nlog_level: debug\nstrict: true\ncatalog_path: /srv/cards.yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "settings.yaml"), []byte(settings), 0o644))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "/srv/cards.yaml", cfg.CatalogPath)

	t.Setenv("ALGOSCOPE_LOG_LEVEL", "warn")
	t.Setenv("ALGOSCOPE_STRICT", "false")
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.Strict)
}

func TestLoadConfig_MalformedSettings(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "settings.yaml"), []byte("strict: [nope"), 0o644))

	_, err := loadConfig()
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                   "8080",
		"ALGOSCOPE_CATALOG_DB":   "/data/catalog.db",
		"ALGOSCOPE_CORS_ORIGINS": "http://a.example, http://b.example,",
		"ALGOSCOPE_STRICT":       "not-a-bool",
	}
	cfg := defaultConfig()
	applyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "/data/catalog.db", cfg.CatalogDB)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.Strict, "unparseable bool keeps the previous value")

	env["ALGOSCOPE_LISTEN_ADDR"] = "127.0.0.1:9000"
	applyEnv(&cfg, func(k string) string { return env[k] })
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr, "ALGOSCOPE_LISTEN_ADDR wins over PORT")
}

func TestResolveConfig_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("ALGOSCOPE_LOG_LEVEL", "warn")

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&logLevelArg, "log-level", "", "")
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--log-level", "debug", "--listen-addr", ":6000"}))

	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":6000", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:6000", cfg.BaseURL)
}

func TestDiffConfigs(t *testing.T) {
	old := defaultConfig()

	d := diffConfigs(old, old)
	assert.False(t, d.Reloadable())
	assert.Empty(t, d.RestartNeeded)

	next := old
	next.CatalogDB = "/data/catalog.db"
	next.Strict = true
	next.ListenAddr = ":9000"
	next.CORSOrigins = []string{"http://a.example"}

	d = diffConfigs(old, next)
	assert.True(t, d.CatalogChanged)
	assert.True(t, d.StrictChanged)
	assert.True(t, d.CORSChanged)
	assert.False(t, d.LogLevelChanged)
	assert.True(t, d.Reloadable())
	assert.Equal(t, []string{"listen_addr"}, d.RestartNeeded)
}

func TestWriteSettings_RoundTrip(t *testing.T) {
	isolate(t)

	want := defaultConfig()
	want.CatalogPath = "/srv/cards.json"
	want.Strict = true
	want.BaseURL = "http://localhost:5000"

	path, err := writeSettings(want)
	require.NoError(t, err)
	assert.Equal(t, settingsPath(), path)

	got, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSignalRunningServer_NoPIDFile(t *testing.T) {
	isolate(t)
	_, ok := signalRunningServer()
	assert.False(t, ok)
}
