package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all algoscope configuration.
// Priority: flags > env vars > settings.yaml > defaults.
type Config struct {
	ListenAddr  string   `yaml:"listen_addr"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	APIURL      string   `yaml:"api_url,omitempty"`
	CatalogPath string   `yaml:"catalog_path,omitempty"`
	CatalogDB   string   `yaml:"catalog_db,omitempty"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
	Strict      bool     `yaml:"strict"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:  ":5000",
		LogLevel:    "info",
		LogFormat:   "text",
		CORSOrigins: []string{"*"},
	}
}

func algoscopeDir() string {
	if v := os.Getenv("ALGOSCOPE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".algoscope"
	}
	return filepath.Join(home, ".algoscope")
}

func settingsPath() string {
	return filepath.Join(algoscopeDir(), "settings.yaml")
}

func pidPath() string {
	return filepath.Join(algoscopeDir(), "algoscope.pid")
}

// loadConfig layers settings.yaml and the environment over the defaults.
// A missing settings file is not an error; a malformed one is.
func loadConfig() (Config, error) {
	cfg := defaultConfig()

	if data, err := os.ReadFile(settingsPath()); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", settingsPath(), err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", settingsPath(), err)
	}

	applyEnv(&cfg, os.Getenv)
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}
	if v := getenv("ALGOSCOPE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := getenv("ALGOSCOPE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := getenv("ALGOSCOPE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := getenv("ALGOSCOPE_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := getenv("ALGOSCOPE_CATALOG_DB"); v != "" {
		cfg.CatalogDB = v
	}
	if v := getenv("ALGOSCOPE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("ALGOSCOPE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := getenv("ALGOSCOPE_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strict = b
		}
	}
	if v := getenv("ALGOSCOPE_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configDiff describes what changed between two configurations.
type configDiff struct {
	CatalogChanged  bool
	StrictChanged   bool
	CORSChanged     bool
	LogLevelChanged bool
	RestartNeeded   []string // fields that require a server restart
}

// Reloadable reports whether anything the running server can apply changed.
func (d configDiff) Reloadable() bool {
	return d.CatalogChanged || d.StrictChanged || d.CORSChanged || d.LogLevelChanged
}

func diffConfigs(old, new Config) configDiff {
	var d configDiff
	if old.CatalogPath != new.CatalogPath || old.CatalogDB != new.CatalogDB {
		d.CatalogChanged = true
	}
	if old.Strict != new.Strict {
		d.StrictChanged = true
	}
	if strings.Join(old.CORSOrigins, ",") != strings.Join(new.CORSOrigins, ",") {
		d.CORSChanged = true
	}
	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
	}
	if old.ListenAddr != new.ListenAddr {
		d.RestartNeeded = append(d.RestartNeeded, "listen_addr")
	}
	if old.BaseURL != new.BaseURL {
		d.RestartNeeded = append(d.RestartNeeded, "base_url")
	}
	if old.LogFormat != new.LogFormat {
		d.RestartNeeded = append(d.RestartNeeded, "log_format")
	}
	return d
}
