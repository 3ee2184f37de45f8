package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, []string{DefaultInitialURL}, cfg.MonitorConfig.URLs)
	assert.Equal(t, []string{"apple"}, cfg.MonitorConfig.Keywords)
	assert.Equal(t, 30, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, 100, cfg.MonitorConfig.HistorySize)
	assert.Equal(t, "#FF0000", cfg.NotificationConfig.BadgeColor)
	assert.Equal(t, DefaultSQLitePath, cfg.StorageConfig.SQLitePath)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "keywatch.yaml")
	configData := `
log_config:
  log_level: debug
monitor_config:
  urls:
    - " https://example.com/forum "
    - ""
    - https://example.com/forum
  keywords: ["Apple", "apple", " pear "]
  check_interval_seconds: 0
storage_config:
  sqlite_path: /tmp/kw.db
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	assert.Equal(t, []string{"https://example.com/forum"}, cfg.MonitorConfig.URLs)
	assert.Equal(t, []string{"Apple", "pear"}, cfg.MonitorConfig.Keywords)
	assert.Equal(t, DefaultCheckIntervalSeconds, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, "/tmp/kw.db", cfg.StorageConfig.SQLitePath)
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "keywatch.json")
	configData := `{
		"monitor_config": {
			"urls": ["http://a"],
			"keywords": ["apple"],
			"check_interval_seconds": 60,
			"timer": "alarm"
		}
	}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, TimerKindAlarm, cfg.MonitorConfig.Timer)
	assert.Equal(t, time.Minute, cfg.MonitorConfig.CheckInterval())
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "keywatch.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("monitor_config: [unterminated"), 0644))

	_, err := LoadGlobalConfig(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config content")
}

func TestSaveGlobalConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"keywatch.yaml", "keywatch.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := NewDefaultGlobalConfig()
			cfg.MonitorConfig.Keywords = []string{"apple", "banana"}

			require.NoError(t, SaveGlobalConfig(cfg, path))
			loaded, err := LoadGlobalConfig(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"apple", "banana"}, loaded.MonitorConfig.Keywords)
		})
	}

	assert.Error(t, SaveGlobalConfig(nil, "x.yaml"))
	assert.Error(t, SaveGlobalConfig(NewDefaultGlobalConfig(), ""))
}

func TestMonitorConfig_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    MonitorConfig
		expected MonitorConfig
	}{
		{
			name:  "non-positive interval falls back to default",
			input: MonitorConfig{CheckIntervalSeconds: -5},
			expected: MonitorConfig{
				URLs:                   []string{},
				Keywords:               []string{},
				CheckIntervalSeconds:   30,
				Timer:                  TimerKindTicker,
				HistorySize:            100,
				UserAgent:              DefaultUserAgent,
				HTTPTimeoutSeconds:     30,
				MaxContentSize:         DefaultMaxContentSize,
				ObserverDebounceMillis: 2000,
			},
		},
		{
			name: "debounce is raised to the minimum",
			input: MonitorConfig{
				URLs:                   []string{"http://a", "http://a", "  "},
				Keywords:               []string{"Apple", "APPLE", "pie"},
				CheckIntervalSeconds:   45,
				Timer:                  TimerKindAlarm,
				HistorySize:            10,
				UserAgent:              "custom",
				HTTPTimeoutSeconds:     5,
				MaxContentSize:         1024,
				ObserverDebounceMillis: 500,
			},
			expected: MonitorConfig{
				URLs:                   []string{"http://a"},
				Keywords:               []string{"Apple", "pie"},
				CheckIntervalSeconds:   45,
				Timer:                  TimerKindAlarm,
				HistorySize:            10,
				UserAgent:              "custom",
				HTTPTimeoutSeconds:     5,
				MaxContentSize:         1024,
				ObserverDebounceMillis: 2000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.input.Normalize()
			assert.True(t, tt.expected.Equal(got), "got %+v", got)
		})
	}
}

func TestMonitorConfig_Durations(t *testing.T) {
	mc := MonitorConfig{}
	assert.Equal(t, 30*time.Second, mc.CheckInterval())
	assert.Equal(t, 30*time.Second, mc.HTTPTimeout())
	assert.Equal(t, 2*time.Second, mc.ObserverDebounce())

	mc.ObserverDebounceMillis = 5000
	assert.Equal(t, 5*time.Second, mc.ObserverDebounce())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *GlobalConfig)
		wantErr string
	}{
		{
			name:    "bad log level",
			mutate:  func(cfg *GlobalConfig) { cfg.LogConfig.LogLevel = "verbose" },
			wantErr: "loglevel",
		},
		{
			name:    "bad timer kind",
			mutate:  func(cfg *GlobalConfig) { cfg.MonitorConfig.Timer = "cron" },
			wantErr: "timerkind",
		},
		{
			name:    "bad url",
			mutate:  func(cfg *GlobalConfig) { cfg.MonitorConfig.URLs = []string{"not a url"} },
			wantErr: "url",
		},
		{
			name:    "empty sqlite path",
			mutate:  func(cfg *GlobalConfig) { cfg.StorageConfig.SQLitePath = "" },
			wantErr: "sqlitepath",
		},
		{
			name: "email enabled without host",
			mutate: func(cfg *GlobalConfig) {
				cfg.NotificationConfig.Email.Enabled = true
			},
			wantErr: "required_if",
		},
		{
			name:    "bad badge color",
			mutate:  func(cfg *GlobalConfig) { cfg.NotificationConfig.BadgeColor = "red" },
			wantErr: "hexcolor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("{}"), 0644))
	envFile := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(envFile, []byte("{}"), 0644))

	t.Setenv(ConfigPathEnv, envFile)
	assert.Equal(t, explicit, GetConfigPath(explicit))
	assert.Equal(t, envFile, GetConfigPath(filepath.Join(dir, "missing.yaml")))
}
