package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ConfigManager owns the loaded configuration and doubles as the settings
// store: Get, Set and OnChange operate on the monitor section, while file
// edits are picked up through an fsnotify watcher.
type ConfigManager struct {
	mu           sync.RWMutex
	config       *GlobalConfig
	configPath   string
	logger       zerolog.Logger
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	stopOnce     sync.Once
	lastModified time.Time

	validationEnabled bool
	hotReloadEnabled  bool
	reloadDelay       time.Duration

	listenersMu sync.Mutex
	listeners   []func(MonitorConfig)
}

// ConfigManagerOptions holds options for creating a ConfigManager
type ConfigManagerOptions struct {
	Logger            zerolog.Logger
	ValidationEnabled bool
	HotReloadEnabled  bool
	ReloadDelay       time.Duration
	// CreateIfMissing writes the default configuration to the given path
	// when the file does not exist yet.
	CreateIfMissing bool
}

// DefaultConfigManagerOptions returns default options for ConfigManager
func DefaultConfigManagerOptions() ConfigManagerOptions {
	return ConfigManagerOptions{
		Logger:            zerolog.Nop(),
		ValidationEnabled: true,
		HotReloadEnabled:  false,
		ReloadDelay:       time.Second * 2, // 2 second delay to avoid rapid reloads
	}
}

// NewConfigManager creates a new centralized configuration manager
func NewConfigManager(configPath string, opts ConfigManagerOptions) (*ConfigManager, error) {
	cm := &ConfigManager{
		configPath:        configPath,
		logger:            opts.Logger.With().Str("component", "ConfigManager").Logger(),
		stopChan:          make(chan struct{}),
		validationEnabled: opts.ValidationEnabled,
		hotReloadEnabled:  opts.HotReloadEnabled,
		reloadDelay:       opts.ReloadDelay,
	}
	if cm.reloadDelay <= 0 {
		cm.reloadDelay = 2 * time.Second
	}

	if opts.CreateIfMissing && configPath != "" && !fileExists(configPath) {
		if err := SaveGlobalConfig(NewDefaultGlobalConfig(), configPath); err != nil {
			return nil, fmt.Errorf("failed to write default configuration: %w", err)
		}
		cm.logger.Info().Str("path", configPath).Msg("Wrote default configuration")
	}

	if _, err := cm.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	if cm.hotReloadEnabled && cm.configPath != "" {
		if err := cm.setupFileWatcher(); err != nil {
			cm.logger.Warn().Err(err).Msg("Failed to setup file watcher, hot-reload disabled")
			cm.hotReloadEnabled = false
		}
	}

	return cm, nil
}

// GetConfig returns a copy of the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return copyConfig(cm.config)
}

// Get returns the current monitor settings
func (cm *ConfigManager) Get() MonitorConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.config == nil {
		return NewDefaultMonitorConfig()
	}
	return cm.config.MonitorConfig.Clone()
}

// Set normalizes, validates and stores new monitor settings, persisting
// them to the config file when one is in use. Change listeners run after
// the new value is visible.
func (cm *ConfigManager) Set(mc MonitorConfig) error {
	mc = mc.Normalize()
	if cm.validationEnabled {
		if err := ValidateMonitorConfig(mc); err != nil {
			return err
		}
	}

	cm.mu.Lock()
	previous := cm.config.MonitorConfig
	next := copyConfig(cm.config)
	next.MonitorConfig = mc.Clone()

	if cm.configPath != "" {
		if err := SaveGlobalConfig(next, cm.configPath); err != nil {
			cm.mu.Unlock()
			return fmt.Errorf("failed to save configuration to file: %w", err)
		}
		if stat, err := os.Stat(cm.configPath); err == nil {
			cm.lastModified = stat.ModTime()
		}
	}
	cm.config = next
	cm.mu.Unlock()

	cm.logger.Info().
		Int("urls", len(mc.URLs)).
		Int("keywords", len(mc.Keywords)).
		Int("interval_seconds", mc.CheckIntervalSeconds).
		Msg("Monitor settings updated")

	if !previous.Equal(mc) {
		cm.notify(mc)
	}
	return nil
}

// OnChange registers fn to be called with the new monitor settings whenever
// they change, whether through Set or a reload of the file.
func (cm *ConfigManager) OnChange(fn func(MonitorConfig)) {
	cm.listenersMu.Lock()
	defer cm.listenersMu.Unlock()
	cm.listeners = append(cm.listeners, fn)
}

// ReloadConfig manually reloads the configuration from file
func (cm *ConfigManager) ReloadConfig() error {
	cm.mu.Lock()
	previous := cm.config.MonitorConfig
	current, err := cm.loadConfig()
	cm.mu.Unlock()
	if err != nil {
		return err
	}

	if !previous.Equal(current.MonitorConfig) {
		cm.notify(current.MonitorConfig.Clone())
	}
	return nil
}

// GetConfigPath returns the current configuration file path
func (cm *ConfigManager) GetConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// IsHotReloadEnabled returns whether hot-reload is enabled
func (cm *ConfigManager) IsHotReloadEnabled() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.hotReloadEnabled
}

// Close stops the configuration manager and cleans up resources
func (cm *ConfigManager) Close() error {
	cm.stopOnce.Do(func() { close(cm.stopChan) })

	if cm.watcher != nil {
		return cm.watcher.Close()
	}
	return nil
}

// StartHotReload starts the hot-reload goroutine (non-blocking)
func (cm *ConfigManager) StartHotReload(ctx context.Context) {
	if !cm.hotReloadEnabled {
		return
	}
	go cm.hotReloadLoop(ctx)
}

func (cm *ConfigManager) notify(mc MonitorConfig) {
	cm.listenersMu.Lock()
	listeners := append([]func(MonitorConfig){}, cm.listeners...)
	cm.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(mc.Clone())
	}
}

// loadConfig loads configuration from file. Callers hold cm.mu.
func (cm *ConfigManager) loadConfig() (*GlobalConfig, error) {
	if cm.configPath == "" {
		cm.configPath = GetConfigPath("")
	}

	cfg, err := LoadGlobalConfig(cm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cm.validationEnabled {
		if err := ValidateConfig(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	if cm.configPath != "" {
		if stat, err := os.Stat(cm.configPath); err == nil {
			cm.lastModified = stat.ModTime()
		}
	}

	cm.config = cfg
	cm.logger.Info().Str("path", cm.configPath).Msg("Configuration loaded successfully")
	return cfg, nil
}

func (cm *ConfigManager) setupFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic replacements of the file are seen
	configDir := filepath.Dir(cm.configPath)
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory '%s': %w", configDir, err)
	}

	cm.watcher = watcher
	cm.logger.Info().Str("directory", configDir).Msg("File watcher setup for hot-reload")
	return nil
}

func (cm *ConfigManager) hotReloadLoop(ctx context.Context) {
	if cm.watcher == nil {
		return
	}

	target := filepath.Clean(cm.GetConfigPath())
	reloadTimer := time.NewTimer(0)
	reloadTimer.Stop()
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			cm.logger.Info().Msg("Hot-reload loop stopped due to context cancellation")
			return

		case <-cm.stopChan:
			cm.logger.Info().Msg("Hot-reload loop stopped")
			return

		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) == target && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				cm.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Config file change detected")
				reloadTimer.Reset(cm.reloadDelay)
			}

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Error().Err(err).Msg("File watcher error")

		case <-reloadTimer.C:
			stat, err := os.Stat(target)
			if err != nil {
				continue
			}
			cm.mu.RLock()
			changed := stat.ModTime().After(cm.lastModified)
			cm.mu.RUnlock()
			if !changed {
				continue
			}
			cm.logger.Info().Msg("Reloading configuration due to file change")
			if err := cm.ReloadConfig(); err != nil {
				cm.logger.Error().Err(err).Msg("Failed to reload configuration, keeping previous settings")
			}
		}
	}
}

func copyConfig(src *GlobalConfig) *GlobalConfig {
	if src == nil {
		return NewDefaultGlobalConfig()
	}

	dst := *src
	dst.MonitorConfig = src.MonitorConfig.Clone()
	dst.NotificationConfig.MentionRoleIDs = append([]string(nil), src.NotificationConfig.MentionRoleIDs...)
	dst.NotificationConfig.Email.To = append([]string(nil), src.NotificationConfig.Email.To...)
	return &dst
}
