package logger

import (
	"strings"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/rs/zerolog"
)

// Format selects how log lines are rendered.
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "console"
	}
}

// Options is the resolved form of config.LogConfig.
type Options struct {
	Level      zerolog.Level
	Format     Format
	Console    bool
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
}

// DefaultOptions logs info and above to stderr.
func DefaultOptions() Options {
	return Options{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		Console:    true,
		MaxSizeMB:  config.DefaultMaxLogSizeMB,
		MaxBackups: config.DefaultMaxLogBackups,
	}
}

// OptionsFromConfig resolves a config.LogConfig. An unknown level falls back
// to info and is reported through the returned error.
func OptionsFromConfig(cfg config.LogConfig) (Options, error) {
	opts := DefaultOptions()
	level, err := ParseLevel(cfg.LogLevel)
	opts.Level = level
	opts.Format = ParseFormat(cfg.LogFormat)
	opts.FilePath = strings.TrimSpace(cfg.LogFile)
	if cfg.MaxLogSizeMB > 0 {
		opts.MaxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		opts.MaxBackups = cfg.MaxLogBackups
	}
	return opts, err
}

// ParseLevel maps a level name to zerolog. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, common.WrapError(err, "invalid log level")
	}
	return level, nil
}

// ParseFormat maps a format name, defaulting to console.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
