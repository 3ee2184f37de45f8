package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/rs/zerolog"
)

// Builder assembles a zerolog.Logger from Options plus any extra outputs.
type Builder struct {
	opts    Options
	console io.Writer
	extra   []io.Writer
	err     error
}

// NewBuilder starts from DefaultOptions.
func NewBuilder() *Builder {
	return &Builder{opts: DefaultOptions(), console: os.Stderr}
}

// WithConfig applies the application log settings. An unknown level leaves
// the builder at info.
func (b *Builder) WithConfig(cfg config.LogConfig) *Builder {
	b.opts, b.err = OptionsFromConfig(cfg)
	return b
}

// WithConsole toggles the stderr output.
func (b *Builder) WithConsole(enabled bool) *Builder {
	b.opts.Console = enabled
	return b
}

// WithWriter adds a raw JSON output.
func (b *Builder) WithWriter(w io.Writer) *Builder {
	b.extra = append(b.extra, w)
	return b
}

// Options returns the options Build will use.
func (b *Builder) Options() Options {
	return b.opts
}

// Build creates the logger and routes the standard library log package
// (net/http server errors) through it.
func (b *Builder) Build() (zerolog.Logger, error) {
	if b.opts.MaxSizeMB <= 0 {
		return zerolog.Nop(), common.NewValidationError("max_size_mb", b.opts.MaxSizeMB, "max size must be positive")
	}

	var writers []io.Writer
	if b.opts.Console {
		writers = append(writers, formatWriter(b.console, b.opts.Format, true))
	}
	if b.opts.FilePath != "" {
		writers = append(writers, formatWriter(rotatingFile(b.opts), b.opts.Format, false))
	}
	writers = append(writers, b.extra...)
	if len(writers) == 0 {
		return zerolog.Nop(), common.NewError("no output writers configured")
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(b.opts.Level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(log)
	stdlog.SetFlags(0)
	return log, nil
}

// New builds a logger from the application log config. An invalid level
// still yields a working logger at info, with the error reported.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	b := NewBuilder().WithConfig(cfg)
	log, err := b.Build()
	if err != nil {
		return log, err
	}
	if b.err != nil {
		log.Warn().Err(b.err).Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
	}
	return log, nil
}

// Component returns a child logger tagged with the component name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
