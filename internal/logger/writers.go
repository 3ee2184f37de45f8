package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// formatWriter wraps out so that lines come out in the given format.
func formatWriter(out io.Writer, format Format, color bool) io.Writer {
	if format == FormatJSON {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    format == FormatText || !color,
	}
}

// rotatingFile returns a size-rotated file. lumberjack opens the file lazily,
// so the directory is created up front.
func rotatingFile(opts Options) io.Writer {
	_ = os.MkdirAll(filepath.Dir(opts.FilePath), 0o755)
	return &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		LocalTime:  true,
	}
}
