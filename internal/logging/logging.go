// Package logging builds the zerolog loggers used across pageforge.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Build collects logger options; Make produces the logger.
type Build struct {
	writer io.Writer
	path   string
	level  zerolog.Level
	pretty bool
}

// Log is a built logger together with the file it writes to, if any.
type Log struct {
	Logger  zerolog.Logger
	LogFile *os.File
}

// New starts a builder that writes info and above to stderr.
func New() *Build {
	return &Build{level: zerolog.InfoLevel}
}

// FromPath appends log lines to the file at path.
func (b *Build) FromPath(path string) *Build {
	b.path = path
	return b
}

// FromWriter writes log lines to w.
func (b *Build) FromWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

// Level sets the minimum level by name ("debug", "info", "warn", ...). An
// empty name keeps the current level.
func (b *Build) Level(name string) *Build {
	if name == "" {
		return b
	}
	if lvl, err := zerolog.ParseLevel(name); err == nil {
		b.level = lvl
	}
	return b
}

// Verbose lowers the level to debug when v is set.
func (b *Build) Verbose(v bool) *Build {
	if v {
		b.level = zerolog.DebugLevel
	}
	return b
}

// Pretty switches to human-readable console output.
func (b *Build) Pretty(p bool) *Build {
	b.pretty = p
	return b
}

// Make opens the destination and returns the logger.
func (b *Build) Make() (*Log, error) {
	out := &Log{}
	var w io.Writer = os.Stderr
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out.LogFile = f
		w = zerolog.SyncWriter(f)
	}
	if b.pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: b.path != ""}
	}
	out.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return out, nil
}

// Close closes the log file when one was opened.
func (l *Log) Close() error {
	if l.LogFile == nil {
		return nil
	}
	return l.LogFile.Close()
}
