// Package logger builds the zerolog logger shared by arbor's packages.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o644

// Build collects logger settings before Make creates the logger.
type Build struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

// Logger is a built logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New starts a builder writing to stderr at info level.
func New() *Build {
	return &Build{writer: os.Stderr, level: zerolog.InfoLevel}
}

// FromPath sends output to a file, appending.
func (b *Build) FromPath(path string) *Build {
	b.path = path
	return b
}

// FromWriter sends output to w.
func (b *Build) FromWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

// Level sets the minimum level by name ("debug", "info", "warn", "error",
// "disabled"). Unknown names leave the level unchanged.
func (b *Build) Level(name string) *Build {
	if name == "" {
		return b
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil {
		b.level = lvl
	}
	return b
}

// Make creates the logger. A path set with FromPath wins over the writer.
func (b *Build) Make() (*Logger, error) {
	l := &Logger{}
	w := b.writer
	if b.path != "" {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		l.file = f
		w = zerolog.SyncWriter(f)
	}
	if w == nil {
		w = io.Discard
	}
	l.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return l, nil
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
