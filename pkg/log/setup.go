// Package log wires the global logrus logger to the console and a rotated
// log file.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const fileExt = "log"

// Options controls log level, output targets and file rotation.
type Options struct {
	// Name is the log file base name, usually the application name.
	Name string
	// Dir is the directory the rotated files live in.
	Dir string
	// Debug lowers the level to debug.
	Debug bool
	// Console mirrors all log output to stdout.
	Console bool

	MaxSizeMB  int // size per file before rotation
	MaxBackups int // rotated files kept
	MaxAgeDays int // days a rotated file is kept, 0 keeps forever
}

// Setup configures the global logrus logger. The returned closer flushes the
// rotated file and must be closed on shutdown.
func Setup(opts Options) (io.Closer, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("log setup: name must not be empty")
	}

	level := logrus.InfoLevel
	if opts.Debug {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	dir := opts.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("log setup: creating log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("%s.%s", opts.Name, fileExt)),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		LocalTime:  true,
	}

	writers := []io.Writer{rotator}
	if opts.Console {
		writers = append(writers, os.Stdout)
	}
	logrus.SetOutput(io.MultiWriter(writers...))

	return rotator, nil
}
