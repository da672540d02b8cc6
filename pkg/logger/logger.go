package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the shared application logger.
	Logger *logrus.Logger

	mu         sync.Mutex
	fileWriter io.Writer
)

// Config controls log level, format and the rolling file output.
type Config struct {
	Level      string // debug, info, warn, error
	OutputFile string // empty: console only
	MaxSize    int    // megabytes per file before rotation
	MaxBackups int    // rotated files to keep
	MaxAge     int    // days to keep rotated files
	Compress   bool
}

// Init sets up the shared logger. Output goes to stdout and, when a file
// is configured, to a size-rotated log file as well.
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05",
	}
	logger.SetFormatter(formatter)

	writers := []io.Writer{os.Stdout}
	fileWriter = nil

	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o755); err != nil {
			return err
		}
		fileWriter = &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		writers = append(writers, fileWriter)
	}

	out := io.MultiWriter(writers...)
	logger.SetOutput(out)

	// Keep the global logrus instance aligned so package-level
	// logrus.WithField loggers land in the same outputs.
	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	Logger = logger
	return nil
}

// InitDefault initializes with sensible defaults for interactive use.
func InitDefault() error {
	return Init(Config{
		Level:      "info",
		OutputFile: "logs/tradedesk.log",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	})
}

// RedirectToFile drops the stdout writer so log lines cannot tear the
// terminal UI. A no-op when no file output was configured.
func RedirectToFile() {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return
	}
	if Logger != nil {
		Logger.SetOutput(fileWriter)
	}
	logrus.SetOutput(fileWriter)
}

// AddHook installs a hook on both the shared and the global logger.
func AddHook(hook logrus.Hook) {
	mu.Lock()
	defer mu.Unlock()
	if Logger != nil {
		Logger.AddHook(hook)
	}
	logrus.AddHook(hook)
}

func Debug(args ...any) {
	if Logger != nil {
		Logger.Debug(args...)
	}
}

func Debugf(format string, args ...any) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

func Info(args ...any) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

func Infof(format string, args ...any) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

func Warn(args ...any) {
	if Logger != nil {
		Logger.Warn(args...)
	}
}

func Warnf(format string, args ...any) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

func Error(args ...any) {
	if Logger != nil {
		Logger.Error(args...)
	}
}

func Errorf(format string, args ...any) {
	if Logger != nil {
		Logger.Errorf(format, args...)
	}
}

// WithField attaches a field to the shared logger's context.
func WithField(key string, value any) *logrus.Entry {
	if Logger != nil {
		return Logger.WithField(key, value)
	}
	return logrus.NewEntry(logrus.New())
}
