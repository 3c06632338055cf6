package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ncobase/weibo-agent/ctxutil"
	"github.com/ncobase/weibo-agent/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// Field names attached to every entry when present.
const (
	VersionKey = "version"
	traceKey   = ctxutil.TraceIDKey
	taskKey    = ctxutil.TaskIDKey
)

// Logger wraps logrus with context aware, key/value style methods.
type Logger struct {
	*logrus.Logger
	version  string
	mu       sync.Mutex
	logFile  *os.File
	logPath  string
	redactor *redactor
}

var (
	standardLogger *Logger
	once           sync.Once
)

// StdLogger returns the process wide logger.
func StdLogger() *Logger {
	once.Do(func() {
		standardLogger = newLogger()
	})
	return standardLogger
}

func newLogger() *Logger {
	l := &Logger{Logger: logrus.New()}
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.redactor = newRedactor(config.Default())
	return l
}

// New initializes the standard logger with cfg.
func New(cfg *config.Config) (func(), error) {
	return StdLogger().Init(cfg)
}

// NewWithWriter builds a standalone logger writing to w, used by tests and
// embedded runtimes that must not touch the process wide logger.
func NewWithWriter(w io.Writer, level logrus.Level) *Logger {
	l := newLogger()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

// SetVersion sets the version for logging
func (l *Logger) SetVersion(v string) {
	l.version = v
}

// Init applies cfg and returns a cleanup function closing any log file.
func (l *Logger) Init(cfg *config.Config) (func(), error) {
	if cfg == nil {
		cfg = config.Default()
	}
	l.SetLevel(logrus.Level(cfg.Level))
	l.redactor = newRedactor(cfg)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch cfg.Output {
	case "stderr":
		l.SetOutput(os.Stderr)
	case "file":
		l.logPath = cfg.OutputFile
		if l.logPath == "" {
			return nil, fmt.Errorf("logger output is file but output_file is empty")
		}
		if err := l.setupLogFile(); err != nil {
			return nil, err
		}
		go l.periodicLogRotation()
	default:
		l.SetOutput(os.Stdout)
	}

	if cfg.ReportErrors {
		l.AddHook(NewSentryHook())
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.logFile != nil {
			_ = l.logFile.Close()
			l.logFile = nil
		}
	}, nil
}

func (l *Logger) setupLogFile() error {
	if err := os.MkdirAll(filepath.Dir(l.logPath), 0o755); err != nil {
		return err
	}
	return l.rotateLog()
}

func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			return err
		}
	}

	name := fmt.Sprintf("%s.%s.log", strings.TrimSuffix(l.logPath, ".log"), time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(name, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}

	l.logFile = f
	l.SetOutput(f)
	return nil
}

func (l *Logger) periodicLogRotation() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := l.rotateLog(); err != nil {
			l.Logger.Errorf("Error rotating log: %v", err)
		}
	}
}

// entryFromContext creates a new log entry with fields from context and kv
// pairs. A trailing key without a value is logged under "extra".
func (l *Logger) entryFromContext(ctx context.Context, kv ...any) *logrus.Entry {
	fields := logrus.Fields{}

	if ctx != nil {
		if traceID := ctxutil.GetTraceID(ctx); traceID != "" {
			fields[traceKey] = traceID
		}
		if taskID := ctxutil.GetTaskID(ctx); taskID != "" {
			fields[taskKey] = taskID
		}
	}
	if l.version != "" {
		fields[VersionKey] = l.version
	}

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			fields["extra"] = key
			break
		}
		val := kv[i+1]
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		fields[key] = val
	}

	return l.WithFields(l.redactor.apply(fields))
}

func (l *Logger) log(ctx context.Context, level logrus.Level, msg string, kv ...any) {
	if !l.IsLevelEnabled(level) {
		return
	}
	l.entryFromContext(ctx, kv...).Log(level, msg)
}

// Debug logs msg with key/value pairs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.DebugLevel, msg, kv...)
}

// Info logs msg with key/value pairs at info level.
func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.InfoLevel, msg, kv...)
}

// Warn logs msg with key/value pairs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.WarnLevel, msg, kv...)
}

// Error logs msg with key/value pairs at error level.
func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.ErrorLevel, msg, kv...)
}

// Fatal logs msg and exits.
func (l *Logger) Fatal(ctx context.Context, msg string, kv ...any) {
	l.entryFromContext(ctx, kv...).Fatal(msg)
}

// Debug logs through the standard logger.
func Debug(ctx context.Context, msg string, kv ...any) { StdLogger().Debug(ctx, msg, kv...) }

// Info logs through the standard logger.
func Info(ctx context.Context, msg string, kv ...any) { StdLogger().Info(ctx, msg, kv...) }

// Warn logs through the standard logger.
func Warn(ctx context.Context, msg string, kv ...any) { StdLogger().Warn(ctx, msg, kv...) }

// Error logs through the standard logger.
func Error(ctx context.Context, msg string, kv ...any) { StdLogger().Error(ctx, msg, kv...) }

// Fatal logs through the standard logger and exits.
func Fatal(ctx context.Context, msg string, kv ...any) { StdLogger().Fatal(ctx, msg, kv...) }
