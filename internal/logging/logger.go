package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из строки (регистр не важен)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
}

func (l LogLevel) toLogrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger логгер компонента поверх общего logrus.Logger
type Logger struct {
	component string
	entry     *logrus.Entry

	mu       sync.RWMutex
	minLevel LogLevel
}

func newLogger(base *logrus.Logger, component string, level LogLevel) *Logger {
	return &Logger{
		component: component,
		entry:     base.WithField("component", component),
		minLevel:  level,
	}
}

// Component возвращает имя компонента
func (l *Logger) Component() string { return l.component }

// SetLevel меняет минимальный уровень сообщений
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.minLevel = level
	l.mu.Unlock()
}

// Level возвращает текущий минимальный уровень
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minLevel
}

// WithFields возвращает запись logrus с дополнительными полями
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.entry.WithFields(fields)
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil || level < l.Level() {
		return
	}
	l.entry.Log(level.toLogrus(), fmt.Sprintf(format, args...))
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Options настройки системы логирования.
// Пустые значения берутся из окружения: LOG_LEVEL, LOG_FORMAT, LOG_DIR.
type Options struct {
	Level  string
	Format string // text | json
	Dir    string // если задан, логи дублируются в файл
	Output io.Writer
}

func (o Options) withEnv() Options {
	if o.Level == "" {
		o.Level = os.Getenv("LOG_LEVEL")
	}
	if o.Format == "" {
		o.Format = os.Getenv("LOG_FORMAT")
	}
	if o.Dir == "" {
		o.Dir = os.Getenv("LOG_DIR")
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	return o
}

var (
	base    = logrus.New()
	logFile *os.File

	defaultLogger = newLogger(base, "default", INFO)
)

func init() {
	base.SetLevel(logrus.TraceLevel)
	base.SetFormatter(textFormatter())
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
}

// InitDefaultLogger настраивает общий логгер для процесса
func InitDefaultLogger(component string) error {
	return Configure(component, Options{})
}

// Configure настраивает общий логгер явными параметрами
func Configure(component string, opts Options) error {
	opts = opts.withEnv()

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	if strings.EqualFold(opts.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		base.SetFormatter(textFormatter())
	}

	out := opts.Output
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return fmt.Errorf("ошибка создания директории логов: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))
		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		CloseDefaultLogger()
		logFile = file
		out = io.MultiWriter(out, file)
	}
	base.SetOutput(out)

	defaultLogger = newLogger(base, component, level)
	GetLoggerManager().setDefaultLevel(level)
	return nil
}

// CloseDefaultLogger закрывает файл логов, если он открыт
func CloseDefaultLogger() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Default возвращает логгер процесса
func Default() *Logger { return defaultLogger }

func Trace(format string, args ...interface{}) { defaultLogger.Trace(format, args...) }
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
