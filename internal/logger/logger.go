// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type Logger struct {
	mu          sync.Mutex
	infoLogger  *log.Logger
	errorLogger *log.Logger
	level       LogLevel
}

var (
	defaultLogger *Logger
	// swapped out by tests so Fatal doesn't kill the test binary
	exit = os.Exit
)

func init() {
	defaultLogger = NewLogger(INFO)
}

func NewLogger(level LogLevel) *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "", log.Ldate|log.Ltime),
		errorLogger: log.New(os.Stderr, "", log.Ldate|log.Ltime),
		level:       level,
	}
}

func (l *Logger) log(level LogLevel, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	// skip log() and the package level wrapper
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}

	msg := format
	if len(v) > 0 {
		msg = fmt.Sprintf(format, v...)
	}

	logMsg := fmt.Sprintf("[%s] %s:%d: %s", level.String(), filepath.Base(file), line, msg)

	if level >= ERROR {
		l.errorLogger.Println(logMsg)
	} else {
		l.infoLogger.Println(logMsg)
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string such as "debug" or "WARN" to a LogLevel.
// Unknown names fall back to INFO and report false.
func ParseLevel(name string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO", "":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	}
	return INFO, false
}

// SetLevel changes the minimum level written by the default logger
func SetLevel(level LogLevel) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

// SetOutput redirects both streams of the default logger. Passing nil
// restores stdout/stderr.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if w == nil {
		defaultLogger.infoLogger.SetOutput(os.Stdout)
		defaultLogger.errorLogger.SetOutput(os.Stderr)
		return
	}
	defaultLogger.infoLogger.SetOutput(w)
	defaultLogger.errorLogger.SetOutput(w)
}

// Convenience methods using the default logger
func Debug(format string, v ...any) {
	defaultLogger.log(DEBUG, format, v...)
}

func Info(format string, v ...any) {
	defaultLogger.log(INFO, format, v...)
}

func Warn(format string, v ...any) {
	defaultLogger.log(WARN, format, v...)
}

func Error(format string, v ...any) {
	defaultLogger.log(ERROR, format, v...)
}

// Fatal logs regardless of level and exits the process
func Fatal(format string, v ...any) {
	defaultLogger.log(FATAL, format, v...)
	exit(1)
}
