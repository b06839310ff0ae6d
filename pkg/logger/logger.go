package logger

import (
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ParseLevel maps a LOG_LEVEL string to a Level; unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	level       Level
	infoLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
}

func New() *Logger {
	return &Logger{
		level:       LevelInfo,
		infoLogger:  log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		debugLogger: log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) Info(format string, v ...interface{}) {
	if l.level <= LevelInfo {
		l.infoLogger.Printf(format, v...)
	}
}

func (l *Logger) Error(format string, v ...interface{}) {
	if l.level <= LevelError {
		l.errorLogger.Printf(format, v...)
	}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	if l.level <= LevelDebug {
		l.debugLogger.Printf(format, v...)
	}
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.errorLogger.Printf(format, v...)
	os.Exit(1)
}

// Global logger instance
var GlobalLogger = New()

// Convenience functions
func SetLevel(level Level) {
	GlobalLogger.SetLevel(level)
}

func Info(format string, v ...interface{}) {
	GlobalLogger.Info(format, v...)
}

func Error(format string, v ...interface{}) {
	GlobalLogger.Error(format, v...)
}

func Debug(format string, v ...interface{}) {
	GlobalLogger.Debug(format, v...)
}

func Fatal(format string, v ...interface{}) {
	GlobalLogger.Fatal(format, v...)
}
