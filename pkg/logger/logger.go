package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Level уровень логирования
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger простой файловый логгер с уровнями
// Пишет одновременно в файл и stdout
type Logger struct {
	level Level
	out   *log.Logger
	file  *os.File
}

// New создает новый логгер
// file - путь к файлу логов (пустая строка = только stdout)
// level - минимальный уровень: debug, info, warn, error
func New(file string, level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	var f *os.File
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("logger: failed to create log directory: %w", err)
		}

		f, err = os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: failed to open log file: %w", err)
		}
		writers = append(writers, f)
	}

	return &Logger{
		level: lvl,
		out:   log.New(io.MultiWriter(writers...), "", log.LstdFlags|log.Lmsgprefix),
		file:  f,
	}, nil
}

// Close закрывает файл логов
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}

// Debug логирует сообщение с уровнем DEBUG
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(LevelDebug, "DEBUG", format, v...)
}

// Info логирует сообщение с уровнем INFO
func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(LevelInfo, "INFO", format, v...)
}

// Warn логирует сообщение с уровнем WARN
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(LevelWarn, "WARN", format, v...)
}

// Error логирует сообщение с уровнем ERROR
func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(LevelError, "ERROR", format, v...)
}

// Fatal логирует сообщение с уровнем FATAL и завершает процесс
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.logf(LevelError, "FATAL", format, v...)
	l.Close()
	os.Exit(1)
}

func (l *Logger) logf(lvl Level, tag string, format string, v ...interface{}) {
	if lvl < l.level {
		return
	}
	l.out.Printf("["+tag+"] "+format, v...)
}

func parseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("logger: unknown log level %q", level)
	}
}
