package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of rotated files to keep
	MaxBackups int
}

// FileLogger implements Logger with file output and size-based rotation
type FileLogger struct {
	config FileLoggerConfig
	fields Fields

	mu   *sync.Mutex
	file *os.File
	size *int64
}

// entry is the serialized form of a log record
type entry struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Error   string                 `json:"error,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// NewFileLogger creates a new file logger
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	size := info.Size()
	return &FileLogger{
		config: config,
		mu:     &sync.Mutex{},
		file:   file,
		size:   &size,
	}, nil
}

// Debug logs a debug message
func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger sharing the same file with additional fields
func (l *FileLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &FileLogger{
		config: l.config,
		fields: merged,
		mu:     l.mu,
		file:   l.file,
		size:   l.size,
	}
}

// Close flushes and closes the underlying file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *FileLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.config.Level {
		return
	}

	e := entry{
		Time:    time.Now().Format(time.RFC3339),
		Level:   level.String(),
		Message: msg,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if len(l.fields) > 0 || len(fields) > 0 {
		e.Fields = make(map[string]interface{}, len(l.fields)+len(fields))
		for k, v := range l.fields {
			e.Fields[k] = v
		}
		for k, v := range fields {
			e.Fields[k] = v
		}
	}

	var line string
	if l.config.Format == FormatJSON {
		data, marshalErr := json.Marshal(e)
		if marshalErr != nil {
			return
		}
		line = string(data) + "\n"
	} else {
		line = l.formatText(e)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}

	if l.config.MaxSize > 0 && *l.size+int64(len(line)) > l.config.MaxSize {
		l.rotate()
	}

	n, writeErr := l.file.WriteString(line)
	if writeErr == nil {
		*l.size += int64(n)
	}
}

func (l *FileLogger) formatText(e entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", e.Time, strings.ToUpper(e.Level), e.Message)
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// rotate renames the current file to a numbered backup and reopens it.
// Caller must hold the mutex.
func (l *FileLogger) rotate() {
	l.file.Close()

	// Shift existing backups: path.N-1 -> path.N
	for i := l.config.MaxBackups; i >= 1; i-- {
		older := fmt.Sprintf("%s.%d", l.config.Path, i)
		if i == l.config.MaxBackups {
			os.Remove(older)
			continue
		}
		newer := fmt.Sprintf("%s.%d", l.config.Path, i+1)
		os.Rename(older, newer)
	}
	if l.config.MaxBackups > 0 {
		os.Rename(l.config.Path, l.config.Path+".1")
	} else {
		os.Remove(l.config.Path)
	}

	file, err := os.OpenFile(l.config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l.file = nil
		return
	}
	l.file = file
	*l.size = 0
}
