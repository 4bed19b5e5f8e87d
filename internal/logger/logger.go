// Package logger writes one JSON object per line for the agenda's
// diagnostics and keeps in-process counters, gauges and timings.
//
// Sheet and snapshot failures never reach the person reading the agenda;
// they end up here, at WARN or ERROR, and in the ingest.* counters.
//
//	logger.Warn("Sheet unavailable, serving snapshot", logger.Fields{
//	    "snapshot": "data/events.json",
//	})
//	logger.IncrCounter("ingest.fallback")
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the severity written in each entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel reads the log_level config value. Case and surrounding spaces
// are ignored and an empty value means INFO.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if level == "" {
		return LevelInfo, nil
	}
	if _, ok := levelRank[level]; !ok {
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
	return level, nil
}

// Fields are the structured values attached to an entry.
type Fields map[string]interface{}

// Entry is one line of log output.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger writes entries at or above its level to w.
type Logger struct {
	mu    sync.Mutex
	level Level
	w     io.Writer
}

// New returns a Logger that drops entries below level.
func New(level Level, w io.Writer) *Logger {
	return &Logger{level: level, w: w}
}

// Diagnostics go to stderr; stdout carries command output.
var defaultLogger = New(LevelInfo, os.Stderr)

// SetDefault replaces the logger behind Debug, Info, Warn and Error.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if levelRank[level] < levelRank[l.level] {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	line, mErr := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	if mErr != nil {
		fmt.Fprintf(l.w, "%s %s %s (unencodable fields: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, mErr)
		return
	}
	l.w.Write(append(line, '\n')) //nolint:errcheck
}

func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn marks degraded operation, such as serving the snapshot.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

func Debug(message string, fields Fields) { defaultLogger.Debug(message, fields) }

func Info(message string, fields Fields) { defaultLogger.Info(message, fields) }

func Warn(message string, fields Fields) { defaultLogger.Warn(message, fields) }

func Error(message string, fields Fields, err error) { defaultLogger.Error(message, fields, err) }

// timing accumulates durations without keeping the samples.
type timing struct {
	count    int
	total    time.Duration
	min, max time.Duration
}

func (t *timing) add(d time.Duration) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.count++
	t.total += d
}

// Metrics holds named counters, gauges and timings. It is safe for
// concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]*timing
}

var defaultMetrics = NewMetrics()

func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]*timing),
	}
}

func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

func (m *Metrics) AddCounter(name string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += n
}

// SetGauge overwrites the gauge's previous value.
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timings[name]
	if !ok {
		t = &timing{}
		m.timings[name] = t
	}
	t.add(d)
}

// GetSnapshot copies the current values under the keys "counters",
// "gauges" and "timings". Each timing reports count, total, average,
// min and max, with durations as strings.
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}

	timings := make(map[string]map[string]interface{}, len(m.timings))
	for name, t := range m.timings {
		timings[name] = map[string]interface{}{
			"count":   t.count,
			"total":   t.total.String(),
			"average": (t.total / time.Duration(t.count)).String(),
			"min":     t.min.String(),
			"max":     t.max.String(),
		}
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

func IncrCounter(name string) { defaultMetrics.IncrCounter(name) }

func AddCounter(name string, n int64) { defaultMetrics.AddCounter(name, n) }

func SetGauge(name string, value float64) { defaultMetrics.SetGauge(name, value) }

func RecordTiming(name string, d time.Duration) { defaultMetrics.RecordTiming(name, d) }

// GetMetricsSnapshot returns GetSnapshot of the package-level Metrics.
func GetMetricsSnapshot() map[string]interface{} {
	return defaultMetrics.GetSnapshot()
}
