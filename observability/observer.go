// Package observability provides event-based instrumentation for the
// messaging bus and exporter. Subsystems emit typed events to an Observer;
// what happens to them (logging, counting, discarding) is the observer's
// choice.
package observability

import (
	"log/slog"
	"time"
)

// Level is event severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// SlogLevel maps the level to its slog equivalent for log emission.
func (l Level) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. Each subsystem defines its own
// constants using this type (e.g. "export.step", "round.open").
type EventType string

// Event is one observability record. Source names the emitting subsystem;
// Data holds free-form attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events from subsystems.
type Observer interface {
	OnEvent(event Event)
}

// Emit sends an event through observer, stamping the current time. A nil
// observer discards the event, so callers need no guard.
func Emit(observer Observer, eventType EventType, level Level, source string, data map[string]any) {
	if observer == nil {
		return
	}
	observer.OnEvent(Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
