// Package notify is the client's stand-in for the toast layer: every
// operation failure is surfaced through a Notifier and none of them is fatal.
package notify

import (
	"sync"

	"fintrack/internal/log"
)

// Level distinguishes informational notices from failures.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notifier receives transient user-facing messages.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier writes notifications to the structured log. The CLI front end
// prints them; the worker only logs.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotify)}
}

func (n *LogNotifier) Notify(level Level, message string) {
	switch level {
	case LevelError:
		n.logger.Error(message)
	default:
		n.logger.Info(message)
	}
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu       sync.Mutex
	Messages []string
	Levels   []Level
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, message)
	r.Levels = append(r.Levels, level)
}

// Last returns the most recent message, or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1]
}
