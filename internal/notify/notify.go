// Package notify reports resource failures to the user. It has no GUI
// dependencies; the native message box lives in package msgbox.
package notify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/logger"
)

// Notifier shows a failure to the user. Implementations may block until the
// user acknowledges the message.
type Notifier interface {
	Notify(title, message string)
}

// Log only writes failures to the logger. Used in headless runs and tests.
type Log struct {
	log *zap.Logger
}

// NewLog creates a logging notifier.
func NewLog() *Log {
	return &Log{log: logger.Named("notify")}
}

// Notify logs the message at error level.
func (l *Log) Notify(title, message string) {
	l.log.Error(message, zap.String("title", title))
}

// Recorder keeps every notification in memory.
type Recorder struct {
	Messages []string
}

// Notify appends "title: message" to Messages.
func (r *Recorder) Notify(title, message string) {
	r.Messages = append(r.Messages, fmt.Sprintf("%s: %s", title, message))
}

// Failure formats a resource failure in the form used across the engine.
func Failure(n Notifier, kind, name string, err error) {
	if n == nil {
		return
	}
	n.Notify("Resource error", fmt.Sprintf("failed to create %s %q: %v", kind, name, err))
}
