// Package notify delivers short user-facing messages about per-file outcomes.
package notify

import (
	"sync"

	"github.com/mark3labs/oascompare/internal/logger"
)

// Notifier receives non-blocking success and error notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier forwards notifications to a structured logger.
type LogNotifier struct {
	Log logger.Logger
}

func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Discard()
	}
	return &LogNotifier{Log: l}
}

func (n *LogNotifier) Success(msg string) { n.Log.Info(msg) }
func (n *LogNotifier) Error(msg string)   { n.Log.Error(msg) }

// Message is one recorded notification.
type Message struct {
	Error bool
	Text  string
}

// Recorder keeps notifications in memory. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(Message{Text: msg}) }
func (r *Recorder) Error(msg string)   { r.add(Message{Error: true, Text: msg}) }

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of the recorded notifications.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Errors returns the text of recorded error notifications.
func (r *Recorder) Errors() []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Error {
			out = append(out, m.Text)
		}
	}
	return out
}
