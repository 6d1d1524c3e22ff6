package scm

import (
	"sync"
	"time"
)

// Message is an analysis warning shown to users.
type Message struct {
	Text      string
	Timestamp time.Time
}

// Warnings collects analysis warnings. Safe for concurrent use.
type Warnings struct {
	mu       sync.Mutex
	now      func() time.Time
	messages []Message
}

// NewWarnings returns an empty collector. A nil now uses time.Now.
func NewWarnings(now func() time.Time) *Warnings {
	if now == nil {
		now = time.Now
	}
	return &Warnings{now: now}
}

// AddUnique adds a warning unless one with the same text exists.
func (w *Warnings) AddUnique(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.messages {
		if m.Text == text {
			return
		}
	}
	w.messages = append(w.messages, Message{Text: text, Timestamp: w.now()})
}

// Messages returns the warnings in insertion order.
func (w *Warnings) Messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Message, len(w.messages))
	copy(out, w.messages)
	return out
}
