// Package notify delivers short user visible notices, the CLI counterpart
// of a mobile toast.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Level of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a single user visible message.
type Notice struct {
	Level Level
	Title string
	Text  string
}

func (n Notice) String() string {
	if n.Title == "" {
		return n.Text
	}
	return n.Title + ": " + n.Text
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// Info sends an informational notice.
func Info(n Notifier, title, text string) {
	n.Notify(Notice{Level: LevelInfo, Title: title, Text: text})
}

// Success sends a success notice.
func Success(n Notifier, title, text string) {
	n.Notify(Notice{Level: LevelSuccess, Title: title, Text: text})
}

// Error sends an error notice.
func Error(n Notifier, title, text string) {
	n.Notify(Notice{Level: LevelError, Title: title, Text: text})
}

// Console writes notices to w, one per line.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := "ℹ"
	switch n.Level {
	case LevelSuccess:
		prefix = "✔"
	case LevelError:
		prefix = "✖"
	}
	fmt.Fprintf(c.w, "%s %s\n", prefix, n)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Notice) {}
