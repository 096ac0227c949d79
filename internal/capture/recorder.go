// Package capture records dashboard frames and persists them as tour artifacts.
package capture

import (
	"sync"
	"time"
)

// Frame is one rendered dashboard screen.
type Frame struct {
	Content string
	Width   int
	Height  int
	At      time.Time
}

// Recorder keeps the most recently rendered frame. The dashboard writes to it
// from View and capture commands read from it on their own goroutine.
type Recorder struct {
	mu    sync.RWMutex
	frame Frame
	ok    bool
	now   func() time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Record replaces the last frame.
func (r *Recorder) Record(content string, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = Frame{Content: content, Width: width, Height: height, At: r.now()}
	r.ok = true
}

// Last returns the last frame and whether one has been recorded.
func (r *Recorder) Last() (Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame, r.ok
}
