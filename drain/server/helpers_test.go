package server_test

import (
	"context"
	"sync"

	"github.com/LerianStudio/lib-drain/drain/log"
)

// recordingLogger is a Logger that records messages.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) Log(_ context.Context, _ log.Level, msg string, _ ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) With(_ ...log.Field) log.Logger { return l }
func (l *recordingLogger) WithGroup(_ string) log.Logger  { return l }
func (l *recordingLogger) Enabled(_ log.Level) bool       { return true }
func (l *recordingLogger) Sync(_ context.Context) error   { return nil }

func (l *recordingLogger) getMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := make([]string, len(l.messages))
	copy(cp, l.messages)

	return cp
}

// exitRecorder captures exit codes instead of terminating the process.
type exitRecorder struct {
	mu    sync.Mutex
	codes []int
	ch    chan int
}

func newExitRecorder() *exitRecorder {
	return &exitRecorder{ch: make(chan int, 4)}
}

func (e *exitRecorder) exit(code int) {
	e.mu.Lock()
	e.codes = append(e.codes, code)
	e.mu.Unlock()

	e.ch <- code
}

func (e *exitRecorder) recorded() []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := make([]int, len(e.codes))
	copy(cp, e.codes)

	return cp
}

// fakeConn records whether it has been force-closed.
type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}
