package util

import (
	"io"
	"sync"
)

// SyncedWriter wraps an io.Writer with a mutex, so that a compilation
// task's stdout and stderr formatting writers (which run on the same
// goroutine but may share a destination buffer with the UI goroutine)
// never interleave partial writes.
type SyncedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncedWriter returns a SyncedWriter delegating to w.
func NewSyncedWriter(w io.Writer) *SyncedWriter {
	return &SyncedWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncedWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
