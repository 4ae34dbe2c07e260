package pipeline

import (
	"io"
	"sync"
)

// sink duplicates writes to every destination. It never reports a write
// error to its caller, so a failing destination cannot change how a stage's
// outcome is seen. The first error of each destination is kept for
// reporting.
type sink struct {
	mu     sync.Mutex
	dests  []io.Writer
	names  []string
	errs   []error
	warned []bool
}

func newSink() *sink {
	return &sink{}
}

func (s *sink) add(name string, w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dests = append(s.dests, w)
	s.names = append(s.names, name)
	s.errs = append(s.errs, nil)
	s.warned = append(s.warned, false)
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.dests {
		if s.errs[i] != nil {
			continue
		}
		n, err := w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			s.errs[i] = err
		}
	}
	return len(p), nil
}

// sinkError is a destination that stopped accepting writes.
type sinkError struct {
	Dest string
	Err  error
}

// newErrors returns destination failures not yet returned by a previous
// call.
func (s *sink) newErrors() []sinkError {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sinkError
	for i, err := range s.errs {
		if err != nil && !s.warned[i] {
			s.warned[i] = true
			out = append(out, sinkError{Dest: s.names[i], Err: err})
		}
	}
	return out
}
