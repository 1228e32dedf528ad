package statsclient

import "sync"

// RefreshSignal is the shared "data changed" flag. Any number of producers may
// Mark it; the reconciler consumes it with Take.
type RefreshSignal struct {
	mu     sync.Mutex
	set    bool
	notify chan struct{}
}

// NewRefreshSignal returns a cleared signal.
func NewRefreshSignal() *RefreshSignal {
	return &RefreshSignal{notify: make(chan struct{}, 1)}
}

// Mark raises the flag. Repeated marks before a Take collapse into one.
func (s *RefreshSignal) Mark() {
	s.mu.Lock()
	s.set = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Take clears the flag and reports whether it was raised.
func (s *RefreshSignal) Take() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.set
	s.set = false
	return was
}

// Pending reports whether the flag is raised.
func (s *RefreshSignal) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// C fires after Mark.
func (s *RefreshSignal) C() <-chan struct{} {
	return s.notify
}
