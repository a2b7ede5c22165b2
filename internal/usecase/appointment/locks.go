package appointment

import "sync"

// appointmentLocks serializes lifecycle changes per appointment id. Entries
// live only while someone holds or waits for them.
type appointmentLocks struct {
	mu   sync.Mutex
	held map[string]*appointmentLock
}

type appointmentLock struct {
	mu   sync.Mutex
	refs int
}

func (l *appointmentLocks) lock(appointmentID string) (unlock func()) {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[string]*appointmentLock)
	}
	e := l.held[appointmentID]
	if e == nil {
		e = &appointmentLock{}
		l.held[appointmentID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.held, appointmentID)
		}
		l.mu.Unlock()
	}
}

func (l *appointmentLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
