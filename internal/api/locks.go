package api

import "sync"

// turnLocks admits at most one running turn per game token.
type turnLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newTurnLocks() *turnLocks {
	return &turnLocks{held: make(map[string]struct{})}
}

// TryLock claims token and reports whether it was free.
func (l *turnLocks) TryLock(token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[token]; busy {
		return false
	}
	l.held[token] = struct{}{}
	return true
}

func (l *turnLocks) Unlock(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, token)
}

// Held returns how many turns are running.
func (l *turnLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
