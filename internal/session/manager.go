package session

import "sync"

// Manager is the process-wide registry of live sessions, indexed by session
// id and by participant connection. Created empty at process start; sessions
// are removed once finished and abandoned on shutdown.
type Manager struct {
	mu     sync.RWMutex
	byID   map[string]*Session
	byConn map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		byID:   make(map[string]*Session),
		byConn: make(map[string]*Session),
	}
}

func (that *Manager) Register(sess *Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.byID[sess.id] = sess
	for _, participant := range sess.participants {
		that.byConn[participant.ConnID] = sess
	}
}

func (that *Manager) ByID(id string) (*Session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sess, ok := that.byID[id]
	return sess, ok
}

func (that *Manager) ByConn(connID string) (*Session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sess, ok := that.byConn[connID]
	return sess, ok
}

func (that *Manager) Remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.byID[id]
	if !ok {
		return
	}

	delete(that.byID, id)
	for _, participant := range sess.participants {
		if that.byConn[participant.ConnID] == sess {
			delete(that.byConn, participant.ConnID)
		}
	}
}

func (that *Manager) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.byID)
}
