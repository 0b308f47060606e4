package realtime

import (
	"sort"
	"sync"
)

// Presence tracks live-connection membership per logical user. A user is
// online while at least one connection is registered, so closing one of
// several tabs never flaps the user offline. State is process-local and
// rebuilt from scratch on restart.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{} // userID -> set of connectionID
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[string]map[string]struct{})}
}

// Register adds a connection for the user and reports whether the user just
// transitioned to online.
func (p *Presence) Register(userID, connectionID string) (becameOnline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.conns[userID]
	if set == nil {
		set = make(map[string]struct{})
		p.conns[userID] = set
	}
	becameOnline = len(set) == 0
	set[connectionID] = struct{}{}
	return becameOnline
}

// Unregister removes a connection and reports whether the user's set became
// empty, i.e. the user just transitioned to offline.
func (p *Presence) Unregister(userID, connectionID string) (becameOffline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.conns[userID]
	if set == nil {
		return false
	}
	if _, ok := set[connectionID]; !ok {
		return false
	}
	delete(set, connectionID)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns[userID]) > 0
}

// Snapshot returns the sorted list of online user ids.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	out := make([]string, 0, len(p.conns))
	for id := range p.conns {
		out = append(out, id)
	}
	p.mu.RUnlock()

	sort.Strings(out)
	return out
}
