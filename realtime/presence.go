package realtime

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/models"
)

type presenceEntry struct {
	userID string
	role   models.Role
}

// Registry is the process-local map of who is connected. A user may hold
// several connections at once, one per device.
type Registry struct {
	mu    sync.RWMutex
	conns map[Conn]presenceEntry
	users map[string]mapset.Set[Conn]
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[Conn]presenceEntry),
		users: make(map[string]mapset.Set[Conn]),
	}
}

// Register records conn as a live connection of userID. Registering the same
// connection again overwrites its previous user and role; the caller owns any
// topic subscriptions keyed on the old user, see Lookup.
func (r *Registry) Register(userID string, role models.Role, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(conn)
	r.conns[conn] = presenceEntry{userID: userID, role: role}
	set, ok := r.users[userID]
	if !ok {
		set = mapset.NewThreadUnsafeSet[Conn]()
		r.users[userID] = set
	}
	set.Add(conn)
	zap.S().Debugw("connection registered", "userID", userID, "role", role, "connID", conn.ID(), "handles", set.Cardinality())
}

// Unregister drops conn. Unknown connections are ignored.
func (r *Registry) Unregister(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(conn)
}

func (r *Registry) removeLocked(conn Conn) {
	entry, ok := r.conns[conn]
	if !ok {
		return
	}
	delete(r.conns, conn)
	if set, ok := r.users[entry.userID]; ok {
		set.Remove(conn)
		if set.Cardinality() == 0 {
			delete(r.users, entry.userID)
		}
	}
	zap.S().Debugw("connection unregistered", "userID", entry.userID, "connID", conn.ID())
}

// IsOnline reports whether userID has at least one live connection
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

// Lookup returns the user and role a connection was registered with
func (r *Registry) Lookup(conn Conn) (string, models.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[conn]
	return entry.userID, entry.role, ok
}

// OnlineUsersOfRole returns every live connection whose user holds role
func (r *Registry) OnlineUsersOfRole(role models.Role) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Conn
	for conn, entry := range r.conns {
		if entry.role == role {
			out = append(out, conn)
		}
	}
	return out
}

// OnlineStatus maps each of userIDs to whether it is connected
func (r *Registry) OnlineStatus(userIDs []string) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		_, status[id] = r.users[id]
	}
	return status
}
