package broker

import (
	"net"
	"sync"

	"github.com/google/uuid"
)

// Entry - registry record of kept connection.
type Entry struct {
	// UID - assigned client identifier
	UID string
	// Addr - remote peer address
	Addr string
	// Handle - unique runtime handle of connection
	Handle uuid.UUID
}

// registry - connection->entry is the primary map and defines liveness,
// address->identifier is informational only.
type registry struct {
	mu     sync.RWMutex
	list   map[net.Conn]Entry
	byAddr map[string]string
}

func newRegistry() *registry {
	return &registry{
		list:   make(map[net.Conn]Entry),
		byAddr: make(map[string]string),
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

func (r *registry) get(conn net.Conn) (e Entry, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok = r.list[conn]
	return e, ok
}

// find - linear scan for connection with given identifier.
func (r *registry) find(uid string) (net.Conn, Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for conn, e := range r.list {
		if e.UID == uid {
			return conn, e, true
		}
	}
	return nil, Entry{}, false
}

func (r *registry) uidByAddr(addr string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uid, ok := r.byAddr[addr]
	return uid, ok
}

func (r *registry) add(conn net.Conn, e Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[conn]; ok {
		return false
	}
	r.list[conn] = e
	r.byAddr[e.Addr] = e.UID
	return true
}

// delete - removes connection, only the first call for the same connection reports ok.
// Address mapping is removed by key and only while it still points to the removed identifier,
// so a newer connection from the same address keeps its mapping.
func (r *registry) delete(conn net.Conn) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.list[conn]
	if !ok {
		return Entry{}, false
	}
	delete(r.list, conn)
	if r.byAddr[e.Addr] == e.UID {
		delete(r.byAddr, e.Addr)
	}
	return e, true
}

// conns - snapshot of kept connections.
func (r *registry) conns() []net.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]net.Conn, 0, len(r.list))
	for conn := range r.list {
		list = append(list, conn)
	}
	return list
}

// snapshot - copy of the primary map.
func (r *registry) snapshot() map[net.Conn]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make(map[net.Conn]Entry, len(r.list))
	for conn, e := range r.list {
		list[conn] = e
	}
	return list
}

// entries - snapshot of registry records.
func (r *registry) entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Entry, 0, len(r.list))
	for _, e := range r.list {
		list = append(list, e)
	}
	return list
}
