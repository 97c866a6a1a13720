// Package http adapts net/http servers to the lib-drain connection registry.
package http

import (
	"net"
	"net/http"
	"sync"

	"github.com/LerianStudio/lib-drain/drain/conntrack"
)

// Track installs a ConnState callback on srv that feeds connection and
// request lifecycle events into the registry. Any previously installed
// callback keeps running after the registry has been updated.
//
// State mapping: StateNew opens a tracked connection, StateActive marks it
// busy, StateIdle marks it idle (reaping it immediately mid-drain), and
// StateClosed or StateHijacked deregisters it.
func Track(srv *http.Server, registry *conntrack.Registry) {
	tracker := &connTracker{
		registry: registry,
		ids:      make(map[net.Conn]uint64),
		previous: srv.ConnState,
	}

	srv.ConnState = tracker.onStateChange
}

// connTracker correlates net.Conn instances with their registry identifiers.
type connTracker struct {
	registry *conntrack.Registry
	mu       sync.Mutex
	ids      map[net.Conn]uint64
	previous func(net.Conn, http.ConnState)
}

func (t *connTracker) onStateChange(conn net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		id := t.registry.Open(conn)

		t.mu.Lock()
		t.ids[conn] = id
		t.mu.Unlock()
	case http.StateActive:
		if id, ok := t.lookup(conn); ok {
			t.registry.RequestStart(id)
		}
	case http.StateIdle:
		if id, ok := t.lookup(conn); ok {
			t.registry.RequestFinish(id)
		}
	case http.StateClosed, http.StateHijacked:
		t.mu.Lock()
		id, ok := t.ids[conn]
		delete(t.ids, conn)
		t.mu.Unlock()

		if ok {
			t.registry.CloseConn(id)
		}
	}

	if t.previous != nil {
		t.previous(conn, state)
	}
}

func (t *connTracker) lookup(conn net.Conn) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.ids[conn]

	return id, ok
}
