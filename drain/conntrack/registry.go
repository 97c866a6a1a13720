package conntrack

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/LerianStudio/lib-drain/drain/log"
)

// ForceCloser is the handle the registry uses to forcibly terminate a
// transport connection. net.Conn satisfies this interface.
type ForceCloser interface {
	Close() error
}

// ErrorObserver receives errors the registry would otherwise drop, such as a
// force-close failing on an already-gone connection. The default (nil) policy
// is to stay silent: close events race with reap sweeps, so these errors are
// benign and have no actionable recipient.
type ErrorObserver func(operation string, err error)

// connection is one tracked transport connection. idle is false for the whole
// span between a request-start and its matching request-finish event.
type connection struct {
	closer ForceCloser
	idle   bool
}

// Registry is a process-wide mapping from connection identifier to connection
// state. Identifiers are assigned from a monotonic counter and never reused
// within the process lifetime.
type Registry struct {
	mu     sync.Mutex
	conns  map[uint64]*connection
	nextID atomic.Uint64

	// draining is monotonic: once set it never reverts.
	draining atomic.Bool

	// emptied is closed once draining has begun and the registry holds no
	// connections. This is the close-confirmed signal drains wait on.
	emptied   chan struct{}
	emptyOnce sync.Once

	logger   log.Logger
	observer ErrorObserver
}

// RegistryOption configures a Registry.
type RegistryOption func(r *Registry)

// WithLogger sets the logger used for connection lifecycle events.
func WithLogger(logger log.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithErrorObserver sets the policy for errors the registry drops by default.
func WithErrorObserver(observer ErrorObserver) RegistryOption {
	return func(r *Registry) {
		r.observer = observer
	}
}

// NewRegistry creates an empty connection registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns:   make(map[uint64]*connection),
		emptied: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = log.NewNop()
	}

	return r
}

// Open registers a new connection as idle and returns its assigned identifier.
func (r *Registry) Open(c ForceCloser) uint64 {
	id := r.nextID.Add(1)

	r.mu.Lock()
	r.conns[id] = &connection{closer: c, idle: true}
	r.mu.Unlock()

	r.logger.Log(context.Background(), log.LevelDebug, "connection opened", log.Uint64("conn_id", id))

	return id
}

// CloseConn removes a connection unconditionally. It is idempotent: closing an
// identifier that is absent (already reaped or never tracked) is a no-op.
func (r *Registry) CloseConn(id uint64) {
	r.mu.Lock()
	_, present := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if present {
		r.logger.Log(context.Background(), log.LevelDebug, "connection closed", log.Uint64("conn_id", id))
	}

	r.signalIfEmpty()
}

// RequestStart marks a connection busy. A missing identifier is a no-op since
// the connection may have closed concurrently.
func (r *Registry) RequestStart(id uint64) {
	r.mu.Lock()
	if conn, ok := r.conns[id]; ok {
		conn.idle = false
	}
	r.mu.Unlock()
}

// RequestFinish marks a connection idle again. If draining has begun, the
// connection is reclaimed immediately so drains complete as connections fall
// idle, not only at the initial sweep.
func (r *Registry) RequestFinish(id uint64) {
	r.mu.Lock()
	conn, ok := r.conns[id]
	if ok {
		conn.idle = true
	}
	r.mu.Unlock()

	if ok && r.draining.Load() {
		r.ReapOne(id)
	}
}

// BeginDrain flips the registry into draining mode. It never reverts.
func (r *Registry) BeginDrain() {
	r.draining.Store(true)
	r.signalIfEmpty()
}

// Draining reports whether BeginDrain has been called.
func (r *Registry) Draining() bool {
	return r.draining.Load()
}

// Emptied returns a channel that is closed once draining has begun and every
// tracked connection is gone. Callers use it as the drain-complete confirmation.
func (r *Registry) Emptied() <-chan struct{} {
	return r.emptied
}

// signalIfEmpty closes the emptied channel when a drain has fully completed.
func (r *Registry) signalIfEmpty() {
	if !r.draining.Load() {
		return
	}

	r.mu.Lock()
	remaining := len(r.conns)
	r.mu.Unlock()

	if remaining == 0 {
		r.emptyOnce.Do(func() {
			close(r.emptied)
		})
	}
}

// ReapIdle forcibly terminates every currently-idle connection and removes it
// from the registry, returning the number reclaimed. It snapshots entries
// before closing anything, so open/close/start/finish events arriving
// concurrently are safe.
func (r *Registry) ReapIdle() int {
	r.mu.Lock()

	victims := make(map[uint64]ForceCloser, len(r.conns))

	for id, conn := range r.conns {
		if conn.idle {
			victims[id] = conn.closer
			delete(r.conns, id)
		}
	}
	r.mu.Unlock()

	for id, closer := range victims {
		r.terminate(id, closer)
	}

	r.signalIfEmpty()

	return len(victims)
}

// ReapOne terminates and removes a single connection if it is idle. It reports
// whether the connection was reclaimed; busy or absent connections are left
// untouched.
func (r *Registry) ReapOne(id uint64) bool {
	r.mu.Lock()

	conn, ok := r.conns[id]
	if !ok || !conn.idle {
		r.mu.Unlock()

		return false
	}

	delete(r.conns, id)
	r.mu.Unlock()

	r.terminate(id, conn.closer)
	r.signalIfEmpty()

	return true
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.conns)
}

// IdleCount returns the number of tracked connections currently idle.
func (r *Registry) IdleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0

	for _, conn := range r.conns {
		if conn.idle {
			count++
		}
	}

	return count
}

// terminate force-closes a connection already removed from the map. Close
// errors go to the observer when one is configured and are dropped otherwise.
func (r *Registry) terminate(id uint64, closer ForceCloser) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		if r.observer != nil {
			r.observer("force_close", err)
		}

		return
	}

	r.logger.Log(context.Background(), log.LevelDebug, "connection reaped", log.Uint64("conn_id", id))
}
