// Package grpcstats adapts gRPC servers to the lib-drain connection registry.
package grpcstats

import (
	"context"

	"github.com/LerianStudio/lib-drain/drain/conntrack"
	"google.golang.org/grpc/stats"
)

// connIDKey carries a registry identifier in the connection context. gRPC
// derives every server-side RPC context from the tagged connection context, so
// RPC events can recover the identifier.
type connIDKey struct{}

// Handler is a stats.Handler that mirrors gRPC connection and RPC lifecycle
// events into a connection registry. Register it with
// grpc.StatsHandler(grpcstats.New(registry)).
//
// gRPC exposes no per-connection close handle through the stats API, so
// tracked connections carry no force-closer; reaping one just deregisters it.
// Forcibly terminating gRPC transports remains the server's GracefulStop/Stop
// concern.
type Handler struct {
	registry *conntrack.Registry
}

// Compile-time assertion: *Handler implements stats.Handler.
var _ stats.Handler = (*Handler)(nil)

// New creates a stats handler feeding the given registry.
func New(registry *conntrack.Registry) *Handler {
	return &Handler{registry: registry}
}

// TagConn registers the new connection and stashes its identifier in the
// connection context.
func (h *Handler) TagConn(ctx context.Context, _ *stats.ConnTagInfo) context.Context {
	id := h.registry.Open(nil)

	return context.WithValue(ctx, connIDKey{}, id)
}

// HandleConn deregisters the connection when the transport ends.
func (h *Handler) HandleConn(ctx context.Context, s stats.ConnStats) {
	if _, ok := s.(*stats.ConnEnd); !ok {
		return
	}

	if id, ok := connID(ctx); ok {
		h.registry.CloseConn(id)
	}
}

// TagRPC is a passthrough; the connection tag already carries the identifier.
func (h *Handler) TagRPC(ctx context.Context, _ *stats.RPCTagInfo) context.Context {
	return ctx
}

// HandleRPC marks the underlying connection busy for the span of each RPC.
func (h *Handler) HandleRPC(ctx context.Context, s stats.RPCStats) {
	id, ok := connID(ctx)
	if !ok {
		return
	}

	switch s.(type) {
	case *stats.Begin:
		h.registry.RequestStart(id)
	case *stats.End:
		h.registry.RequestFinish(id)
	}
}

func connID(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(connIDKey{}).(uint64)

	return id, ok
}
