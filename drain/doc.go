// Package drain provides shared helpers for the lib-drain graceful-termination
// library.
//
// The interesting machinery lives in subpackages: conntrack tracks live
// connections and their idle state, server orchestrates the shutdown sequence,
// and the grpcstats and net/http packages adapt real servers onto the
// registry's event surface.
package drain
