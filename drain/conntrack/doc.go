// Package conntrack tracks live transport connections and their idle/busy state.
//
// A Registry receives connection-open/close and request-start/finish events
// from a server collaborator and, once draining begins, reclaims connections
// the moment they go idle. Busy connections are never force-closed.
package conntrack
