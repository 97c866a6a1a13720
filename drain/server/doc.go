// Package server coordinates the graceful termination of a server process.
//
// An Orchestrator reacts to termination signals: it stops accepting new work,
// reaps idle connections, waits for in-flight requests to drain, runs a
// caller-supplied cleanup hook, and exits the process with a status that
// reflects graceful completion or a forced timeout.
package server
