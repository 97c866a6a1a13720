//go:build windows

package server

import (
	"os"
	"syscall"
)

// signalsByName maps canonical signal names to their OS signals.
// Windows has no SIGUSR1/SIGUSR2; SIGINT covers Ctrl+C delivery.
var signalsByName = map[string]os.Signal{
	"SIGTERM": syscall.SIGTERM,
	"SIGINT":  syscall.SIGINT,
	"SIGHUP":  syscall.SIGHUP,
	"SIGQUIT": syscall.SIGQUIT,
}
