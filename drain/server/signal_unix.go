//go:build !windows

package server

import (
	"os"
	"syscall"
)

// signalsByName maps canonical signal names to their OS signals. Names are
// matched case-insensitively, with or without the SIG prefix.
var signalsByName = map[string]os.Signal{
	"SIGTERM": syscall.SIGTERM,
	"SIGINT":  syscall.SIGINT,
	"SIGHUP":  syscall.SIGHUP,
	"SIGQUIT": syscall.SIGQUIT,
	"SIGUSR1": syscall.SIGUSR1,
	"SIGUSR2": syscall.SIGUSR2,
}
