//go:build unit && !windows

package server_test

import (
	"syscall"
	"testing"

	"github.com/LerianStudio/lib-drain/drain/server"
	"github.com/stretchr/testify/assert"
)

func TestParseSignalUserSignals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected syscall.Signal
	}{
		{name: "usr1", input: "SIGUSR1", expected: syscall.SIGUSR1},
		{name: "usr2 without prefix", input: "usr2", expected: syscall.SIGUSR2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := server.ParseSignal(tt.input)

			assert.True(t, ok)
			assert.Equal(t, tt.expected, sig)
		})
	}
}
