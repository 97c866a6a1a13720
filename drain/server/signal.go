package server

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/LerianStudio/lib-drain/drain"
	"github.com/LerianStudio/lib-drain/drain/runtime"
)

// DefaultSignals returns the termination signals listened for when none are
// configured.
func DefaultSignals() []string {
	return []string{"SIGTERM", "SIGINT"}
}

// signalsFromEnv reads the comma-separated signal list from the environment,
// falling back to DefaultSignals. Unknown entries are dropped later, during
// resolution.
func signalsFromEnv() []string {
	raw := drain.GetenvOrDefault(EnvSignals, "")
	if raw == "" {
		return DefaultSignals()
	}

	return strings.Split(raw, ",")
}

// ParseSignal resolves a signal name to an OS signal. Empty and
// whitespace-only names report false, as do names outside the supported set.
func ParseSignal(name string) (os.Signal, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(name))
	if trimmed == "" {
		return nil, false
	}

	if !strings.HasPrefix(trimmed, "SIG") {
		trimmed = "SIG" + trimmed
	}

	sig, ok := signalsByName[trimmed]

	return sig, ok
}

// resolveSignals parses the configured signal names, dropping entries that are
// empty or unknown, and returns the signals alongside a reverse name lookup.
func resolveSignals(names []string) ([]os.Signal, map[os.Signal]string) {
	sigs := make([]os.Signal, 0, len(names))
	byName := make(map[os.Signal]string, len(names))

	for _, name := range names {
		sig, ok := ParseSignal(name)
		if !ok {
			continue
		}

		if _, dup := byName[sig]; dup {
			continue
		}

		sigs = append(sigs, sig)
		byName[sig] = strings.ToUpper(strings.TrimSpace(name))
	}

	return sigs, byName
}

// Listen subscribes to the configured termination signals (or the injected
// shutdown channel) and triggers the shutdown sequence from a background
// goroutine. Registration happens once and is never torn down; process exit
// removes it implicitly.
func (o *Orchestrator) Listen(ctx context.Context) {
	runtime.SafeGoWithContextAndComponent(ctx, o.logger, "server", "signal_listener",
		runtime.KeepRunning, func(ctx context.Context) {
			o.listen(ctx)
		})
}

// ListenAndWait subscribes to the configured termination signals and blocks.
// With a real exit function this never returns; with an injected one it
// returns after the shutdown sequence has run.
func (o *Orchestrator) ListenAndWait() {
	o.listen(context.Background())
}

func (o *Orchestrator) listen(_ context.Context) {
	if o.shutdownChan != nil {
		<-o.shutdownChan
		o.Trigger("shutdown")

		return
	}

	sigs, byName := resolveSignals(o.signals)
	if len(sigs) == 0 {
		sigs, byName = resolveSignals(DefaultSignals())
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, sigs...)

	// Later deliveries re-trigger, which the shutdown state makes a no-op.
	for sig := range c {
		o.Trigger(byName[sig])
	}
}
