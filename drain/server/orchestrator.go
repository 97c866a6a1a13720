package server

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LerianStudio/lib-drain/drain"
	"github.com/LerianStudio/lib-drain/drain/conntrack"
	"github.com/LerianStudio/lib-drain/drain/log"
	"github.com/LerianStudio/lib-drain/drain/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNilRegistry indicates the orchestrator was constructed without a connection registry.
var ErrNilRegistry = errors.New("nil connection registry: use conntrack.NewRegistry()")

// Process exit codes reported by the orchestrator.
const (
	// ExitGraceful is used when the drain sequence completes, and on the
	// development fast path.
	ExitGraceful = 0
	// ExitForced is used when the forced-shutdown deadline expires before
	// the drain sequence completes.
	ExitForced = 1
)

// Environment variables consulted by New for defaults. Options always win
// over the environment.
const (
	// EnvSignals holds a comma-separated signal list, e.g. "SIGTERM,SIGQUIT".
	EnvSignals = "SHUTDOWN_SIGNALS"
	// EnvForcedTimeout holds a Go duration, e.g. "45s".
	EnvForcedTimeout = "SHUTDOWN_FORCED_TIMEOUT"
	// EnvDevelopment holds a boolean enabling the development fast path.
	EnvDevelopment = "SHUTDOWN_DEVELOPMENT"
)

// DefaultForcedTimeout bounds how long a graceful shutdown may take before the
// process is forcibly terminated.
const DefaultForcedTimeout = 30 * time.Second

const tracerName = "github.com/LerianStudio/lib-drain/drain/server"

// Acceptor is the handle used to stop the server accepting new connections.
// Close returning is the close-confirmed signal. net.Listener and fiber's
// app.Shutdown (via AcceptorFunc) both fit.
type Acceptor interface {
	Close() error
}

// AcceptorFunc adapts a plain function to the Acceptor interface.
type AcceptorFunc func() error

// Close calls the wrapped function.
func (f AcceptorFunc) Close() error {
	return f()
}

// Orchestrator is a two-state machine (running, then shutting down) that runs
// the drain sequence exactly once, no matter how many signals arrive.
type Orchestrator struct {
	registry *conntrack.Registry
	acceptor Acceptor
	logger   log.Logger

	signals       []string
	forcedTimeout time.Duration
	development   bool
	onShutdown    func(ctx context.Context) error
	finally       func()
	observer      conntrack.ErrorObserver
	exitFunc      func(code int)
	shutdownChan  <-chan struct{}

	shuttingDown atomic.Bool
	exitOnce     sync.Once
}

// Option configures an Orchestrator.
type Option func(o *Orchestrator)

// WithLogger sets the logger for shutdown progress events.
func WithLogger(logger log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithSignals sets the signal names that trigger shutdown. Empty or
// whitespace-only entries are ignored. Defaults to SIGTERM and SIGINT.
func WithSignals(names ...string) Option {
	return func(o *Orchestrator) {
		o.signals = names
	}
}

// WithForcedTimeout bounds the graceful shutdown. When the duration elapses
// the process exits with ExitForced regardless of drain progress. Zero
// disables the forced-timeout path entirely.
func WithForcedTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.forcedTimeout = d
	}
}

// WithDevelopment enables the development fast path: any trigger exits the
// process immediately with ExitGraceful, skipping the drain sequence.
func WithDevelopment(enabled bool) Option {
	return func(o *Orchestrator) {
		o.development = enabled
	}
}

// WithOnShutdown sets the cleanup hook awaited between reaping idle
// connections and closing the acceptor. A hook that never returns is only
// bounded by the forced timeout.
func WithOnShutdown(hook func(ctx context.Context) error) Option {
	return func(o *Orchestrator) {
		o.onShutdown = hook
	}
}

// WithFinally sets a callback invoked exactly once at process exit, on every
// exit path (graceful, forced, development).
func WithFinally(fn func()) Option {
	return func(o *Orchestrator) {
		o.finally = fn
	}
}

// WithErrorObserver sets the policy for errors the orchestrator drops by
// default: cleanup hook failures and acceptor close failures. The default
// (nil) is silence, since the shutdown path has no actionable recipient.
func WithErrorObserver(observer conntrack.ErrorObserver) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithExitFunc replaces os.Exit. This allows tests to assert on exit codes
// without terminating the test process.
func WithExitFunc(fn func(code int)) Option {
	return func(o *Orchestrator) {
		o.exitFunc = fn
	}
}

// WithShutdownChannel configures a custom shutdown channel.
// This allows tests to trigger shutdown deterministically instead of relying on OS signals.
func WithShutdownChannel(ch <-chan struct{}) Option {
	return func(o *Orchestrator) {
		o.shutdownChan = ch
	}
}

// New creates an Orchestrator around one server handle. If logger is nil, a
// no-op logger is used to ensure nil-safe operation throughout shutdown.
func New(registry *conntrack.Registry, acceptor Acceptor, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	o := &Orchestrator{
		registry:      registry,
		acceptor:      acceptor,
		signals:       signalsFromEnv(),
		forcedTimeout: drain.GetenvDurationOrDefault(EnvForcedTimeout, DefaultForcedTimeout),
		development:   drain.GetenvBoolOrDefault(EnvDevelopment, false),
		exitFunc:      os.Exit,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = log.NewNop()
	}

	return o, nil
}

// ShuttingDown reports whether the shutdown sequence has been triggered.
func (o *Orchestrator) ShuttingDown() bool {
	return o.shuttingDown.Load()
}

// Trigger runs the shutdown sequence for the given signal name. The first call
// wins: concurrent or repeated triggers are no-ops, so duplicate signals can
// never double-run the cleanup hook or double-start the forced timer.
func (o *Orchestrator) Trigger(signalName string) {
	ctx := context.Background()

	if o.development {
		o.logger.Log(ctx, log.LevelInfo, "development mode, exiting immediately",
			log.String("signal", signalName))
		o.exit(ExitGraceful)

		return
	}

	if !o.shuttingDown.CompareAndSwap(false, true) {
		return
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "graceful_shutdown",
		trace.WithAttributes(attribute.String("signal", signalName)))

	o.logger.Log(ctx, log.LevelInfo, "gracefully shutting down",
		log.String("signal", signalName),
		log.Int("connections", o.registry.Len()))

	o.registry.BeginDrain()

	// The forced timer runs on a detached timer goroutine; it races the
	// graceful path and never keeps the process alive on its own.
	if o.forcedTimeout > 0 {
		time.AfterFunc(o.forcedTimeout, func() {
			o.logger.Log(context.Background(), log.LevelWarn, "forced shutdown deadline reached",
				log.Duration("timeout", o.forcedTimeout))
			o.exit(ExitForced)
		})
	}

	reaped := o.registry.ReapIdle()
	span.SetAttributes(attribute.Int("connections.reaped", reaped))

	o.logger.Log(ctx, log.LevelInfo, "reaped idle connections",
		log.Int("reaped", reaped),
		log.Int("remaining", o.registry.Len()))

	o.awaitHook(ctx)
	o.closeAcceptor(ctx)

	// Drain confirmation: every tracked connection has finished and been
	// reclaimed. Without a forced timeout, a connection that never goes
	// idle blocks here indefinitely.
	<-o.registry.Emptied()

	o.logger.Log(ctx, log.LevelInfo, "graceful shutdown completed")
	span.End()

	o.exit(ExitGraceful)
}

// awaitHook runs the cleanup hook, if configured, and waits for it to
// complete. Hook errors follow the error-observer policy; a panicking hook is
// recovered and treated as completion so it cannot wedge the graceful path.
func (o *Orchestrator) awaitHook(ctx context.Context) {
	if o.onShutdown == nil {
		return
	}

	o.logger.Log(ctx, log.LevelInfo, "running shutdown hook")

	err := func() error {
		defer runtime.RecoverAndLogWithContext(ctx, o.logger, "server", "on_shutdown")

		return o.onShutdown(ctx)
	}()
	if err != nil && o.observer != nil {
		o.observer("on_shutdown", err)
	}
}

// closeAcceptor stops the server accepting new connections. In-flight drains
// are independent of this and keep progressing.
func (o *Orchestrator) closeAcceptor(ctx context.Context) {
	if o.acceptor == nil {
		return
	}

	o.logger.Log(ctx, log.LevelInfo, "closing listener")

	if err := o.acceptor.Close(); err != nil && o.observer != nil {
		o.observer("acceptor_close", err)
	}
}

// exit terminates the process. The finally hook runs exactly once per process
// lifetime, synchronously, before the exit function is called; whichever exit
// path gets here first wins.
func (o *Orchestrator) exit(code int) {
	o.exitOnce.Do(func() {
		if o.finally != nil {
			func() {
				defer runtime.RecoverAndLogWithContext(context.Background(), o.logger, "server", "finally")

				o.finally()
			}()
		}

		o.exitFunc(code)
	})
}
