package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/LerianStudio/lib-drain/drain/log"
)

// Logger defines the minimal logging interface required by recovery helpers.
// This interface is satisfied by drain/log.Logger.
type Logger interface {
	Log(ctx context.Context, level log.Level, msg string, fields ...log.Field)
}

// RecoveryPolicy controls what happens after a panic has been recovered and logged.
type RecoveryPolicy int

const (
	// KeepRunning swallows the panic after logging it. The goroutine exits
	// but the process keeps running.
	KeepRunning RecoveryPolicy = iota
	// CrashProcess re-raises the panic after logging it.
	CrashProcess
)

// HandlePanicValue logs an already-recovered panic value with its stack trace.
// Safe with a nil logger. Intended for integration points that perform their
// own recover() and hand the value over for consistent reporting.
func HandlePanicValue(ctx context.Context, logger Logger, value any, component, operation string) {
	if logger == nil {
		return
	}

	logger.Log(ctx, log.LevelError, "panic recovered",
		log.String("component", component),
		log.String("operation", operation),
		log.String("panic", fmt.Sprintf("%v", value)),
		log.String("stack", string(debug.Stack())),
	)
}

// applyPolicy logs the recovered value and re-raises it if the policy demands a crash.
func applyPolicy(ctx context.Context, logger Logger, component, operation string, policy RecoveryPolicy, value any) {
	HandlePanicValue(ctx, logger, value, component, operation)

	if policy == CrashProcess {
		panic(value)
	}
}

// RecoverWithPolicyAndContext recovers a panic in the calling goroutine, logs it,
// and applies the given policy. Must be used in a defer statement.
func RecoverWithPolicyAndContext(ctx context.Context, logger Logger, component, operation string, policy RecoveryPolicy) {
	if r := recover(); r != nil {
		applyPolicy(ctx, logger, component, operation, policy, r)
	}
}

// RecoverWithPolicy is the context-free variant of RecoverWithPolicyAndContext.
func RecoverWithPolicy(logger Logger, operation string, policy RecoveryPolicy) {
	if r := recover(); r != nil {
		applyPolicy(context.Background(), logger, "", operation, policy, r)
	}
}

// RecoverAndLogWithContext recovers a panic, logs it, and keeps the process running.
func RecoverAndLogWithContext(ctx context.Context, logger Logger, component, operation string) {
	if r := recover(); r != nil {
		applyPolicy(ctx, logger, component, operation, KeepRunning, r)
	}
}
