package runtime

import "context"

// SafeGoWithContextAndComponent launches fn in a new goroutine with panic
// recovery. The component and name labels identify the goroutine in panic logs.
func SafeGoWithContextAndComponent(
	ctx context.Context,
	logger Logger,
	component, name string,
	policy RecoveryPolicy,
	fn func(ctx context.Context),
) {
	go func() {
		defer RecoverWithPolicyAndContext(ctx, logger, component, name, policy)

		fn(ctx)
	}()
}

// SafeGoWithContext launches fn in a new goroutine with panic recovery,
// using a generic component label.
func SafeGoWithContext(ctx context.Context, logger Logger, name string, fn func(ctx context.Context)) {
	SafeGoWithContextAndComponent(ctx, logger, "", name, KeepRunning, fn)
}
