// Package runtime provides panic-safe goroutine launching and recovery helpers.
//
// Background goroutines launched with SafeGoWithContextAndComponent recover
// panics, log them with a stack trace, and either keep the process running or
// crash it according to the configured policy.
package runtime
