package coalescer

import (
	"context"

	"github.com/arvindsc/entain-assessment/pkg/keygen"
)

// Wrap returns a function with the same shape as fn whose invocations are
// transparently coalesced by a private coalescer: concurrent calls whose
// arguments derive the same key share one execution of fn. The optional keyFn
// overrides key derivation; by default the key is keygen.FromArgs(arg).
//
// The context passed to fn is the one supplied by the caller that started the
// flight; attached callers' contexts only govern their own waiting.
func Wrap[A any, V any](fn func(context.Context, A) (V, error), keyFn ...func(A) string) func(context.Context, A) (V, error) {
	derive := func(arg A) string { return keygen.FromArgs(arg) }
	if len(keyFn) > 0 && keyFn[0] != nil {
		derive = keyFn[0]
	}

	c := New[string, V]()
	return func(ctx context.Context, arg A) (V, error) {
		return c.Do(ctx, derive(arg), func() (V, error) {
			return fn(ctx, arg)
		})
	}
}
