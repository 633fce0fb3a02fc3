// Package engine drives class transformation: it resolves which mixins
// apply to a class under the configured naming strategies, applies them
// in kind-then-priority order with per-mixin fail isolation, and
// exposes the two-phase probe/transform contract the host loader calls.
package engine
