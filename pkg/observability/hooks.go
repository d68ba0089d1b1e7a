// Package observability lets a host process observe solver runs without the
// solver depending on any metrics or tracing backend.
//
// Hooks are interfaces with no-op defaults. The binary registers its own
// implementations once at startup; library code only ever calls the
// accessors:
//
//	observability.Solver().OnOptimizeStart(ctx, maxBricks)
//	res, err := search.Run(ctx)
//	observability.Solver().OnOptimizeComplete(ctx, res.Evaluated, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// SolverHooks receives events from the solve pipeline.
type SolverHooks interface {
	OnOptimizeStart(ctx context.Context, maxBricks int)
	OnOptimizeComplete(ctx context.Context, evaluated int, duration time.Duration, err error)

	// OnGenerate fires once the brick grid exists.
	OnGenerate(ctx context.Context, bricks int, duration time.Duration)

	// OnCarve fires per opening; err is set for unknown walls.
	OnCarve(ctx context.Context, wall string, carved int, err error)

	OnExport(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events for requests served by, or sent from, the
// process.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopSolverHooks ignores every event.
type NoopSolverHooks struct{}

func (NoopSolverHooks) OnOptimizeStart(context.Context, int)                          {}
func (NoopSolverHooks) OnOptimizeComplete(context.Context, int, time.Duration, error) {}
func (NoopSolverHooks) OnGenerate(context.Context, int, time.Duration)                {}
func (NoopSolverHooks) OnCarve(context.Context, string, int, error)                   {}
func (NoopSolverHooks) OnExport(context.Context, []string, time.Duration, error)      {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	solverHooks SolverHooks = NoopSolverHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetSolverHooks registers solver hooks. Nil is ignored.
func SetSolverHooks(h SolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solverHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Solver returns the registered solver hooks.
func Solver() SolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solverHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	solverHooks = NoopSolverHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
