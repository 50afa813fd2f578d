package source

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type cycleKey struct{}

// cycle remembers every download made under one context so that adapters
// sharing an upstream hit it once.
type cycle struct {
	group singleflight.Group

	mu     sync.Mutex
	bodies map[string]cycleResult
}

type cycleResult struct {
	body []byte
	err  error
}

// WithCycle returns a context under which Fetcher.Get downloads each URL at
// most once. Failures are remembered as well. A context that already carries
// a cycle is returned unchanged.
func WithCycle(ctx context.Context) context.Context {
	if cycleFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, cycleKey{}, &cycle{bodies: make(map[string]cycleResult)})
}

func cycleFrom(ctx context.Context) *cycle {
	c, _ := ctx.Value(cycleKey{}).(*cycle)
	return c
}

func (c *cycle) get(rawURL string, fetch func() ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	if r, ok := c.bodies[rawURL]; ok {
		c.mu.Unlock()
		return r.body, r.err
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(rawURL, func() (interface{}, error) {
		body, err := fetch()
		c.mu.Lock()
		c.bodies[rawURL] = cycleResult{body: body, err: err}
		c.mu.Unlock()
		return body, err
	})
	body, _ := v.([]byte)
	return body, err
}
