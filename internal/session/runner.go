package session

import (
	"context"
	"sync"
)

// runner launches collections, keeping only the latest one per key alive.
type runner struct {
	mu      sync.Mutex
	running map[string]*collection
	wg      sync.WaitGroup
}

type collection struct {
	cancel context.CancelFunc
}

// launch cancels the previous collection under key and runs fn on a new
// goroutine. The key is released when fn returns unless a newer collection
// has replaced it.
func (r *runner) launch(parent context.Context, key string, fn func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running == nil {
		r.running = make(map[string]*collection)
	}
	if prev, ok := r.running[key]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c := &collection{cancel: cancel}
	r.running[key] = c

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(key, c)
		fn(ctx)
	}()
}

func (r *runner) release(key string, c *collection) {
	c.cancel()
	r.mu.Lock()
	if r.running[key] == c {
		delete(r.running, key)
	}
	r.mu.Unlock()
}

// wait blocks until every launched collection has returned.
func (r *runner) wait() {
	r.wg.Wait()
}

// stop cancels all collections and waits for them.
func (r *runner) stop() {
	r.mu.Lock()
	for key, c := range r.running {
		c.cancel()
		delete(r.running, key)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
