package sandbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Pool errors
var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// Pool keeps fresh contexts warm and bounds concurrent evaluations. A context
// handed out by Acquire is never handed out again: Release tears it down and
// a replacement is built in the background.
type Pool struct {
	config Config
	ready  chan *Context
	slots  chan struct{}
	size   int
	mu     sync.RWMutex
	closed bool

	created  atomic.Int64
	tornDown atomic.Int64
	failures atomic.Int64
	refills  sync.WaitGroup
}

// NewPool creates a sandbox pool
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config: config,
		ready:  make(chan *Context, size),
		slots:  make(chan struct{}, size),
		size:   size,
	}

	// Pre-create contexts
	for i := 0; i < size; i++ {
		c, err := pool.newContext()
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.ready <- c
	}

	return pool, nil
}

func (p *Pool) newContext() (*Context, error) {
	c, err := NewContext(p.config)
	if err != nil {
		p.failures.Add(1)
		return nil, err
	}
	p.created.Add(1)
	c.onTeardown = func() { p.tornDown.Add(1) }
	return c, nil
}

// Acquire waits for a free slot and returns a fresh context
func (p *Pool) Acquire(ctx context.Context) (*Context, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	wait := p.config.AcquireTimeout
	if wait <= 0 {
		wait = 5 * time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		<-p.slots
		return nil, ErrPoolClosed
	}

	select {
	case c, ok := <-p.ready:
		if ok {
			return c, nil
		}
	default:
	}

	// Nothing warm; build one inline
	c, err := p.newContext()
	if err != nil {
		<-p.slots
		return nil, err
	}
	return c, nil
}

// Release tears the context down, frees its slot and schedules a fresh
// replacement.
func (p *Pool) Release(c *Context) {
	c.Teardown()
	<-p.slots

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return
	}
	p.refills.Add(1)
	p.mu.RUnlock()

	go func() {
		defer p.refills.Done()
		p.refill()
	}()
}

func (p *Pool) refill() {
	c, err := p.newContext()
	if err != nil {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		c.Teardown()
		return
	}

	select {
	case p.ready <- c:
	default:
		// Pool full
		c.Teardown()
	}
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close tears down every warm context
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.ready)
	p.mu.Unlock()

	for c := range p.ready {
		c.Teardown()
	}
	p.refills.Wait()

	return nil
}

// InUse returns the number of contexts currently handed out
func (p *Pool) InUse() int {
	return len(p.slots)
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.ready),
		"in_use":    len(p.slots),
		"closed":    p.closed,
		"created":   p.created.Load(),
		"torn_down": p.tornDown.Load(),
		"failures":  p.failures.Load(),
	}
}
