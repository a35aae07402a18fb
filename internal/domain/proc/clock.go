package proc

import (
	"context"
	"sync"
	"time"
)

// Clock is the monotonic tick counter. It carries its own lock, separate
// from the process table.
type Clock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	ticks uint64

	observersMu sync.RWMutex
	observers   []func(tick uint64)
}

// NewClock creates a clock at tick zero
func NewClock() *Clock {
	c := &Clock{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// OnTick registers fn to run after every tick, outside the clock lock.
func (c *Clock) OnTick(fn func(tick uint64)) {
	c.observersMu.Lock()
	c.observers = append(c.observers, fn)
	c.observersMu.Unlock()
}

// Tick advances the clock by one and wakes sleepers.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	c.ticks++
	now := c.ticks
	c.cond.Broadcast()
	c.mu.Unlock()

	c.observersMu.RLock()
	observers := c.observers
	c.observersMu.RUnlock()

	for _, fn := range observers {
		fn(now)
	}
	return now
}

// Uptime returns the current tick count
func (c *Clock) Uptime() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Run ticks every interval until ctx is done.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// wake rouses sleepers so they can re-check their exit conditions.
func (c *Clock) wake() {
	c.mu.Lock()
	c.cond.Broadcast()
	c.mu.Unlock()
}

// sleep blocks until n ticks have elapsed. It gives up early with ErrKilled
// when killed reports true, or with the context error.
func (c *Clock) sleep(ctx context.Context, n uint64, killed func() bool) error {
	stop := context.AfterFunc(ctx, c.wake)
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.ticks
	for c.ticks-start < n {
		if killed() {
			return ErrKilled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c.cond.Wait()
	}
	return nil
}
