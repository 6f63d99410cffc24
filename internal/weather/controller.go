package weather

import (
	"context"
	"sync"
	"time"
)

// Token identifies one weather lookup. Only the most recent token may
// commit its result.
type Token uint64

// Controller tracks the current lookup. Starting a lookup cancels the
// previous one, so a slow response for an old city can never overwrite a
// newer one.
type Controller struct {
	mu     sync.Mutex
	seq    Token
	cancel context.CancelFunc
}

// Begin cancels any in-flight lookup and starts a new one derived from parent.
func (c *Controller) Begin(parent context.Context) (context.Context, Token) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	c.cancel = cancel
	return ctx, c.seq
}

// Current reports whether tok is still the latest lookup.
func (c *Controller) Current(tok Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tok == c.seq
}

// Finish releases the context of tok if it is still current.
func (c *Controller) Finish(tok Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok == c.seq && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Cancel aborts the in-flight lookup and invalidates its token.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
}

// Debouncer runs a lookup once calls have been quiet for a fixed delay.
// Each Trigger stops the pending timer and cancels the in-flight lookup of
// the previous call. After Stop no further lookup starts.
type Debouncer struct {
	delay time.Duration
	ctl   *Controller

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer driving ctl.
func NewDebouncer(delay time.Duration, ctl *Controller) *Debouncer {
	return &Debouncer{delay: delay, ctl: ctl}
}

// Trigger schedules fn after the delay. fn receives a context cancelled
// when a later lookup starts, and the token to check before committing.
func (d *Debouncer) Trigger(parent context.Context, fn func(ctx context.Context, tok Token)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.ctl.Cancel()
	d.gen++
	gen := d.gen

	d.timer = time.AfterFunc(d.delay, func() {
		ctx, tok, ok := d.begin(parent, gen)
		if !ok {
			return
		}
		defer d.ctl.Finish(tok)
		fn(ctx, tok)
	})
}

// begin starts the lookup of generation gen unless a later Trigger or Stop
// came first, including one that ran after the timer fired.
func (d *Debouncer) begin(parent context.Context, gen uint64) (context.Context, Token, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || gen != d.gen {
		return nil, 0, false
	}
	ctx, tok := d.ctl.Begin(parent)
	return ctx, tok, true
}

// Stop drops the pending timer and cancels the in-flight lookup.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.ctl.Cancel()
}
