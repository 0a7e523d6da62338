package cache

import (
	"context"
	"sync"
	"time"

	"emperror.dev/errors"
)

var errFillTimeout = errors.Wrap(context.DeadlineExceeded, "cache fill timed out")

// fillOutcome is shared by every waiter of a fill.
type fillOutcome struct {
	err   error
	entry *Entry
	// Result label given to waiters
	status string
	// Entry must be removed from store
	remove bool
	// Body shared by waiters when the object can't be cached
	stream *stream
}

type fillFunc func(ctx context.Context) *fillOutcome

// commitFunc stores the outcome. It is called with the group lock held
// so an invalidation can't interleave.
type commitFunc func(o *fillOutcome)

type call struct {
	done    chan struct{}
	outcome *fillOutcome
	cancel  context.CancelFunc
	timer   *time.Timer
	// Set once the fill is over and its body is streamed
	stream  *stream
	waiters int
	// Outcome must not be committed
	forgotten bool
}

// group coalesces concurrent fills of the same key.
// A fill runs detached from its callers and is cancelled only when its last waiter leaves.
// The timeout bounds the fill until it returns, a streamed body is then bound to its readers.
type group struct {
	calls   map[string]*call
	timeout time.Duration
	mu      sync.Mutex
}

func newGroup(timeout time.Duration) *group {
	return &group{
		calls:   map[string]*call{},
		timeout: timeout,
	}
}

// do runs fn once for all concurrent callers of key and returns its outcome.
// The boolean result is true when the caller joined an existing fill.
func (g *group) do(ctx context.Context, key string, fn fillFunc, commit commitFunc) (*fillOutcome, bool, error) {
	g.mu.Lock()

	c, shared := g.calls[key]
	// Start a new fill
	if !shared {
		// Keep context values but not its cancellation
		fctx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))

		c = &call{
			done:   make(chan struct{}),
			cancel: func() { cancel(context.Canceled) },
			timer:  time.AfterFunc(g.timeout, func() { cancel(errFillTimeout) }),
		}
		g.calls[key] = c

		go g.run(fctx, key, c, fn, commit)
	}

	c.waiters++

	g.mu.Unlock()

	select {
	case <-c.done:
		return c.outcome, shared, nil
	case <-ctx.Done():
		g.leave(key, c)

		return nil, shared, errors.WithStack(ctx.Err())
	}
}

func (g *group) leave(key string, c *call) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c.waiters--
	// Fill is over, its reader for this waiter is dropped
	if c.stream != nil {
		c.stream.release()

		return
	}

	// Last waiter cancels the fill
	if c.waiters == 0 {
		c.forgotten = true
		c.cancel()

		// Newcomers must start a new fill
		if g.calls[key] == c {
			delete(g.calls, key)
		}
	}
}

// forget detaches the in-flight fill of key, its outcome won't be committed.
// Returns true when a fill was in flight.
func (g *group) forget(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.calls[key]
	if !ok {
		return false
	}

	c.forgotten = true

	delete(g.calls, key)

	return true
}

// inFlight returns the number of running fills.
func (g *group) inFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.calls)
}

func (g *group) run(ctx context.Context, key string, c *call, fn fillFunc, commit commitFunc) {
	defer func() {
		// Panics are returned to waiters
		if r := recover(); r != nil {
			c.outcome = &fillOutcome{err: errors.Errorf("cache fill panicked: %v", r)}
		}

		g.mu.Lock()

		// Commit outcome
		if !c.forgotten && commit != nil {
			safeCommit(commit, c.outcome)
		}

		// Remove call
		if g.calls[key] == c {
			delete(g.calls, key)
		}

		c.timer.Stop()

		// Stream owns the fill context until its readers are done
		if c.outcome.stream != nil {
			c.stream = c.outcome.stream
			c.stream.open(c.waiters, c.cancel)
		} else {
			c.cancel()
		}

		g.mu.Unlock()

		close(c.done)
	}()

	c.outcome = fn(ctx)
	// Never return a nil outcome
	if c.outcome == nil {
		c.outcome = &fillOutcome{err: errors.New("cache fill returned no result")}
	}
}

// safeCommit never lets a commit panic block waiters.
func safeCommit(commit commitFunc, o *fillOutcome) {
	defer func() {
		_ = recover()
	}()

	commit(o)
}
