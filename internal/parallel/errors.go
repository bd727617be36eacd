package parallel

import (
	"sync"
	"sync/atomic"
)

// ErrorCollector records the first non-nil error reported by a set of
// concurrent tasks. The zero value is ready to use.
type ErrorCollector struct {
	mu     sync.Mutex
	err    error
	failed atomic.Bool
}

// SetError records err if it is non-nil and no error has been recorded yet.
// Later errors are dropped.
func (c *ErrorCollector) SetError(err error) {
	if err == nil || c.failed.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
		c.failed.Store(true)
	}
}

// Err returns the first recorded error, or nil.
func (c *ErrorCollector) Err() error {
	if !c.failed.Load() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Failed reports whether an error has been recorded. It does not lock and is
// meant for hot paths that only need to know whether to stop.
func (c *ErrorCollector) Failed() bool {
	return c.failed.Load()
}
