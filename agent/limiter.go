package agent

import (
	"fmt"
	"sync"
)

// callLimiter enforces a maximum number of model calls per Respond run.
// A max of 0 allows unlimited calls.
type callLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

func newCallLimiter(max int) *callLimiter {
	return &callLimiter{max: max}
}

// increment counts one call and errors once the limit is exceeded.
func (cl *callLimiter) increment() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count++
	if cl.max > 0 && cl.count > cl.max {
		return fmt.Errorf("exceeded max model calls: %d", cl.max)
	}
	return nil
}
