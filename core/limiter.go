package core

import (
	"fmt"
	"sync"
)

// CallBudget caps the number of worker invocations a single run may make.
// It is safe for concurrent use by the workers of a fan-out.
type CallBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallBudget creates a budget allowing max calls. If max == 0, unlimited
// calls are allowed.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Acquire reserves one call for the worker identified by label.
func (b *CallBudget) Acquire(label string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.count >= b.max {
		return fmt.Errorf("%w: %s denied after %d calls", ErrBudgetExceeded, label, b.max)
	}

	b.count++

	return nil
}

// Used returns the number of calls reserved so far.
func (b *CallBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (b *CallBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1
	}

	return b.max - b.count
}
