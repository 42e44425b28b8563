package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallBudget_Exhaustion(t *testing.T) {
	b := NewCallBudget(2)
	require.NoError(t, b.Acquire("jurorA"))
	require.NoError(t, b.Acquire("jurorB"))
	err := b.Acquire("jurorC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	assert.Equal(t, 2, b.Used())
	assert.Equal(t, 0, b.Remaining())
}

func TestCallBudget_Unlimited(t *testing.T) {
	b := NewCallBudget(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, b.Acquire("w"))
	}
	assert.Equal(t, -1, b.Remaining())
}

func TestCallBudget_Concurrent(t *testing.T) {
	b := NewCallBudget(10)
	var wg sync.WaitGroup
	var mu sync.Mutex
	denied := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := b.Acquire(fmt.Sprintf("w%d", i)); err != nil {
				mu.Lock()
				denied++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, denied)
	assert.Equal(t, 10, b.Used())
}

func TestErrorTaxonomy(t *testing.T) {
	v := &ValidationError{Field: "query", Message: "required"}
	assert.True(t, errors.Is(v, ErrInvalidRequest))
	assert.True(t, IsUserFacing(v))
	assert.False(t, IsRetryable(v))

	wf := &WorkerFailure{Phase: PhasePositions, Label: "jurorB", Err: errors.New("timeout")}
	assert.Equal(t, "One or more juror positions missing.", UserMessage(fmt.Errorf("run: %w", wf), "x"))
	assert.True(t, IsRetryable(wf))

	budget := &WorkerFailure{Phase: PhaseVerdict, Label: "verdict", Err: ErrBudgetExceeded}
	assert.False(t, IsRetryable(budget))
	assert.Equal(t, "fallback", UserMessage(errors.New("plain"), "fallback"))
}
