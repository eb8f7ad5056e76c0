package event

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_DispatchOrder(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	var mu sync.Mutex
	var got []string
	err := e.On(`agent:lifecycle:step:.*`, func(item Item) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, item.Name)
		return nil
	})
	require.NoError(t, err)

	e.Emit(StepStart, 1, nil)
	e.Emit(ThinkStart, 1, nil)
	e.Emit(ThinkComplete, 1, nil)
	e.Emit(StepComplete, 1, nil)
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{StepStart, ThinkStart, ThinkComplete, StepComplete}, got)
}

func TestEmitter_PatternFiltering(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	var mu sync.Mutex
	count := 0
	require.NoError(t, e.On(`agent:lifecycle:plan:.*`, func(Item) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}))

	e.Emit(LifecyclePlanStart, 0, nil)
	e.Emit(StepStart, 1, nil)
	e.Emit(LifecyclePlanComplete, 0, nil)
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestEmitter_HandlerFailureSwallowed(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	var mu sync.Mutex
	var seen []string
	require.NoError(t, e.On(`.*`, func(Item) error {
		return errors.New("consumer broke")
	}))
	require.NoError(t, e.On(`.*`, func(item Item) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, item.Name)
		return nil
	}))

	e.Emit(LifecycleStart, 0, nil)
	e.Emit(LifecycleComplete, 0, nil)
	e.Wait()

	// The failing handler must not prevent delivery to others.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{LifecycleStart, LifecycleComplete}, seen)
}

func TestEmitter_HandlerPanicSwallowed(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	require.NoError(t, e.On(`.*`, func(Item) error {
		panic("boom")
	}))

	e.Emit(StepError, 2, map[string]any{"error": "x"})
	e.Wait() // must not deadlock or crash
}

func TestEmitter_EmitAfterClose(t *testing.T) {
	e := NewEmitter()

	delivered := 0
	require.NoError(t, e.On(`.*`, func(Item) error {
		delivered++
		return nil
	}))

	e.Close()
	e.Emit(LifecycleStart, 0, nil)
	assert.Zero(t, delivered)
}

func TestEmitter_InvalidPattern(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	assert.Error(t, e.On(`([`, func(Item) error { return nil }))
	assert.Error(t, e.On(`.*`, nil))
}
