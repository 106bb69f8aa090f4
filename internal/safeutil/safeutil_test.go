package safeutil

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPanicError(t *testing.T) {
	err := NewPanicError("boom", []byte("goroutine 1 [running]:"))
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "stack=")
}

func TestWithRecover_NilFunc(t *testing.T) {
	assert.Nil(t, WithRecover(nil))
}

func TestWithRecover_NoPanic(t *testing.T) {
	ran := false
	wrapped := WithRecover(func() { ran = true })
	wrapped()
	assert.True(t, ran)
}

func TestWithRecover_RecoversAndInvokesHandlers(t *testing.T) {
	var mu sync.Mutex
	var calls int
	var captured error

	handler := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		captured = err
	}

	wrapped := WithRecover(func() { panic("nope") }, handler, handler)
	wrapped()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
	require.Error(t, captured)
	assert.True(t, strings.Contains(captured.Error(), "nope"))
}

func TestWithRecover_NoHandlersSwallowsPanic(t *testing.T) {
	wrapped := WithRecover(func() { panic("nope") })
	assert.NotPanics(t, func() { wrapped() })
}

func TestGo_RunsConcurrently(t *testing.T) {
	done := make(chan struct{})
	Go(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Go did not run the function")
	}
}

func TestGo_RecoversPanic(t *testing.T) {
	errs := make(chan error, 1)
	Go(func() { panic("goroutine panic") }, func(err error) { errs <- err })

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "goroutine panic")
	case <-time.After(time.Second):
		t.Fatal("panic handler was not invoked")
	}
}
