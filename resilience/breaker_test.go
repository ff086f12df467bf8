package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerReturnsSuccessfulResult(t *testing.T) {
	b := New[int](3, time.Minute)
	v, shortCircuited, err := b.Execute(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	}, 0)
	require.NoError(t, err)
	assert.False(t, shortCircuited)
	assert.Equal(t, 42, v)
}

func TestBreakerOpensAfterThresholdAndServesFallback(t *testing.T) {
	b := New[int](3, time.Minute)
	failing := func(context.Context) (int, error) { return 0, errors.New("boom") }

	for i := 0; i < 3; i++ {
		_, _, _ = b.Execute(context.Background(), failing, -1)
	}

	v, shortCircuited, err := b.Execute(context.Background(), func(context.Context) (int, error) {
		t.Fatal("fn must not be called while the breaker is open")
		return 0, nil
	}, -1)
	require.NoError(t, err)
	assert.True(t, shortCircuited)
	assert.Equal(t, -1, v)
}

func TestBreakerServesLastGoodValueWhenOpen(t *testing.T) {
	b := New[int](1, time.Minute)
	_, _, err := b.Execute(context.Background(), func(context.Context) (int, error) { return 7, nil }, 0)
	require.NoError(t, err)

	_, _, _ = b.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}, -1)

	v, shortCircuited, err := b.Execute(context.Background(), func(context.Context) (int, error) {
		t.Fatal("fn must not be called while the breaker is open")
		return 0, nil
	}, -1)
	require.NoError(t, err)
	assert.True(t, shortCircuited)
	assert.Equal(t, 7, v)
}
