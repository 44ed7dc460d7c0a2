package errorutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Retriable("timeout")))
	assert.False(t, IsRetryable(NonRetriable("bad input")))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryable_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("indexing plan p-1: %w", Retriable("search backend 503"))
	assert.True(t, IsRetryable(err))
}

func TestWrap(t *testing.T) {
	original := RetriableWithDetails("timeout", "dial tcp: i/o timeout")
	assert.Same(t, original, Wrap(original), "existing Error passes through")

	wrapped := Wrap(errors.New("boom"))
	assert.False(t, wrapped.Retryable, "unknown errors default to non-retryable")
	assert.Nil(t, Wrap(nil))
}
