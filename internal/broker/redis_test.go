package broker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{ timeout bool }

func (e *timeoutErr) Error() string   { return "i/o timeout" }
func (e *timeoutErr) Timeout() bool   { return e.timeout }
func (e *timeoutErr) Temporary() bool { return e.timeout }

func TestIsPollTimeout(t *testing.T) {
	t.Parallel()

	assert.True(t, isPollTimeout(&timeoutErr{timeout: true}))
	assert.True(t, isPollTimeout(fmt.Errorf("receiving: %w", &timeoutErr{timeout: true})))
	assert.False(t, isPollTimeout(&timeoutErr{timeout: false}))
	assert.False(t, isPollTimeout(errors.New("connection refused")))
	assert.False(t, isPollTimeout(nil))
}

func TestConnectRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := Connect(t.Context(), "not-a-redis-url")
	assert.Error(t, err)
}
