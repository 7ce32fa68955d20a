package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBackend = errors.New("backend unavailable")

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "remote", MaxFailures: 2, Timeout: time.Minute})

	calls := 0
	fail := func() error {
		calls++
		return errBackend
	}

	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, "open", cb.State())

	assert.ErrorIs(t, cb.Execute(fail), ErrOpen)
	assert.Equal(t, 2, calls, "open breaker must not invoke the call")
}

func TestIgnoredErrorsKeepBreakerClosed(t *testing.T) {
	errClient := errors.New("404")
	cb := NewCircuitBreaker(Settings{
		Name:        "remote",
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return !errors.Is(err, errClient) },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errClient }), errClient)
	}
	assert.Equal(t, "closed", cb.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(Settings{
		Name:        "remote",
		MaxFailures: 1,
		Timeout:     time.Minute,
		OnStateChange: func(name, from, to string) {
			transitions = append(transitions, name+":"+from+"->"+to)
		},
	})

	_ = cb.Execute(func() error { return errBackend })
	assert.Equal(t, []string{"remote:closed->open"}, transitions)
}
