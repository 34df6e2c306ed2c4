package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	attempts := 0
	err := NewRetry().
		WithMaxInterval(time.Millisecond).
		WithMaxRetries(5).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("not yet")
			}
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryPermanent(t *testing.T) {
	attempts := 0
	expected := errors.New("broken")
	err := NewRetry().
		WithMaxInterval(time.Millisecond).
		Run(func() error {
			attempts++
			return Permanent(expected)
		})
	require.ErrorIs(t, err, expected)
	require.Equal(t, 1, attempts)
}

func TestRetryMaxRetries(t *testing.T) {
	attempts := 0
	var notified int
	err := NewRetry().
		WithMaxInterval(time.Millisecond).
		WithMaxRetries(2).
		WithOnError(func(error) { notified++ }).
		Run(func() error {
			attempts++
			return errors.New("down")
		})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, 2, notified)
}
