package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaingrosos/myguildmanager-core/errkind"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func alwaysTransient(err error) bool { return errors.Is(err, errTransient) }

func TestCallRetriesTransientUntilSuccess(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.RegisterPolicy(RetryPolicy{
		Service:       "svc",
		MaxRetries:    3,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2,
		Transient:     alwaysTransient,
	})

	attempts := 0
	err := env.Call(context.Background(), "svc", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestCallPropagatesNonTransientImmediately(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.RegisterPolicy(RetryPolicy{
		Service:       "svc",
		MaxRetries:    5,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2,
		Transient:     alwaysTransient,
	})

	attempts := 0
	err := env.Call(context.Background(), "svc", func(ctx context.Context) error {
		attempts++
		return errFatal
	})
	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, attempts)
}

func TestCallGivesUpAfterMaxRetries(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.RegisterPolicy(RetryPolicy{
		Service:       "svc",
		MaxRetries:    2,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2,
		Transient:     alwaysTransient,
	})

	attempts := 0
	err := env.Call(context.Background(), "svc", func(ctx context.Context) error {
		attempts++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts) // initial + 2 retries
}

func TestCallUsesDefaultTransientWhenPolicyOmitsOne(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.RegisterPolicy(RetryPolicy{
		Service:       "svc",
		MaxRetries:    3,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2,
	})

	attempts := 0
	err := env.Call(context.Background(), "svc", func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errkind.New(errkind.StoreTimeout, errTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestCallDefaultTransientPropagatesUnclassifiedErrorImmediately(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.RegisterPolicy(RetryPolicy{
		Service:       "svc",
		MaxRetries:    3,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2,
	})

	attempts := 0
	err := env.Call(context.Background(), "svc", func(ctx context.Context) error {
		attempts++
		return errFatal
	})
	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, attempts)
}

func TestExecuteWithFallbackUsesFallbackWhenDegraded(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.Degradation().RegisterFallback("svc", func(ctx context.Context) error { return nil })
	env.Degradation().SetDegraded("svc", true)

	err := env.Degradation().ExecuteWithFallback(context.Background(), "svc", func(ctx context.Context) error {
		return errFatal
	})
	assert.NoError(t, err)
}

func TestExecuteWithFallbackPropagatesWhenNotDegraded(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.Degradation().RegisterFallback("svc", func(ctx context.Context) error { return nil })

	err := env.Degradation().ExecuteWithFallback(context.Background(), "svc", func(ctx context.Context) error {
		return errFatal
	})
	assert.ErrorIs(t, err, errFatal)
}

func TestExecuteWithFallbackHonorsExplicitSignal(t *testing.T) {
	env := NewEnvelope(zerolog.Nop())
	env.Degradation().RegisterFallback("svc", func(ctx context.Context) error { return nil })

	err := env.Degradation().ExecuteWithFallback(context.Background(), "svc", func(ctx context.Context) error {
		return Degraded(errFatal)
	})
	assert.NoError(t, err)
}
