package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
)

func TestUntilChecksImmediately(t *testing.T) {
	p := New(time.Hour, log.NewNopLogger())
	calls := 0
	err := p.Until(context.Background(), "test", func(context.Context) (bool, error) {
		calls++
		return true, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestUntilKeepsPollingUntilDone(t *testing.T) {
	p := New(time.Millisecond, nil)
	calls := 0
	err := p.Until(context.Background(), "test", func(context.Context) (bool, error) {
		calls++
		return calls == 5, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, calls)
}

func TestUntilStopsOnError(t *testing.T) {
	p := New(time.Millisecond, nil)
	boom := errors.New("boom")
	calls := 0
	err := p.Until(context.Background(), "test", func(context.Context) (bool, error) {
		calls++
		if calls == 3 {
			return false, boom
		}
		return false, nil
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 3, calls)
}

func TestUntilStopsWhenCancelled(t *testing.T) {
	p := New(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	err := p.Until(ctx, "test", func(context.Context) (bool, error) {
		cancel()
		return false, nil
	})
	assert.Equal(t, context.Canceled, err)
}

func TestNewDefaultsInterval(t *testing.T) {
	p := New(0, nil)
	assert.Equal(t, DefaultInterval, p.Interval)
}
