package loop

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVirtual() (*Loop, clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return New(clock), clock
}

func TestAfterFiresOnce(t *testing.T) {
	l, clock := newVirtual()
	start := clock.Now()

	var fired []time.Duration
	l.Do(func() {
		l.After(250*time.Millisecond, func() {
			fired = append(fired, l.Now().Sub(start))
		})
	})

	require.NoError(t, l.Advance(200*time.Millisecond))
	assert.Empty(t, fired)
	require.NoError(t, l.Advance(time.Second))
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, fired)
	assert.Zero(t, l.Pending())
}

func TestEveryFiresAtExactTimes(t *testing.T) {
	l, clock := newVirtual()
	start := clock.Now()

	var fired []time.Duration
	l.Do(func() {
		l.Every(100*time.Millisecond, func() {
			fired = append(fired, l.Now().Sub(start))
		})
	})

	require.NoError(t, l.Advance(350*time.Millisecond))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, fired)
	assert.Equal(t, 350*time.Millisecond, clock.Now().Sub(start))
	assert.Equal(t, 1, l.Pending())
}

func TestOrderingByTimeThenRegistration(t *testing.T) {
	l, _ := newVirtual()
	var order []string
	l.Do(func() {
		l.After(20*time.Millisecond, func() { order = append(order, "late") })
		l.After(10*time.Millisecond, func() { order = append(order, "first") })
		l.After(10*time.Millisecond, func() { order = append(order, "second") })
	})
	require.NoError(t, l.Advance(time.Second))
	assert.Equal(t, []string{"first", "second", "late"}, order)
}

func TestCancel(t *testing.T) {
	l, _ := newVirtual()
	count := 0
	var task *Task
	l.Do(func() {
		task = l.Every(10*time.Millisecond, func() { count++ })
	})
	require.NoError(t, l.Advance(35*time.Millisecond))
	assert.Equal(t, 3, count)

	l.Do(func() {
		task.Cancel()
		task.Cancel()
	})
	assert.False(t, task.Active())
	assert.Zero(t, l.Pending())

	require.NoError(t, l.Advance(time.Second))
	assert.Equal(t, 3, count)
}

func TestCancelFromOwnCallback(t *testing.T) {
	l, _ := newVirtual()
	count := 0
	var task *Task
	l.Do(func() {
		task = l.Every(10*time.Millisecond, func() {
			count++
			if count == 2 {
				task.Cancel()
			}
		})
	})
	require.NoError(t, l.Advance(time.Second))
	assert.Equal(t, 2, count)
	assert.Zero(t, l.Pending())
}

func TestCallbackMaySchedule(t *testing.T) {
	l, clock := newVirtual()
	start := clock.Now()
	var at time.Duration
	l.Do(func() {
		l.After(time.Second, func() {
			l.After(2*time.Second, func() { at = l.Now().Sub(start) })
		})
	})
	require.NoError(t, l.Advance(5*time.Second))
	assert.Equal(t, 3*time.Second, at)
}

func TestPanicIsContained(t *testing.T) {
	l, _ := newVirtual()
	ran := false
	l.Do(func() {
		l.After(time.Millisecond, func() { panic("boom") })
		l.After(2*time.Millisecond, func() { ran = true })
	})
	require.NoError(t, l.Advance(time.Second))
	assert.True(t, ran)
}

func TestAdvanceNeedsFakeClock(t *testing.T) {
	l := New(clockwork.NewRealClock())
	assert.ErrorIs(t, l.Advance(time.Second), ErrNotVirtual)
}

func TestRunRealTime(t *testing.T) {
	l := New(clockwork.NewRealClock())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	fired := make(chan struct{})
	l.Do(func() {
		l.After(5*time.Millisecond, func() { close(fired) })
	})

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("task did not fire")
	}
	cancel()
	<-done
}
