package tracker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeferred_Fires(t *testing.T) {
	d := NewDeferred()

	var fired atomic.Int32
	d.Schedule("k", 10*time.Millisecond, func(seq uint64) {
		if d.Claim("k", seq) {
			fired.Add(1)
		}
	})
	assert.True(t, d.Pending("k"))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending("k"))
}

func TestDeferred_CancelPreventsAction(t *testing.T) {
	d := NewDeferred()

	var fired atomic.Int32
	d.Schedule("k", 20*time.Millisecond, func(seq uint64) {
		if d.Claim("k", seq) {
			fired.Add(1)
		}
	})

	assert.True(t, d.Cancel("k"))
	assert.False(t, d.Cancel("k"))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestDeferred_RescheduleReplaces(t *testing.T) {
	d := NewDeferred()

	var first, second atomic.Int32
	d.Schedule("k", 10*time.Millisecond, func(seq uint64) {
		if d.Claim("k", seq) {
			first.Add(1)
		}
	})
	d.Schedule("k", 30*time.Millisecond, func(seq uint64) {
		if d.Claim("k", seq) {
			second.Add(1)
		}
	})
	assert.Equal(t, 1, d.Len())

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestDeferred_StaleClaimFails(t *testing.T) {
	d := NewDeferred()

	d.Schedule("k", time.Hour, func(seq uint64) {})
	d.Schedule("k", time.Hour, func(seq uint64) {})

	// a timer from the first schedule that already fired must not claim the second
	assert.False(t, d.Claim("k", 1))
	assert.True(t, d.Claim("k", 2))
	assert.False(t, d.Claim("k", 2))
}

func TestDeferred_Stop(t *testing.T) {
	d := NewDeferred()

	var fired atomic.Int32
	d.Schedule("a", 10*time.Millisecond, func(seq uint64) { fired.Add(1) })
	d.Stop()
	d.Schedule("b", 10*time.Millisecond, func(seq uint64) { fired.Add(1) })

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, d.Len())
}
