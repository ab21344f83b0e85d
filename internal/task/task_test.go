package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_Coalesces(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { runs.Add(1) })

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_CancelAndStop(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { runs.Add(1) })

	d.Trigger()
	d.Cancel()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())

	d.Trigger()
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Stop()
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestInterval_ImmediateAndStop(t *testing.T) {
	var runs atomic.Int32
	i := Every(context.Background(), 20*time.Millisecond, true, func(ctx context.Context) { runs.Add(1) })

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	i.Stop()
	after := runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, runs.Load())

	select {
	case <-i.Done():
	default:
		t.Fatal("loop still running after Stop")
	}
}

func TestInterval_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	i := Every(ctx, time.Hour, false, func(ctx context.Context) {})
	cancel()
	select {
	case <-i.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on parent cancel")
	}
	i.Stop()
}
