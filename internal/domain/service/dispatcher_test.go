package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hifi-remote/internal/domain/model"
)

const testHold = 20 * time.Millisecond

func TestDispatcher_ClampsRepetitions(t *testing.T) {
	d := NewDispatcher(newFakeDevice(), nil, nil, testHold)

	tests := []struct {
		in   int
		want int
	}{
		{in: -3, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 7, want: 7},
	}
	for _, tt := range tests {
		req := d.Normalize(model.Binding{Device: "MyAmp", Command: "VOL_UP", Repetitions: tt.in}, PressOptions{})
		assert.Equal(t, tt.want, req.Repetitions, "repetitions %d", tt.in)
		assert.True(t, req.Fast)
	}

	req := d.Normalize(model.Binding{Device: "MyAmp", Command: "VOL_UP"}, PressOptions{Queued: true})
	assert.False(t, req.Fast)
}

func TestDispatcher_PressSends(t *testing.T) {
	dev := newFakeDevice()
	d := NewDispatcher(dev, nil, nil, testHold)

	out := d.Press(context.Background(), model.Binding{Device: "MyAmp", Command: "MUTE, CD"}, PressOptions{})
	assert.Equal(t, OutcomeSent, out)
	require.Equal(t, 1, dev.sendCount())
	assert.Equal(t, "MyAmp", dev.sends[0].Name)
	assert.Equal(t, "MUTE,CD", dev.sends[0].CommandParam())
	assert.Equal(t, 1, dev.sends[0].Repetitions)
}

func TestDispatcher_PlaceholderNotifiesOnce(t *testing.T) {
	for name, b := range map[string]model.Binding{
		"no device":  {Command: "MUTE"},
		"no command": {Device: "MyAmp"},
		"empty":      {},
	} {
		t.Run(name, func(t *testing.T) {
			dev := newFakeDevice()
			n := new(MockNotifier)
			n.On("Alert", "Not configured", "Configure this button in Edit mode.").Return().Once()
			d := NewDispatcher(dev, n, nil, testHold)

			assert.Equal(t, OutcomePlaceholder, d.Press(context.Background(), b, PressOptions{}))
			assert.Equal(t, 0, dev.sendCount())
			n.AssertExpectations(t)
			n.AssertNumberOfCalls(t, "Alert", 1)
		})
	}
}

func TestDispatcher_EditModeOpensEditor(t *testing.T) {
	dev := newFakeDevice()
	n := new(MockNotifier)
	d := NewDispatcher(dev, n, nil, testHold)

	edits := 0
	opts := PressOptions{EditMode: true, OnEdit: func() { edits++ }}
	assert.Equal(t, OutcomeEdit, d.Press(context.Background(), model.Binding{}, opts))
	assert.Equal(t, OutcomeEdit, d.Press(context.Background(), model.Binding{Device: "MyAmp", Command: "CD"}, opts))

	assert.Equal(t, 2, edits)
	assert.Equal(t, 0, dev.sendCount())
	n.AssertNotCalled(t, "Alert", mock.Anything, mock.Anything)
}

func TestDispatcher_FailureRaisesAlert(t *testing.T) {
	dev := newFakeDevice()
	dev.sendErr = &model.StatusError{Op: "send", Code: 500}
	n := new(MockNotifier)
	n.On("Alert", "Send failed", "send failed: 500").Return().Once()
	d := NewDispatcher(dev, n, nil, testHold)

	assert.Equal(t, OutcomeFailed, d.Press(context.Background(), model.Binding{Device: "MyAmp", Command: "CD"}, PressOptions{}))
	n.AssertExpectations(t)
}

func TestDispatcher_HoldRepeatsUntilRelease(t *testing.T) {
	dev := newFakeDevice()
	d := NewDispatcher(dev, nil, nil, testHold)

	h := d.Hold(context.Background(), model.Binding{Device: "MyAmp", Command: "VOL_UP"}, PressOptions{})
	assert.Eventually(t, func() bool { return h.Fired() >= 3 }, time.Second, 5*time.Millisecond)
	h.Release()
	h.Wait()

	fired := h.Fired()
	assert.Equal(t, fired, dev.sendCount())
	time.Sleep(4 * testHold)
	assert.Equal(t, fired, dev.sendCount())
}

func TestDispatcher_ReleaseDuringFirstSend(t *testing.T) {
	dev := newFakeDevice()
	started := make(chan struct{})
	proceed := make(chan struct{})
	dev.onSend = func(model.SendRequest) {
		close(started)
		<-proceed
	}
	d := NewDispatcher(dev, nil, nil, testHold)

	h := d.Hold(context.Background(), model.Binding{Device: "MyAmp", Command: "VOL_UP"}, PressOptions{})
	<-started
	h.Release()
	close(proceed)
	h.Wait()

	assert.Equal(t, 1, dev.sendCount())
	assert.Equal(t, 1, h.Fired())
}

func TestDispatcher_HoldStopsOnCancel(t *testing.T) {
	dev := newFakeDevice()
	d := NewDispatcher(dev, nil, nil, testHold)
	ctx, cancel := context.WithCancel(context.Background())

	h := d.Hold(ctx, model.Binding{Device: "MyAmp", Command: "VOL_DOWN"}, PressOptions{})
	assert.Eventually(t, func() bool { return h.Fired() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	h.Wait()
	h.Release()
}

func TestDispatcher_HoldStopsAfterFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.sendErr = errOffline
	n := new(MockNotifier)
	n.On("Alert", "Send failed", errOffline.Error()).Return()
	d := NewDispatcher(dev, n, nil, testHold)

	h := d.Hold(context.Background(), model.Binding{Device: "MyAmp", Command: "VOL_UP"}, PressOptions{})
	h.Wait()
	assert.Equal(t, 1, h.Fired())
	n.AssertNumberOfCalls(t, "Alert", 1)
}

func TestDispatcher_HoldPlaceholderNeverRepeats(t *testing.T) {
	dev := newFakeDevice()
	n := new(MockNotifier)
	n.On("Alert", mock.Anything, mock.Anything).Return()
	d := NewDispatcher(dev, n, nil, testHold)

	h := d.Hold(context.Background(), model.Binding{Device: "MyAmp"}, PressOptions{})
	h.Wait()
	assert.Equal(t, 0, h.Fired())
	assert.Equal(t, 0, dev.sendCount())
	n.AssertNumberOfCalls(t, "Alert", 1)
}
