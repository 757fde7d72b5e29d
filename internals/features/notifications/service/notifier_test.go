package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBody(t *testing.T) {
	score := 7.5
	ev := Event{Kind: KindCompleted, Name: "Ana", ExamTitle: "Go 101", Score: &score}
	assert.Equal(t, "Exam submitted: Go 101", ev.Subject())
	assert.Contains(t, ev.Body(), "Score: 7.50")

	ev = Event{Kind: KindViolation, ExamTitle: "Go 101", Violations: 5}
	assert.Contains(t, ev.Body(), "suspended after 5")
	assert.Contains(t, ev.Body(), "Hi there")
}

func TestAsyncDeliversInOrder(t *testing.T) {
	rec := &Recorder{}
	a := NewAsync(rec, 4)
	for _, k := range []Kind{KindStarted, KindViolation, KindCompleted} {
		require.NoError(t, a.Notify(context.Background(), Event{Kind: k, Email: "s@x.io"}))
	}
	a.Close()

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, KindStarted, events[0].Kind)
	assert.Equal(t, KindCompleted, events[2].Kind)
}

func TestAsyncNotifyAfterCloseDrops(t *testing.T) {
	rec := &Recorder{}
	a := NewAsync(rec, 4)
	require.NoError(t, a.Notify(context.Background(), Event{Kind: KindStarted, Email: "s@x.io"}))
	a.Close()

	assert.NotPanics(t, func() {
		assert.NoError(t, a.Notify(context.Background(), Event{Kind: KindCompleted, Email: "s@x.io"}))
		a.Close()
	})
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, KindStarted, rec.Events()[0].Kind)
}

func TestSendGridPrepare(t *testing.T) {
	n := NewSendGridNotifier("key", "from@proctorx.app")
	m := n.prepare(Event{Kind: KindStarted, Email: "s@x.io", Name: "Sam", ExamTitle: "Algo"})
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[ProctorX] Exam started: Algo", m.Personalizations[0].Subject)
	assert.Equal(t, "s@x.io", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "from@proctorx.app", m.From.Address)
}
