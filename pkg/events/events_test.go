package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishToSubscribers(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()

	h.Publish(CalibrationPhase, CalibrationPhaseEvent{RunID: "r", From: "Constructed", To: "Validated", Ts: 1})

	ev := <-ch
	assert.Equal(t, CalibrationPhase, ev.Name)
	payload, err := DecodeAs[CalibrationPhaseEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, "Validated", payload.To)
	assert.Equal(t, "r", payload.RunID)

	h.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
	// unsubscribing twice is harmless
	h.Unsubscribe(ch)
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	for i := 0; i < 20; i++ {
		h.Publish(CalibrationPublish, CalibrationPublishEvent{Key: "k"})
	}
	assert.Len(t, ch, cap(ch))
}

func TestSinksRunInOrder(t *testing.T) {
	h := NewEventHub()
	var got []string
	h.AddSink(SinkFunc(func(e Event) error {
		got = append(got, "a:"+e.Name)
		return errors.New("ignored")
	}))
	h.AddSink(SinkFunc(func(e Event) error {
		got = append(got, "b:"+e.Name)
		return nil
	}))

	h.Publish(CalibrationPhase, CalibrationPhaseEvent{})
	h.Publish(CalibrationPublish, CalibrationPublishEvent{})
	assert.Equal(t, []string{
		"a:calibration.phase", "b:calibration.phase",
		"a:calibration.publish", "b:calibration.publish",
	}, got)
}

func TestNilHub(t *testing.T) {
	var h *EventHub
	assert.NotPanics(t, func() { h.Publish(CalibrationPhase, nil) })
}

func TestDecodeEmpty(t *testing.T) {
	v, err := DecodeAs[CalibrationPublishEvent](Event{Name: CalibrationPublish})
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestJournal(t *testing.T) {
	var buf bytes.Buffer
	h := NewEventHub()
	h.AddSink(NewJournal(&buf))

	h.Publish(CalibrationPublish, CalibrationPublishEvent{RunID: "r", Method: "sk_sol", Key: "directivity", Path: "ed.s1p"})
	h.Publish(CalibrationPhase, CalibrationPhaseEvent{RunID: "r", From: "Solved", To: "Published"})

	sc := bufio.NewScanner(&buf)
	var lines []Event
	for sc.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		lines = append(lines, e)
	}
	require.Len(t, lines, 2)
	pub, err := DecodeAs[CalibrationPublishEvent](lines[0])
	require.NoError(t, err)
	assert.Equal(t, "ed.s1p", pub.Path)
	assert.Empty(t, pub.Warning)
	assert.Equal(t, CalibrationPhase, lines[1].Name)
}

func TestOpenJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	for i := 0; i < 2; i++ {
		j, err := OpenJournal(path)
		require.NoError(t, err)
		require.NoError(t, j.Handle(Event{Name: CalibrationPhase, Data: json.RawMessage(`{}`)}))
		require.NoError(t, j.Close())
	}
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"calibration.phase\",\"data\":{}}\n{\"name\":\"calibration.phase\",\"data\":{}}\n", string(b))

	_, err = OpenJournal(filepath.Join(path, "nested"))
	assert.Error(t, err)
}
