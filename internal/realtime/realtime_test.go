package realtime_test

import (
	"testing"

	"edupro/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, payload string) realtime.Event {
	t.Helper()
	ev, err := realtime.ParseEvent([]byte(payload))
	require.NoError(t, err)
	return ev
}

func TestParseEvent(t *testing.T) {
	t.Run("Columns", func(t *testing.T) {
		ev := mustParse(t, `{"table":"messages","op":"INSERT","record":{"id":"m1","conversation_id":"c1","read":false,"body":"hi"}}`)

		assert.Equal(t, "messages", ev.Table)
		assert.Equal(t, realtime.OpInsert, ev.Op)
		assert.False(t, ev.Truncated)

		v, ok := ev.Column("conversation_id")
		assert.True(t, ok)
		assert.Equal(t, "c1", v)

		v, ok = ev.Column("read")
		assert.True(t, ok)
		assert.Equal(t, "false", v)

		_, ok = ev.Column("missing")
		assert.False(t, ok)
	})

	t.Run("Truncated", func(t *testing.T) {
		ev := mustParse(t, `{"table":"messages","op":"INSERT","record":{"id":"m1"},"truncated":true}`)
		assert.True(t, ev.Truncated)
	})

	t.Run("Decode", func(t *testing.T) {
		ev := mustParse(t, `{"table":"messages","op":"INSERT","record":{"id":"m1","body":"hi"}}`)
		var row struct {
			ID   string `json:"id"`
			Body string `json:"body"`
		}
		require.NoError(t, ev.Decode(&row))
		assert.Equal(t, "m1", row.ID)
		assert.Equal(t, "hi", row.Body)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := realtime.ParseEvent([]byte(`not json`))
		assert.Error(t, err)

		_, err = realtime.ParseEvent([]byte(`{"record":{}}`))
		assert.Error(t, err)
	})
}

func TestFilterMatch(t *testing.T) {
	insert := mustParse(t, `{"table":"conversations","op":"INSERT","record":{"teacher_id":"t1","student_id":"s1"}}`)
	del := mustParse(t, `{"table":"conversations","op":"DELETE","record":{"teacher_id":"t2","student_id":"s2"}}`)

	tests := []struct {
		name   string
		filter realtime.Filter
		event  realtime.Event
		want   bool
	}{
		{"EmptyMatchesAll", realtime.Filter{}, del, true},
		{"WrongTable", realtime.Filter{Table: "messages"}, insert, false},
		{"OpAllowed", realtime.Filter{Table: "conversations", Ops: []realtime.Op{realtime.OpInsert}}, insert, true},
		{"OpRejected", realtime.Filter{Ops: []realtime.Op{realtime.OpInsert, realtime.OpUpdate}}, del, false},
		{"AnyTeacher", realtime.Filter{Any: []realtime.Predicate{{"teacher_id", "t1"}, {"student_id", "t1"}}}, insert, true},
		{"AnyStudent", realtime.Filter{Any: []realtime.Predicate{{"teacher_id", "s1"}, {"student_id", "s1"}}}, insert, true},
		{"AnyNone", realtime.Filter{Any: []realtime.Predicate{{"teacher_id", "x"}, {"student_id", "x"}}}, insert, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.event))
		})
	}
}

func TestHub(t *testing.T) {
	msg := mustParse(t, `{"table":"messages","op":"INSERT","record":{"conversation_id":"c1"}}`)
	other := mustParse(t, `{"table":"messages","op":"INSERT","record":{"conversation_id":"c2"}}`)

	t.Run("DeliversMatching", func(t *testing.T) {
		hub := realtime.NewHub(4)
		sub := hub.Subscribe(realtime.Filter{Table: "messages", Any: []realtime.Predicate{{"conversation_id", "c1"}}})
		defer sub.Close()

		hub.Publish(other)
		hub.Publish(msg)

		got := <-sub.Events()
		v, _ := got.Column("conversation_id")
		assert.Equal(t, "c1", v)
		assert.Len(t, sub.Events(), 0)
	})

	t.Run("SlowSubscriberDrops", func(t *testing.T) {
		hub := realtime.NewHub(1)
		slow := hub.Subscribe(realtime.Filter{})
		defer slow.Close()

		hub.Publish(msg)
		hub.Publish(msg)
		hub.Publish(msg)

		assert.Equal(t, int64(2), slow.Dropped())
		assert.Len(t, slow.Events(), 1)
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		hub := realtime.NewHub(1)
		sub := hub.Subscribe(realtime.Filter{})
		assert.Equal(t, 1, hub.Len())

		sub.Close()
		sub.Close()
		assert.Equal(t, 0, hub.Len())

		_, open := <-sub.Events()
		assert.False(t, open)

		// publishing after close must not panic
		hub.Publish(msg)
	})
}
