// Package realtime fans out row change notifications from Postgres to
// in-process subscribers.
package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

const (
	ChannelMessages      = "messages_changes"
	ChannelConversations = "conversations_changes"
)

// Event is one row change. Record holds the row as JSON; Truncated means
// wide columns were left out and the row has to be reloaded.
type Event struct {
	Table     string          `json:"table"`
	Op        Op              `json:"op"`
	Record    json.RawMessage `json:"record"`
	Truncated bool            `json:"truncated,omitempty"`

	columns map[string]string
}

// ParseEvent decodes a notification payload.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	if ev.Table == "" || ev.Op == "" {
		return Event{}, fmt.Errorf("decode change event: missing table or op")
	}
	if err := ev.index(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (e *Event) index() error {
	var fields map[string]any
	if len(e.Record) > 0 {
		if err := json.Unmarshal(e.Record, &fields); err != nil {
			return fmt.Errorf("decode change record: %w", err)
		}
	}
	e.columns = make(map[string]string, len(fields))
	for k, v := range fields {
		switch v := v.(type) {
		case string:
			e.columns[k] = v
		case bool:
			e.columns[k] = strconv.FormatBool(v)
		case float64:
			e.columns[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
		default:
			raw, _ := json.Marshal(v)
			e.columns[k] = string(raw)
		}
	}
	return nil
}

// Column returns a column of the changed row as text.
func (e Event) Column(name string) (string, bool) {
	v, ok := e.columns[name]
	return v, ok
}

// Decode unmarshals the changed row into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Record, v)
}

type Predicate struct {
	Column string
	Value  string
}

// Filter selects events by table, operation and column values. Empty Ops
// matches every operation; with Any set, at least one predicate must hold.
type Filter struct {
	Table string
	Ops   []Op
	Any   []Predicate
}

func (f Filter) Match(e Event) bool {
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if len(f.Ops) > 0 {
		found := false
		for _, op := range f.Ops {
			if op == e.Op {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Any) == 0 {
		return true
	}
	for _, p := range f.Any {
		if v, ok := e.Column(p.Column); ok && v == p.Value {
			return true
		}
	}
	return false
}
