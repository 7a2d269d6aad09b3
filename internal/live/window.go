package live

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edupro/internal/metrics"
	"edupro/internal/model"
	"edupro/internal/realtime"
	"edupro/pkg/logging"
)

// Window streams one conversation. It subscribes before loading the
// history so nothing inserted during the load is missed; duplicates are
// dropped by message id. Events the hub had to drop for this subscriber
// are recovered by reloading the conversation.
type Window struct {
	hub    *realtime.Hub
	source MessageSource
	sink   Sink
	logger *logging.Logger

	conversationID uuid.UUID
	me             uuid.UUID
	messages       []*model.Message
	seen           map[uuid.UUID]struct{}
	dropped        int64
}

func NewWindow(hub *realtime.Hub, source MessageSource, sink Sink, logger *logging.Logger) *Window {
	return &Window{
		hub:    hub,
		source: source,
		sink:   sink,
		logger: logger,
		seen:   make(map[uuid.UUID]struct{}),
	}
}

// Run loads the conversation, sends it as a snapshot and then forwards new
// messages until ctx is done or the sink fails. The error from the initial
// load is returned as is so the caller can map it.
func (w *Window) Run(ctx context.Context, conversationID, userID uuid.UUID) error {
	w.conversationID = conversationID
	w.me = userID

	sub := w.hub.Subscribe(realtime.Filter{
		Table: "messages",
		Ops:   []realtime.Op{realtime.OpInsert},
		Any:   []realtime.Predicate{{Column: "conversation_id", Value: conversationID.String()}},
	})
	defer sub.Close()

	metrics.LiveFeeds.WithLabelValues("window").Inc()
	defer metrics.LiveFeeds.WithLabelValues("window").Dec()

	history, err := w.source.OpenConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	w.merge(history)
	if err := w.sink.WriteJSON(Frame{Type: FrameSnapshot, Messages: w.Messages()}); err != nil {
		return err
	}
	if err := w.catchUp(ctx, sub); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := w.handle(ctx, ev); err != nil {
				return err
			}
			if err := w.catchUp(ctx, sub); err != nil {
				return err
			}
		}
	}
}

// catchUp reloads the conversation when the hub dropped events for sub
// since the last check. A failed reload is retried on the next event.
func (w *Window) catchUp(ctx context.Context, sub *realtime.Subscription) error {
	dropped := sub.Dropped()
	if dropped <= w.dropped {
		return nil
	}
	logging.FromContext(ctx, w.logger).Warn(ctx, "realtime events dropped, reloading conversation",
		zap.String("conversation_id", w.conversationID.String()),
		zap.Int64("dropped", dropped-w.dropped))

	added, err := w.reload(ctx)
	if err != nil {
		return nil
	}
	w.dropped = dropped
	return w.push(ctx, added)
}

func (w *Window) handle(ctx context.Context, ev realtime.Event) error {
	var added []*model.Message
	if ev.Truncated {
		fresh, err := w.refetch(ctx, ev)
		if err != nil {
			return nil
		}
		added = fresh
	} else {
		var msg model.Message
		if err := ev.Decode(&msg); err != nil {
			logging.FromContext(ctx, w.logger).Warn(ctx, "dropping undecodable message event", zap.Error(err))
			return nil
		}
		added = w.merge([]*model.Message{&msg})
	}
	return w.push(ctx, added)
}

func (w *Window) push(ctx context.Context, added []*model.Message) error {
	if len(added) == 0 {
		return nil
	}
	w.markRead(ctx, added)
	return w.sink.WriteJSON(Frame{Type: FrameMessages, Messages: added})
}

func (w *Window) refetch(ctx context.Context, ev realtime.Event) ([]*model.Message, error) {
	if id, ok := ev.Column("id"); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			if _, dup := w.seen[parsed]; dup {
				return nil, nil
			}
		}
	}
	return w.reload(ctx)
}

// reload fetches the whole conversation and merges what is new.
func (w *Window) reload(ctx context.Context) ([]*model.Message, error) {
	history, err := w.source.OpenConversation(ctx, w.conversationID)
	if err != nil {
		logging.FromContext(ctx, w.logger).Warn(ctx, "failed to reload conversation",
			zap.String("conversation_id", w.conversationID.String()), zap.Error(err))
		return nil, err
	}
	return w.merge(history), nil
}

func (w *Window) markRead(ctx context.Context, added []*model.Message) {
	for _, m := range added {
		if m.SenderId != w.me && !m.Read {
			if _, err := w.source.MarkRead(ctx, w.conversationID); err != nil {
				logging.FromContext(ctx, w.logger).Warn(ctx, "failed to mark messages read",
					zap.String("conversation_id", w.conversationID.String()), zap.Error(err))
			}
			return
		}
	}
}

// merge adds unseen messages and returns them ordered by (created_at, id).
func (w *Window) merge(msgs []*model.Message) []*model.Message {
	var added []*model.Message
	for _, m := range msgs {
		if m == nil || m.ConversationId != w.conversationID {
			continue
		}
		if _, ok := w.seen[m.Id]; ok {
			continue
		}
		w.seen[m.Id] = struct{}{}
		added = append(added, m)
	}
	sortMessages(added)
	w.messages = append(w.messages, added...)
	sortMessages(w.messages)
	return added
}

// Messages returns the merged history ordered by (created_at, id).
func (w *Window) Messages() []*model.Message {
	out := make([]*model.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

func sortMessages(msgs []*model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].Id.String() < msgs[j].Id.String()
	})
}
