package live

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edupro/internal/metrics"
	"edupro/internal/model"
	"edupro/internal/realtime"
	"edupro/internal/throttle"
	"edupro/pkg/logging"
)

type InboxConfig struct {
	InitialGuard  time.Duration
	RealtimeGuard time.Duration
}

// Inbox pushes the caller's conversation list to a sink whenever it may
// have changed. Every refresh goes through one throttle; triggers inside
// the guard window are dropped.
type Inbox struct {
	hub      *realtime.Hub
	lister   ConversationLister
	sink     Sink
	throttle *throttle.Throttle
	cfg      InboxConfig
	logger   *logging.Logger

	known map[string]struct{}
}

func NewInbox(hub *realtime.Hub, lister ConversationLister, sink Sink, cfg InboxConfig, logger *logging.Logger) *Inbox {
	return &Inbox{
		hub:      hub,
		lister:   lister,
		sink:     sink,
		throttle: throttle.New(),
		cfg:      cfg,
		logger:   logger,
		known:    make(map[string]struct{}),
	}
}

// Run serves the feed for the user in ctx until ctx is done or the sink
// fails.
func (i *Inbox) Run(ctx context.Context, userID uuid.UUID) error {
	me := userID.String()
	convs := i.hub.Subscribe(realtime.Filter{
		Table: "conversations",
		Any:   []realtime.Predicate{{Column: "teacher_id", Value: me}, {Column: "student_id", Value: me}},
	})
	defer convs.Close()
	msgs := i.hub.Subscribe(realtime.Filter{Table: "messages"})
	defer msgs.Close()

	metrics.LiveFeeds.WithLabelValues("inbox").Inc()
	defer metrics.LiveFeeds.WithLabelValues("inbox").Dec()

	if err := i.trigger(ctx, i.cfg.InitialGuard); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-convs.Events():
			if !ok {
				return nil
			}
			if err := i.trigger(ctx, i.cfg.RealtimeGuard); err != nil {
				return err
			}
		case ev, ok := <-msgs.Events():
			if !ok {
				return nil
			}
			if !i.concerns(ev) {
				continue
			}
			if err := i.trigger(ctx, i.cfg.RealtimeGuard); err != nil {
				return err
			}
		}
	}
}

func (i *Inbox) concerns(ev realtime.Event) bool {
	id, ok := ev.Column("conversation_id")
	if !ok {
		return false
	}
	_, ok = i.known[id]
	return ok
}

func (i *Inbox) trigger(ctx context.Context, guard time.Duration) error {
	if !i.throttle.Allow(guard) {
		metrics.InboxRefreshes.WithLabelValues("suppressed").Inc()
		logging.FromContext(ctx, i.logger).Debug(ctx, "conversation refresh suppressed",
			zap.Time("last_refresh", i.throttle.Last()), zap.Duration("guard", guard))
		return nil
	}

	list, err := i.lister.ListConversations(ctx)
	if err != nil {
		// a failed refresh keeps the previous list on the client
		metrics.InboxRefreshes.WithLabelValues("failed").Inc()
		logging.FromContext(ctx, i.logger).Warn(ctx, "failed to refresh conversations", zap.Error(err))
		return nil
	}
	metrics.InboxRefreshes.WithLabelValues("sent").Inc()

	i.remember(list)
	if list == nil {
		list = []*model.ConversationSummary{}
	}
	return i.sink.WriteJSON(Frame{Type: FrameConversations, Conversations: list})
}

func (i *Inbox) remember(list []*model.ConversationSummary) {
	known := make(map[string]struct{}, len(list))
	for _, c := range list {
		known[c.Id.String()] = struct{}{}
	}
	i.known = known
}
