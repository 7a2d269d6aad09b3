package realtime

import (
	"context"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"edupro/pkg/logging"
)

const idlePing = 90 * time.Second

// Listener relays Postgres NOTIFY payloads into a Hub.
type Listener struct {
	url      string
	hub      *Hub
	channels []string
	logger   *logging.Logger
}

func NewListener(url string, hub *Hub, logger *logging.Logger, channels ...string) *Listener {
	if len(channels) == 0 {
		channels = []string{ChannelMessages, ChannelConversations}
	}
	return &Listener{url: url, hub: hub, channels: channels, logger: logger}
}

// Run listens until ctx is cancelled. The connection is re-established by
// lib/pq on failure; notifications sent while disconnected are lost.
func (l *Listener) Run(ctx context.Context) error {
	report := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			l.logger.Info(ctx, "realtime listener connected")
		case pq.ListenerEventDisconnected:
			l.logger.Warn(ctx, "realtime listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			l.logger.Info(ctx, "realtime listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			l.logger.Warn(ctx, "realtime listener connection attempt failed", zap.Error(err))
		}
	}

	listener := pq.NewListener(l.url, 10*time.Second, time.Minute, report)
	defer listener.Close()

	for _, ch := range l.channels {
		if err := listener.Listen(ch); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(idlePing)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect
			if n == nil {
				continue
			}
			l.dispatch(ctx, n.Channel, []byte(n.Extra))
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.Warn(ctx, "realtime listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, channel string, payload []byte) {
	ev, err := ParseEvent(payload)
	if err != nil {
		l.logger.Warn(ctx, "dropping malformed change event", zap.String("channel", channel), zap.Error(err))
		return
	}
	l.hub.Publish(ev)
}
