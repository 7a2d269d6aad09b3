package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"edupro/internal/live"
	"edupro/internal/realtime"
	"edupro/pkg/ctxdata"
	"edupro/pkg/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type LiveHandler struct {
	chat     ChatService
	hub      *realtime.Hub
	inbox    live.InboxConfig
	upgrader websocket.Upgrader
}

func NewLiveHandler(chat ChatService, hub *realtime.Hub, inbox live.InboxConfig) *LiveHandler {
	return &LiveHandler{
		chat:  chat,
		hub:   hub,
		inbox: inbox,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *LiveHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Get("/ws/conversations", h.Inbox)
		r.Get("/ws/conversations/{id}", h.Window)
	})
}

// wsSink bounds every write so a stalled client cannot block its feed.
type wsSink struct {
	conn *websocket.Conn
}

func (s wsSink) WriteJSON(v any) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (h *LiveHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.serve(w, r, func(ctx context.Context, sink live.Sink) error {
		logger := logging.FromContext(ctx, nil)
		return live.NewInbox(h.hub, h.chat, sink, h.inbox, logger).Run(ctx, userID)
	})
}

func (h *LiveHandler) Window(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	// access errors are only reportable before the upgrade
	if _, err := h.chat.GetConversation(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	h.serve(w, r, func(ctx context.Context, sink live.Sink) error {
		logger := logging.FromContext(ctx, nil)
		return live.NewWindow(h.hub, h.chat, sink, logger).Run(ctx, id, userID)
	})
}

func (h *LiveHandler) serve(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, sink live.Sink) error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	logger := logging.FromContext(ctx, nil)

	go h.readPump(conn, cancel)
	go h.pingPump(ctx, conn)

	if err := run(ctx, wsSink{conn: conn}); err != nil {
		logger.Warn(ctx, "live feed stopped", zap.String("path", r.URL.Path), zap.Error(err))
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed stopped")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readPump discards client frames and cancels the feed once the peer goes
// away.
func (h *LiveHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) pingPump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
