package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"edupro/internal/model"
	"edupro/internal/service"
)

type ChatHandler struct {
	s ChatService
}

func NewChatHandler(s ChatService) *ChatHandler {
	return &ChatHandler{s: s}
}

type createConversationRequest struct {
	CounterpartId uuid.UUID `json:"counterpart_id" validate:"required"`
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

func (h *ChatHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Get("/conversations", h.ListConversations)
		r.Post("/conversations", h.CreateConversation)
		r.Get("/conversations/{id}/messages", h.ListMessages)
		r.Post("/conversations/{id}/messages", h.SendMessage)
		r.Post("/conversations/{id}/read", h.MarkRead)
	})
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.s.ListConversations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if convs == nil {
		convs = []*model.ConversationSummary{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	conv, err := h.s.CreateConversation(r.Context(), req.CounterpartId)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// ListMessages opens the conversation. With group=day the history is
// grouped by calendar day in the zone named by tz (UTC by default).
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	group := query.Get("group")
	if group != "" && group != "day" {
		writeError(w, r, fmt.Errorf("%w: unsupported group %q", ErrBadRequest, group))
		return
	}
	loc := time.UTC
	if tz := query.Get("tz"); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			writeError(w, r, fmt.Errorf("%w: unknown time zone %q", ErrBadRequest, tz))
			return
		}
	}

	msgs, err := h.s.OpenConversation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if group == "day" {
		writeJSON(w, http.StatusOK, service.GroupByDay(msgs, loc))
		return
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.s.SendMessage(r.Context(), id, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.s.MarkRead(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{Updated: n})
}
