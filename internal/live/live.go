// Package live keeps websocket clients in sync with the conversation list
// and with an open conversation.
package live

import (
	"context"

	"github.com/google/uuid"

	"edupro/internal/model"
)

const (
	FrameConversations = "conversations"
	FrameSnapshot      = "snapshot"
	FrameMessages      = "messages"
)

// Sink receives frames. *websocket.Conn satisfies it.
type Sink interface {
	WriteJSON(v any) error
}

type Frame struct {
	Type          string                       `json:"type"`
	Conversations []*model.ConversationSummary `json:"conversations,omitempty"`
	Messages      []*model.Message             `json:"messages,omitempty"`
}

type ConversationLister interface {
	ListConversations(ctx context.Context) ([]*model.ConversationSummary, error)
}

type MessageSource interface {
	OpenConversation(ctx context.Context, id uuid.UUID) ([]*model.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) (int64, error)
}
