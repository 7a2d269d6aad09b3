package data

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"edupro/internal/errdefs"
	"edupro/internal/model"
)

const messageColumns = `id, conversation_id, sender_id, body, read, created_at`

type MessageRepository struct {
	db TxQuerier
}

func NewMessageRepository(db TxQuerier) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage inserts the message and bumps the parent conversation's
// updated_at in one transaction.
func (r *MessageRepository) CreateMessage(ctx context.Context, input *model.RepositoryCreateMessageInput) (*model.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO messages (id, conversation_id, sender_id, body)
VALUES ($1, $2, $3, $4)
RETURNING ` + messageColumns

	var msg model.Message
	err = pgxscan.Get(ctx, tx, &msg, query, input.Id, input.ConversationId, input.SenderId, input.Body)
	if err != nil {
		return nil, handleError("message", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, msg.CreatedAt, input.ConversationId)
	if err != nil {
		return nil, handleError("conversation", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("conversation %w", errdefs.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, handleError("message", err)
	}
	return &msg, nil
}

// ListByConversation returns the conversation's messages oldest first.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 ORDER BY created_at, id`

	var list []*model.Message
	err := pgxscan.Select(ctx, r.db, &list, query, conversationID)
	if err != nil {
		return nil, handleError("message", err)
	}
	return list, nil
}

// ListByConversations returns the messages of every given conversation,
// newest first.
func (r *MessageRepository) ListByConversations(ctx context.Context, conversationIDs []uuid.UUID) ([]*model.Message, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ANY($1) ORDER BY created_at DESC, id DESC`

	var list []*model.Message
	err := pgxscan.Select(ctx, r.db, &list, query, conversationIDs)
	if err != nil {
		return nil, handleError("message", err)
	}
	return list, nil
}

// MarkRead flips read on every unread message in the conversation that was
// not sent by readerID and returns how many rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	query := `
UPDATE messages
SET read = true
WHERE conversation_id = $1 AND sender_id <> $2 AND read = false
`
	tag, err := r.db.Exec(ctx, query, conversationID, readerID)
	if err != nil {
		return 0, handleError("message", err)
	}
	return tag.RowsAffected(), nil
}
