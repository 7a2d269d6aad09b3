package data

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"edupro/internal/model"
)

type ConversationRepository struct {
	db Querier
}

func NewConversationRepository(db Querier) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) CreateConversation(ctx context.Context, input *model.RepositoryCreateConversationInput) (*model.Conversation, error) {
	query := `
INSERT INTO conversations (id, teacher_id, student_id)
VALUES ($1, $2, $3)
RETURNING id, teacher_id, student_id, created_at, updated_at
`
	var c model.Conversation
	err := pgxscan.Get(ctx, r.db, &c, query, input.Id, input.TeacherId, input.StudentId)
	if err != nil {
		return nil, handleError("conversation", err)
	}
	return &c, nil
}

func (r *ConversationRepository) GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	query := `
SELECT id, teacher_id, student_id, created_at, updated_at
FROM conversations
WHERE id = $1
`
	var c model.Conversation
	err := pgxscan.Get(ctx, r.db, &c, query, id)
	if err != nil {
		return nil, handleError("conversation", err)
	}
	return &c, nil
}

// ListForUser returns the user's conversations joined with the
// counterpart's public profile, most recently active first. A conversation
// whose updated_at lags behind its newest message sorts by the message.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, role model.Role) ([]*model.ConversationWithProfile, error) {
	var own, other string
	switch role {
	case model.RoleTeacher:
		own, other = "teacher_id", "student_id"
	case model.RoleStudent:
		own, other = "student_id", "teacher_id"
	default:
		return nil, fmt.Errorf("conversation repository: unknown role %q", role)
	}

	query := fmt.Sprintf(`
SELECT
	c.id, c.teacher_id, c.student_id, c.created_at,
	GREATEST(c.updated_at, COALESCE(m.last_at, c.updated_at)) AS updated_at,
	u.id AS counterpart_id,
	u.display_name AS counterpart_display_name,
	u.role AS counterpart_role
FROM conversations c
JOIN users u ON u.id = c.%[2]s
LEFT JOIN LATERAL (
	SELECT max(created_at) AS last_at FROM messages WHERE conversation_id = c.id
) m ON true
WHERE c.%[1]s = $1
ORDER BY updated_at DESC, c.id
`, own, other)

	var list []*model.ConversationWithProfile
	err := pgxscan.Select(ctx, r.db, &list, query, userID)
	if err != nil {
		return nil, handleError("conversation", err)
	}
	return list, nil
}
