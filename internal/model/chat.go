package model

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID `db:"id" json:"id"`
	TeacherId uuid.UUID `db:"teacher_id" json:"teacher_id"`
	StudentId uuid.UUID `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.TeacherId == userID || c.StudentId == userID
}

// CounterpartOf returns the other participant's id.
func (c *Conversation) CounterpartOf(userID uuid.UUID) uuid.UUID {
	if c.TeacherId == userID {
		return c.StudentId
	}
	return c.TeacherId
}

// ConversationWithProfile is a conversation joined with the counterpart's
// public profile.
type ConversationWithProfile struct {
	Conversation
	CounterpartId          uuid.UUID `db:"counterpart_id"`
	CounterpartDisplayName string    `db:"counterpart_display_name"`
	CounterpartRole        Role      `db:"counterpart_role"`
}

type ConversationSummary struct {
	Conversation
	Counterpart UserPublic `json:"counterpart"`
	LastMessage string     `json:"last_message"`
	UnreadCount int        `json:"unread_count"`
}

type Message struct {
	Id             uuid.UUID `db:"id" json:"id"`
	ConversationId uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderId       uuid.UUID `db:"sender_id" json:"sender_id"`
	Body           string    `db:"body" json:"body"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type DayGroup struct {
	Date     string     `json:"date"`
	Messages []*Message `json:"messages"`
}
