package model

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionRecordedEvent struct {
	SubmissionId uuid.UUID `json:"submission_id"`
	AssessmentId uuid.UUID `json:"assessment_id"`
	StudentId    uuid.UUID `json:"student_id"`
	Score        int       `json:"score"`
	MaxScore     int       `json:"max_score"`
	Passed       bool      `json:"passed"`
	Retake       bool      `json:"retake"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type MessageSentEvent struct {
	MessageId      uuid.UUID `json:"message_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	SenderId       uuid.UUID `json:"sender_id"`
	RecipientId    uuid.UUID `json:"recipient_id"`
	Preview        string    `json:"preview"`
	SentAt         time.Time `json:"sent_at"`
}
