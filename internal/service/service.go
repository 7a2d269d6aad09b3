//go:generate mockgen -source=service.go -destination=mocks/service_mocks.go -package=mocks
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"edupro/internal/auth"
	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/pkg/ctxdata"
)

type UserRepository interface {
	CreateUser(ctx context.Context, input *model.RepositoryCreateUserInput) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type AssessmentRepository interface {
	CreateAssessment(ctx context.Context, input *model.RepositoryCreateAssessmentInput) (*model.Assessment, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*model.Assessment, error)
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, input *model.RepositoryCreateSubmissionInput) (*model.Submission, error)
	UpdateSubmission(ctx context.Context, id uuid.UUID, input *model.RepositoryUpdateSubmissionInput) (*model.Submission, error)
	GetSubmission(ctx context.Context, assessmentID, studentID uuid.UUID) (*model.Submission, error)
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]*model.Submission, error)
}

type ConversationRepository interface {
	CreateConversation(ctx context.Context, input *model.RepositoryCreateConversationInput) (*model.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID, role model.Role) ([]*model.ConversationWithProfile, error)
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, input *model.RepositoryCreateMessageInput) (*model.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*model.Message, error)
	ListByConversations(ctx context.Context, conversationIDs []uuid.UUID) ([]*model.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
}

// ProfileCache returns errdefs.ErrNotFound on a miss.
type ProfileCache interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.UserPublic, error)
	SetProfile(ctx context.Context, profile *model.UserPublic) error
}

// AttemptStore returns errdefs.ErrNotFound when no attempt is stored.
type AttemptStore interface {
	GetAttempt(ctx context.Context, assessmentID, studentID uuid.UUID) (*model.Attempt, error)
	SaveAttempt(ctx context.Context, attempt *model.Attempt) error
	DeleteAttempt(ctx context.Context, assessmentID, studentID uuid.UUID) error
}

type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type TokenManager interface {
	Issue(userID uuid.UUID, role string) (string, *auth.Claims, error)
	Parse(token string) (*auth.Claims, error)
}

type EventPublisher interface {
	PublishSubmissionRecorded(ctx context.Context, event *model.SubmissionRecordedEvent) error
	PublishMessageSent(ctx context.Context, event *model.MessageSentEvent) error
}

type ProfileProvider interface {
	GetUserPublic(ctx context.Context, id uuid.UUID) (*model.UserPublic, error)
}

func currentUser(ctx context.Context) (uuid.UUID, model.Role, error) {
	p, ok := ctxdata.GetPrincipal(ctx)
	if !ok {
		return uuid.Nil, "", errdefs.ErrAuthentication
	}
	role := model.Role(p.Role)
	if !role.IsValid() {
		return uuid.Nil, "", errdefs.ErrAuthentication
	}
	return p.UserID, role, nil
}

func ensureCurrentUserRole(ctx context.Context, role model.Role) (uuid.UUID, error) {
	id, current, err := currentUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if current != role {
		return uuid.Nil, errdefs.ErrPermissionDenied
	}
	return id, nil
}
