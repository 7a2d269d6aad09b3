package handler

import (
	"context"

	"github.com/google/uuid"

	"edupro/internal/model"
	"edupro/internal/quiz"
)

type UserService interface {
	SignUp(ctx context.Context, input *model.SignUpInput) (*model.Session, error)
	SignIn(ctx context.Context, input *model.SignInInput) (*model.Session, error)
	SignOut(ctx context.Context) error
	GetMe(ctx context.Context) (*model.User, error)
	GetUserPublic(ctx context.Context, id uuid.UUID) (*model.UserPublic, error)
}

type AssessmentService interface {
	CreateAssessment(ctx context.Context, input *model.CreateAssessmentInput) (*model.AssessmentView, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*model.AssessmentView, error)
	ListCourseAssessments(ctx context.Context, courseID uuid.UUID) ([]*model.AssessmentView, error)
	GetOverview(ctx context.Context, id uuid.UUID) (*model.AssessmentOverview, error)
	BeginAttempt(ctx context.Context, id uuid.UUID, mode model.AttemptMode) (*model.AttemptView, error)
	GetAttempt(ctx context.Context, id uuid.UUID) (*model.AttemptView, error)
	RecordAnswer(ctx context.Context, id uuid.UUID, index, option int) (*model.AttemptView, error)
	MoveTo(ctx context.Context, id uuid.UUID, index int) (*model.AttemptView, error)
	SubmitAttempt(ctx context.Context, id uuid.UUID) (*model.SubmissionResult, error)
	SubmitAnswers(ctx context.Context, id uuid.UUID, answers quiz.Answers) (*model.SubmissionResult, error)
	GetResults(ctx context.Context, id uuid.UUID) (*model.SubmissionResult, error)
	ListSubmissions(ctx context.Context, id uuid.UUID) ([]*model.Submission, error)
}

type ChatService interface {
	ListConversations(ctx context.Context) ([]*model.ConversationSummary, error)
	CreateConversation(ctx context.Context, counterpartID uuid.UUID) (*model.ConversationSummary, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	OpenConversation(ctx context.Context, id uuid.UUID) ([]*model.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) (int64, error)
	SendMessage(ctx context.Context, id uuid.UUID, body string) (*model.Message, error)
}
