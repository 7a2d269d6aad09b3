package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"edupro/internal/model"
	"edupro/internal/quiz"
	"edupro/pkg/ctxdata"
)

type userServiceMock struct{ mock.Mock }

func (m *userServiceMock) SignUp(ctx context.Context, input *model.SignUpInput) (*model.Session, error) {
	args := m.Called(ctx, input)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *userServiceMock) SignIn(ctx context.Context, input *model.SignInInput) (*model.Session, error) {
	args := m.Called(ctx, input)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *userServiceMock) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *userServiceMock) GetMe(ctx context.Context) (*model.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userServiceMock) GetUserPublic(ctx context.Context, id uuid.UUID) (*model.UserPublic, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.UserPublic)
	return u, args.Error(1)
}

type assessmentServiceMock struct{ mock.Mock }

func (m *assessmentServiceMock) view(args mock.Arguments) (*model.AttemptView, error) {
	v, _ := args.Get(0).(*model.AttemptView)
	return v, args.Error(1)
}

func (m *assessmentServiceMock) result(args mock.Arguments) (*model.SubmissionResult, error) {
	v, _ := args.Get(0).(*model.SubmissionResult)
	return v, args.Error(1)
}

func (m *assessmentServiceMock) CreateAssessment(ctx context.Context, input *model.CreateAssessmentInput) (*model.AssessmentView, error) {
	args := m.Called(ctx, input)
	v, _ := args.Get(0).(*model.AssessmentView)
	return v, args.Error(1)
}

func (m *assessmentServiceMock) GetAssessment(ctx context.Context, id uuid.UUID) (*model.AssessmentView, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.AssessmentView)
	return v, args.Error(1)
}

func (m *assessmentServiceMock) ListCourseAssessments(ctx context.Context, courseID uuid.UUID) ([]*model.AssessmentView, error) {
	args := m.Called(ctx, courseID)
	v, _ := args.Get(0).([]*model.AssessmentView)
	return v, args.Error(1)
}

func (m *assessmentServiceMock) GetOverview(ctx context.Context, id uuid.UUID) (*model.AssessmentOverview, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.AssessmentOverview)
	return v, args.Error(1)
}

func (m *assessmentServiceMock) BeginAttempt(ctx context.Context, id uuid.UUID, mode model.AttemptMode) (*model.AttemptView, error) {
	return m.view(m.Called(ctx, id, mode))
}

func (m *assessmentServiceMock) GetAttempt(ctx context.Context, id uuid.UUID) (*model.AttemptView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *assessmentServiceMock) RecordAnswer(ctx context.Context, id uuid.UUID, index, option int) (*model.AttemptView, error) {
	return m.view(m.Called(ctx, id, index, option))
}

func (m *assessmentServiceMock) MoveTo(ctx context.Context, id uuid.UUID, index int) (*model.AttemptView, error) {
	return m.view(m.Called(ctx, id, index))
}

func (m *assessmentServiceMock) SubmitAttempt(ctx context.Context, id uuid.UUID) (*model.SubmissionResult, error) {
	return m.result(m.Called(ctx, id))
}

func (m *assessmentServiceMock) SubmitAnswers(ctx context.Context, id uuid.UUID, answers quiz.Answers) (*model.SubmissionResult, error) {
	return m.result(m.Called(ctx, id, answers))
}

func (m *assessmentServiceMock) GetResults(ctx context.Context, id uuid.UUID) (*model.SubmissionResult, error) {
	return m.result(m.Called(ctx, id))
}

func (m *assessmentServiceMock) ListSubmissions(ctx context.Context, id uuid.UUID) ([]*model.Submission, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).([]*model.Submission)
	return v, args.Error(1)
}

type chatServiceMock struct{ mock.Mock }

func (m *chatServiceMock) ListConversations(ctx context.Context) ([]*model.ConversationSummary, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]*model.ConversationSummary)
	return v, args.Error(1)
}

func (m *chatServiceMock) CreateConversation(ctx context.Context, counterpartID uuid.UUID) (*model.ConversationSummary, error) {
	args := m.Called(ctx, counterpartID)
	v, _ := args.Get(0).(*model.ConversationSummary)
	return v, args.Error(1)
}

func (m *chatServiceMock) GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.Conversation)
	return v, args.Error(1)
}

func (m *chatServiceMock) OpenConversation(ctx context.Context, id uuid.UUID) ([]*model.Message, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).([]*model.Message)
	return v, args.Error(1)
}

func (m *chatServiceMock) MarkRead(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *chatServiceMock) SendMessage(ctx context.Context, id uuid.UUID, body string) (*model.Message, error) {
	args := m.Called(ctx, id, body)
	v, _ := args.Get(0).(*model.Message)
	return v, args.Error(1)
}

// staticAuth accepts the single token "good".
type staticAuth struct {
	principal ctxdata.Principal
}

func (a staticAuth) Authenticate(_ context.Context, token string) (*ctxdata.Principal, error) {
	if token != "good" {
		return nil, errAuth
	}
	p := a.principal
	return &p, nil
}
