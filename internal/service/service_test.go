package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"edupro/internal/model"
	"edupro/internal/service"
	"edupro/internal/service/mocks"
	"edupro/pkg/ctxdata"
	"edupro/pkg/logging"
)

func userCtx(userID uuid.UUID, role model.Role) context.Context {
	return ctxdata.WithPrincipal(context.Background(), ctxdata.Principal{
		UserID:  userID,
		Role:    string(role),
		TokenID: "token-" + userID.String(),
	})
}

type assessmentDeps struct {
	assessments *mocks.MockAssessmentRepository
	submissions *mocks.MockSubmissionRepository
	attempts    *mocks.MockAttemptStore
	events      *mocks.MockEventPublisher
}

func setupAssessment(t *testing.T) (*service.AssessmentService, *assessmentDeps) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	deps := &assessmentDeps{
		assessments: mocks.NewMockAssessmentRepository(ctrl),
		submissions: mocks.NewMockSubmissionRepository(ctrl),
		attempts:    mocks.NewMockAttemptStore(ctrl),
		events:      mocks.NewMockEventPublisher(ctrl),
	}
	svc := service.NewAssessmentService(
		deps.assessments,
		deps.submissions,
		deps.attempts,
		deps.events,
		service.AssessmentConfig{PassPercentage: 60, DefaultMaxScore: 100},
		logging.NewNop(),
	)
	return svc, deps
}

type chatDeps struct {
	conversations *mocks.MockConversationRepository
	messages      *mocks.MockMessageRepository
	profiles      *mocks.MockProfileProvider
	events        *mocks.MockEventPublisher
}

func setupChat(t *testing.T) (*service.ChatService, *chatDeps) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	deps := &chatDeps{
		conversations: mocks.NewMockConversationRepository(ctrl),
		messages:      mocks.NewMockMessageRepository(ctrl),
		profiles:      mocks.NewMockProfileProvider(ctrl),
		events:        mocks.NewMockEventPublisher(ctrl),
	}
	svc := service.NewChatService(deps.conversations, deps.messages, deps.profiles, deps.events, logging.NewNop())
	return svc, deps
}
