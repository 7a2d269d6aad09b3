package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/internal/service"
)

func TestSummarize_UnreadCount(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	conv := &model.ConversationWithProfile{Conversation: model.Conversation{Id: uuid.New(), TeacherId: a, StudentId: b}}
	now := time.Now()

	msgs := []*model.Message{
		{ConversationId: conv.Id, SenderId: a, Read: false, Body: "newest", CreatedAt: now},
		{ConversationId: conv.Id, SenderId: b, Read: false, Body: "mine", CreatedAt: now.Add(-time.Minute)},
		{ConversationId: conv.Id, SenderId: a, Read: true, Body: "oldest", CreatedAt: now.Add(-2 * time.Minute)},
	}

	out := service.Summarize([]*model.ConversationWithProfile{conv}, msgs, b)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].UnreadCount)
	assert.Equal(t, "newest", out[0].LastMessage)
}

func TestSummarize_EmptyConversation(t *testing.T) {
	conv := &model.ConversationWithProfile{
		Conversation:           model.Conversation{Id: uuid.New()},
		CounterpartId:          uuid.New(),
		CounterpartDisplayName: "Sam",
		CounterpartRole:        model.RoleStudent,
	}

	out := service.Summarize([]*model.ConversationWithProfile{conv}, nil, uuid.New())
	require.Len(t, out, 1)
	assert.Equal(t, "", out[0].LastMessage)
	assert.Equal(t, 0, out[0].UnreadCount)
	assert.Equal(t, "Sam", out[0].Counterpart.DisplayName)
}

func TestListConversations(t *testing.T) {
	svc, deps := setupChat(t)
	me := uuid.New()
	c1 := &model.ConversationWithProfile{Conversation: model.Conversation{Id: uuid.New(), StudentId: me}}
	c2 := &model.ConversationWithProfile{Conversation: model.Conversation{Id: uuid.New(), StudentId: me}}

	deps.conversations.EXPECT().ListForUser(gomock.Any(), me, model.RoleStudent).Return([]*model.ConversationWithProfile{c1, c2}, nil)
	deps.messages.EXPECT().ListByConversations(gomock.Any(), []uuid.UUID{c1.Id, c2.Id}).Return([]*model.Message{
		{ConversationId: c2.Id, SenderId: uuid.New(), Body: "hi"},
	}, nil)

	out, err := svc.ListConversations(userCtx(me, model.RoleStudent))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, c1.Id, out[0].Id)
	assert.Equal(t, "hi", out[1].LastMessage)
	assert.Equal(t, 1, out[1].UnreadCount)
}

func TestCreateConversation(t *testing.T) {
	teacherID, studentID := uuid.New(), uuid.New()
	student := &model.UserPublic{Id: studentID, DisplayName: "Sam", Role: model.RoleStudent}

	t.Run("TeacherStartsWithStudent", func(t *testing.T) {
		svc, deps := setupChat(t)
		deps.profiles.EXPECT().GetUserPublic(gomock.Any(), studentID).Return(student, nil)
		deps.conversations.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *model.RepositoryCreateConversationInput) (*model.Conversation, error) {
				assert.Equal(t, teacherID, in.TeacherId)
				assert.Equal(t, studentID, in.StudentId)
				return &model.Conversation{Id: in.Id, TeacherId: in.TeacherId, StudentId: in.StudentId}, nil
			})

		out, err := svc.CreateConversation(userCtx(teacherID, model.RoleTeacher), studentID)
		require.NoError(t, err)
		assert.Equal(t, "Sam", out.Counterpart.DisplayName)
	})

	t.Run("DuplicateSurfacesAlreadyExists", func(t *testing.T) {
		svc, deps := setupChat(t)
		deps.profiles.EXPECT().GetUserPublic(gomock.Any(), studentID).Return(student, nil)
		deps.conversations.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).Return(nil, errdefs.ErrAlreadyExists)

		_, err := svc.CreateConversation(userCtx(teacherID, model.RoleTeacher), studentID)
		assert.ErrorIs(t, err, errdefs.ErrConversationExists)
		assert.EqualError(t, err, "conversation already exists")
	})

	t.Run("SameRoleRejected", func(t *testing.T) {
		svc, deps := setupChat(t)
		other := uuid.New()
		deps.profiles.EXPECT().GetUserPublic(gomock.Any(), other).
			Return(&model.UserPublic{Id: other, Role: model.RoleTeacher}, nil)

		_, err := svc.CreateConversation(userCtx(teacherID, model.RoleTeacher), other)
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})
}

func TestOpenConversation(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	conv := &model.Conversation{Id: uuid.New(), TeacherId: other, StudentId: me}
	history := []*model.Message{{Id: uuid.New(), ConversationId: conv.Id, SenderId: other}}

	t.Run("MarksReadInBackground", func(t *testing.T) {
		svc, deps := setupChat(t)
		done := make(chan struct{})

		deps.conversations.EXPECT().GetConversation(gomock.Any(), conv.Id).Return(conv, nil)
		deps.messages.EXPECT().ListByConversation(gomock.Any(), conv.Id).Return(history, nil)
		deps.messages.EXPECT().MarkRead(gomock.Any(), conv.Id, me).
			DoAndReturn(func(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
				close(done)
				return 1, nil
			})

		msgs, err := svc.OpenConversation(userCtx(me, model.RoleStudent), conv.Id)
		require.NoError(t, err)
		assert.Equal(t, history, msgs)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("mark read was not issued")
		}
	})

	t.Run("MarkReadFailureDoesNotFail", func(t *testing.T) {
		svc, deps := setupChat(t)
		done := make(chan struct{})

		deps.conversations.EXPECT().GetConversation(gomock.Any(), conv.Id).Return(conv, nil)
		deps.messages.EXPECT().ListByConversation(gomock.Any(), conv.Id).Return(history, nil)
		deps.messages.EXPECT().MarkRead(gomock.Any(), conv.Id, me).
			DoAndReturn(func(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
				defer close(done)
				return 0, errors.New("db down")
			})

		msgs, err := svc.OpenConversation(userCtx(me, model.RoleStudent), conv.Id)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
		<-done
	})

	t.Run("Outsider", func(t *testing.T) {
		svc, deps := setupChat(t)
		deps.conversations.EXPECT().GetConversation(gomock.Any(), conv.Id).Return(conv, nil)

		_, err := svc.OpenConversation(userCtx(uuid.New(), model.RoleStudent), conv.Id)
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})
}

func TestSendMessage(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	conv := &model.Conversation{Id: uuid.New(), TeacherId: me, StudentId: other}

	t.Run("TrimsAndPublishes", func(t *testing.T) {
		svc, deps := setupChat(t)
		deps.conversations.EXPECT().GetConversation(gomock.Any(), conv.Id).Return(conv, nil)
		deps.messages.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *model.RepositoryCreateMessageInput) (*model.Message, error) {
				assert.Equal(t, "hello", in.Body)
				assert.Equal(t, me, in.SenderId)
				return &model.Message{Id: in.Id, ConversationId: in.ConversationId, SenderId: in.SenderId, Body: in.Body}, nil
			})
		deps.events.EXPECT().PublishMessageSent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev *model.MessageSentEvent) error {
				assert.Equal(t, other, ev.RecipientId)
				return nil
			})

		msg, err := svc.SendMessage(userCtx(me, model.RoleTeacher), conv.Id, "  hello \n")
		require.NoError(t, err)
		assert.Equal(t, "hello", msg.Body)
	})

	t.Run("WhitespaceOnlyRejectedWithoutWrite", func(t *testing.T) {
		svc, _ := setupChat(t)

		_, err := svc.SendMessage(userCtx(me, model.RoleTeacher), conv.Id, " \t\n ")
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("EventFailureIgnored", func(t *testing.T) {
		svc, deps := setupChat(t)
		deps.conversations.EXPECT().GetConversation(gomock.Any(), conv.Id).Return(conv, nil)
		deps.messages.EXPECT().CreateMessage(gomock.Any(), gomock.Any()).Return(&model.Message{Id: uuid.New(), Body: "x"}, nil)
		deps.events.EXPECT().PublishMessageSent(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

		_, err := svc.SendMessage(userCtx(me, model.RoleTeacher), conv.Id, "x")
		assert.NoError(t, err)
	})
}

func TestGroupByDay(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	msgs := []*model.Message{
		{Body: "a", CreatedAt: day1},
		{Body: "b", CreatedAt: day1.Add(20 * time.Minute)},
		{Body: "c", CreatedAt: day1.Add(40 * time.Minute)},
	}

	groups := service.GroupByDay(msgs, time.UTC)
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-03-01", groups[0].Date)
	assert.Len(t, groups[0].Messages, 2)
	assert.Equal(t, "2024-03-02", groups[1].Date)
	assert.Len(t, groups[1].Messages, 1)

	east := time.FixedZone("UTC+3", 3*60*60)
	assert.Len(t, service.GroupByDay(msgs, east), 1)
	assert.Empty(t, service.GroupByDay(nil, time.UTC))
}
