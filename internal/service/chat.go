package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/pkg/logging"
)

const (
	markReadTimeout  = 5 * time.Second
	previewMaxRunes  = 140
	maxMessageLength = 2000
)

type ChatService struct {
	conversations ConversationRepository
	messages      MessageRepository
	profiles      ProfileProvider
	events        EventPublisher
	logger        *logging.Logger
}

func NewChatService(
	conversations ConversationRepository,
	messages MessageRepository,
	profiles ProfileProvider,
	events EventPublisher,
	logger *logging.Logger,
) *ChatService {
	return &ChatService{conversations, messages, profiles, events, logger}
}

// ListConversations returns the caller's conversations, most recently
// active first, each with its newest message and unread count.
func (s *ChatService) ListConversations(ctx context.Context) ([]*model.ConversationSummary, error) {
	userID, role, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	convs, err := s.conversations.ListForUser(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []*model.ConversationSummary{}, nil
	}

	ids := make([]uuid.UUID, len(convs))
	for i, c := range convs {
		ids[i] = c.Id
	}
	msgs, err := s.messages.ListByConversations(ctx, ids)
	if err != nil {
		return nil, err
	}

	return Summarize(convs, msgs, userID), nil
}

// Summarize annotates conversations with a preview and unread count.
// msgs must be ordered newest first; the first message seen for a
// conversation becomes its preview.
func Summarize(convs []*model.ConversationWithProfile, msgs []*model.Message, me uuid.UUID) []*model.ConversationSummary {
	type stats struct {
		preview string
		seen    bool
		unread  int
	}
	byConv := make(map[uuid.UUID]*stats, len(convs))
	for _, c := range convs {
		byConv[c.Id] = &stats{}
	}

	for _, m := range msgs {
		st, ok := byConv[m.ConversationId]
		if !ok {
			continue
		}
		if !st.seen {
			st.preview = m.Body
			st.seen = true
		}
		if !m.Read && m.SenderId != me {
			st.unread++
		}
	}

	out := make([]*model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		st := byConv[c.Id]
		out = append(out, &model.ConversationSummary{
			Conversation: c.Conversation,
			Counterpart: model.UserPublic{
				Id:          c.CounterpartId,
				DisplayName: c.CounterpartDisplayName,
				Role:        c.CounterpartRole,
			},
			LastMessage: st.preview,
			UnreadCount: st.unread,
		})
	}
	return out
}

// CreateConversation opens a conversation between the caller and a user
// of the opposite role.
func (s *ChatService) CreateConversation(ctx context.Context, counterpartID uuid.UUID) (*model.ConversationSummary, error) {
	userID, role, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if counterpartID == userID {
		return nil, errdefs.Validation("cannot start a conversation with yourself")
	}

	counterpart, err := s.profiles.GetUserPublic(ctx, counterpartID)
	if err != nil {
		return nil, err
	}
	if counterpart.Role != role.Counterpart() {
		return nil, errdefs.Validation("a conversation needs one teacher and one student")
	}

	input := &model.RepositoryCreateConversationInput{TeacherId: userID, StudentId: counterpartID}
	if role == model.RoleStudent {
		input.TeacherId, input.StudentId = counterpartID, userID
	}
	input.Id, err = uuid.NewV7()
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.CreateConversation(ctx, input)
	if err != nil {
		if errors.Is(err, errdefs.ErrAlreadyExists) {
			return nil, errdefs.ErrConversationExists
		}
		return nil, err
	}

	return &model.ConversationSummary{
		Conversation: *conv,
		Counterpart:  *counterpart,
	}, nil
}

// GetConversation returns the conversation if the caller takes part in it.
func (s *ChatService) GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	userID, _, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errdefs.ErrPermissionDenied
	}
	return conv, nil
}

// OpenConversation returns the history oldest first and marks the
// counterpart's messages read in the background.
func (s *ChatService) OpenConversation(ctx context.Context, id uuid.UUID) ([]*model.Message, error) {
	conv, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByConversation(ctx, conv.Id)
	if err != nil {
		return nil, err
	}

	userID, _, _ := currentUser(ctx)
	s.markReadAsync(ctx, conv.Id, userID)
	return msgs, nil
}

func (s *ChatService) markReadAsync(ctx context.Context, conversationID, readerID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, markReadTimeout)
		defer cancel()
		if _, err := s.messages.MarkRead(ctx, conversationID, readerID); err != nil {
			logging.FromContext(ctx, s.logger).Warn(ctx, "failed to mark messages read",
				zap.String("conversation_id", conversationID.String()), zap.Error(err))
		}
	}()
}

// MarkRead marks every message in the conversation not sent by the caller
// as read and returns how many changed.
func (s *ChatService) MarkRead(ctx context.Context, id uuid.UUID) (int64, error) {
	conv, err := s.GetConversation(ctx, id)
	if err != nil {
		return 0, err
	}
	userID, _, _ := currentUser(ctx)
	return s.messages.MarkRead(ctx, conv.Id, userID)
}

// SendMessage stores a trimmed, non-empty message. The message insert and
// the conversation's updated_at bump commit together.
func (s *ChatService) SendMessage(ctx context.Context, id uuid.UUID, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errdefs.Validation("message cannot be empty")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, errdefs.Validation("message is too long")
	}

	conv, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	userID, _, _ := currentUser(ctx)

	msgID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	msg, err := s.messages.CreateMessage(ctx, &model.RepositoryCreateMessageInput{
		Id:             msgID,
		ConversationId: conv.Id,
		SenderId:       userID,
		Body:           body,
	})
	if err != nil {
		return nil, err
	}

	err = s.events.PublishMessageSent(ctx, &model.MessageSentEvent{
		MessageId:      msg.Id,
		ConversationId: conv.Id,
		SenderId:       userID,
		RecipientId:    conv.CounterpartOf(userID),
		Preview:        preview(msg.Body),
		SentAt:         msg.CreatedAt,
	})
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn(ctx, "failed to publish message event",
			zap.String("message_id", msg.Id.String()), zap.Error(err))
	}
	return msg, nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewMaxRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewMaxRunes]) + "…"
}

// GroupByDay partitions messages by the calendar date of created_at in loc,
// keeping encounter order.
func GroupByDay(msgs []*model.Message, loc *time.Location) []model.DayGroup {
	if loc == nil {
		loc = time.UTC
	}
	groups := []model.DayGroup{}
	for _, m := range msgs {
		day := m.CreatedAt.In(loc).Format(time.DateOnly)
		if n := len(groups); n > 0 && groups[n-1].Date == day {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, model.DayGroup{Date: day, Messages: []*model.Message{m}})
	}
	return groups
}
