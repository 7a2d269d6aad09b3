package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"edupro/internal/config"
	"edupro/internal/data"
	"edupro/internal/db"
	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/pkg/logging"
)

type seeder struct {
	users         *data.UserRepository
	assessments   *data.AssessmentRepository
	conversations *data.ConversationRepository
	messages      *data.MessageRepository
	logger        *logging.Logger

	ids map[string]uuid.UUID
}

func main() {
	path := flag.String("fixture", "config/seed.yaml", "path to the YAML fixture")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	logger := logging.New(zapLogger)

	cfg, err := config.New()
	if err != nil {
		logger.Fatal(ctx, "cannot create config", zap.Error(err))
	}

	fixture, err := LoadFixture(*path)
	if err != nil {
		logger.Fatal(ctx, "cannot load fixture", zap.String("path", *path), zap.Error(err))
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "cannot create db", zap.Error(err))
	}
	defer pool.Close()

	s := &seeder{
		users:         data.NewUserRepository(pool),
		assessments:   data.NewAssessmentRepository(pool),
		conversations: data.NewConversationRepository(pool),
		messages:      data.NewMessageRepository(pool),
		logger:        logger,
		ids:           make(map[string]uuid.UUID),
	}
	if err := s.run(ctx, fixture); err != nil {
		logger.Fatal(ctx, "seeding failed", zap.Error(err))
	}
	logger.Info(ctx, "seeding complete",
		zap.Int("users", len(fixture.Users)),
		zap.Int("assessments", len(fixture.Assessments)),
		zap.Int("conversations", len(fixture.Conversations)),
	)
}

func (s *seeder) run(ctx context.Context, f *Fixture) error {
	for _, u := range f.Users {
		if err := s.seedUser(ctx, u); err != nil {
			return fmt.Errorf("user %q: %w", u.Key, err)
		}
	}
	for i, a := range f.Assessments {
		if err := s.seedAssessment(ctx, a); err != nil {
			return fmt.Errorf("assessment %d: %w", i, err)
		}
	}
	for i, c := range f.Conversations {
		if err := s.seedConversation(ctx, c); err != nil {
			return fmt.Errorf("conversation %d: %w", i, err)
		}
	}
	return nil
}

// seedUser reuses an existing account with the same email.
func (s *seeder) seedUser(ctx context.Context, u FixtureUser) error {
	existing, err := s.users.GetUserByEmail(ctx, u.Email)
	if err == nil {
		s.ids[u.Key] = existing.Id
		s.logger.Info(ctx, "user exists", zap.String("email", u.Email))
		return nil
	}
	if !errors.Is(err, errdefs.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	user, err := s.users.CreateUser(ctx, &model.RepositoryCreateUserInput{
		Id:           id,
		Email:        strings.ToLower(u.Email),
		PasswordHash: string(hash),
		DisplayName:  u.DisplayName,
		Role:         model.Role(u.Role),
	})
	if err != nil {
		return err
	}
	s.ids[u.Key] = user.Id
	return nil
}

func (s *seeder) seedAssessment(ctx context.Context, a FixtureAssessment) error {
	questions, err := a.encodeQuestions()
	if err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	maxScore := a.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}
	var description *string
	if a.Description != "" {
		description = &a.Description
	}
	_, err = s.assessments.CreateAssessment(ctx, &model.RepositoryCreateAssessmentInput{
		Id:          id,
		CourseId:    uuid.MustParse(a.CourseId),
		CreatedBy:   s.ids[a.Author],
		Title:       a.Title,
		Description: description,
		Questions:   questions,
		MaxScore:    maxScore,
	})
	return err
}

// seedConversation skips pairs that already talk so reruns do not repeat
// messages.
func (s *seeder) seedConversation(ctx context.Context, c FixtureConversation) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	conv, err := s.conversations.CreateConversation(ctx, &model.RepositoryCreateConversationInput{
		Id:        id,
		TeacherId: s.ids[c.Teacher],
		StudentId: s.ids[c.Student],
	})
	if errors.Is(err, errdefs.ErrAlreadyExists) {
		s.logger.Info(ctx, "conversation exists", zap.String("teacher", c.Teacher), zap.String("student", c.Student))
		return nil
	}
	if err != nil {
		return err
	}

	for _, m := range c.Messages {
		msgID, err := uuid.NewV7()
		if err != nil {
			return err
		}
		if _, err := s.messages.CreateMessage(ctx, &model.RepositoryCreateMessageInput{
			Id:             msgID,
			ConversationId: conv.Id,
			SenderId:       s.ids[m.From],
			Body:           m.Body,
		}); err != nil {
			return err
		}
	}
	return nil
}
