package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/pkg/ctxdata"
	"edupro/pkg/logging"
)

const minPasswordLength = 8

type UserService struct {
	users    UserRepository
	tokens   TokenManager
	revoker  TokenRevoker
	profiles ProfileCache
	tokenTTL time.Duration
	logger   *logging.Logger
}

func NewUserService(
	users UserRepository,
	tokens TokenManager,
	revoker TokenRevoker,
	profiles ProfileCache,
	tokenTTL time.Duration,
	logger *logging.Logger,
) *UserService {
	return &UserService{users, tokens, revoker, profiles, tokenTTL, logger}
}

func (s *UserService) SignUp(ctx context.Context, input *model.SignUpInput) (*model.Session, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, errdefs.Validation("a valid email is required")
	}
	email := strings.ToLower(addr.Address)
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, errdefs.Validation("display name is required")
	}
	if !input.Role.IsValid() {
		return nil, errdefs.Validation("role must be teacher or student")
	}
	if len(input.Password) < minPasswordLength {
		return nil, errdefs.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if input.Password != input.PasswordConfirmation {
		return nil, errdefs.Validation("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, &model.RepositoryCreateUserInput{
		Id:           id,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  name,
		Role:         input.Role,
	})
	if err != nil {
		if errors.Is(err, errdefs.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: email is already registered", errdefs.ErrAlreadyExists)
		}
		return nil, err
	}

	return s.issueSession(user)
}

func (s *UserService) SignIn(ctx context.Context, input *model.SignInInput) (*model.Session, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, errdefs.Validation("email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", errdefs.ErrAuthentication)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", errdefs.ErrAuthentication)
	}

	return s.issueSession(user)
}

func (s *UserService) issueSession(user *model.User) (*model.Session, error) {
	token, claims, err := s.tokens.Issue(user.Id, user.Role.String())
	if err != nil {
		return nil, err
	}
	return &model.Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// SignOut revokes the token the current request was authenticated with.
func (s *UserService) SignOut(ctx context.Context) error {
	p, ok := ctxdata.GetPrincipal(ctx)
	if !ok || p.TokenID == "" {
		return errdefs.ErrAuthentication
	}
	return s.revoker.Revoke(ctx, p.TokenID, time.Now().Add(s.tokenTTL))
}

// Authenticate resolves a bearer token to the caller it was issued to.
func (s *UserService) Authenticate(ctx context.Context, token string) (*ctxdata.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", errdefs.ErrAuthentication)
	}

	return &ctxdata.Principal{
		UserID:  userID,
		Role:    claims.Role,
		TokenID: claims.ID,
	}, nil
}

func (s *UserService) GetMe(ctx context.Context) (*model.User, error) {
	id, _, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, id)
}

// GetUserPublic serves the public profile from cache, falling back to the
// database. Cache failures are logged and otherwise ignored.
func (s *UserService) GetUserPublic(ctx context.Context, id uuid.UUID) (*model.UserPublic, error) {
	logger := logging.FromContext(ctx, s.logger)

	profile, err := s.profiles.GetProfile(ctx, id)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, errdefs.ErrNotFound) {
		logger.Warn(ctx, "profile cache read failed", zap.String("user_id", id.String()), zap.Error(err))
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	profile = user.Public()

	if err := s.profiles.SetProfile(ctx, profile); err != nil {
		logger.Warn(ctx, "profile cache write failed", zap.String("user_id", id.String()), zap.Error(err))
	}
	return profile, nil
}
