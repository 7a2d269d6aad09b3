package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"edupro/internal/auth"
	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/internal/service"
	"edupro/internal/service/mocks"
	"edupro/pkg/logging"
)

type userDeps struct {
	users    *mocks.MockUserRepository
	tokens   *mocks.MockTokenManager
	revoker  *mocks.MockTokenRevoker
	profiles *mocks.MockProfileCache
}

func setupUser(t *testing.T) (*service.UserService, *userDeps) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	deps := &userDeps{
		users:    mocks.NewMockUserRepository(ctrl),
		tokens:   mocks.NewMockTokenManager(ctrl),
		revoker:  mocks.NewMockTokenRevoker(ctrl),
		profiles: mocks.NewMockProfileCache(ctrl),
	}
	svc := service.NewUserService(deps.users, deps.tokens, deps.revoker, deps.profiles, time.Hour, logging.NewNop())
	return svc, deps
}

func testClaims(userID uuid.UUID, role string) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
}

func TestSignUp(t *testing.T) {
	valid := func() *model.SignUpInput {
		return &model.SignUpInput{
			Email:                "ann@school.test",
			Password:             "correct-horse",
			PasswordConfirmation: "correct-horse",
			DisplayName:          "Ann",
			Role:                 model.RoleTeacher,
		}
	}

	t.Run("Success", func(t *testing.T) {
		svc, deps := setupUser(t)
		var created *model.RepositoryCreateUserInput

		deps.users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *model.RepositoryCreateUserInput) (*model.User, error) {
				created = in
				return &model.User{Id: in.Id, Email: in.Email, Role: in.Role, DisplayName: in.DisplayName}, nil
			})
		deps.tokens.EXPECT().Issue(gomock.Any(), "teacher").
			DoAndReturn(func(id uuid.UUID, role string) (string, *auth.Claims, error) {
				return "signed", testClaims(id, role), nil
			})

		session, err := svc.SignUp(context.Background(), valid())
		require.NoError(t, err)
		assert.Equal(t, "signed", session.Token)
		require.NotNil(t, created)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse")))
	})

	t.Run("StoresBareAddress", func(t *testing.T) {
		svc, deps := setupUser(t)
		in := valid()
		in.Email = "  Bob Stone <Bob@School.test> "

		deps.users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, got *model.RepositoryCreateUserInput) (*model.User, error) {
				assert.Equal(t, "bob@school.test", got.Email)
				return &model.User{Id: got.Id, Email: got.Email, Role: got.Role}, nil
			})
		deps.tokens.EXPECT().Issue(gomock.Any(), "teacher").
			DoAndReturn(func(id uuid.UUID, role string) (string, *auth.Claims, error) {
				return "signed", testClaims(id, role), nil
			})

		session, err := svc.SignUp(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "bob@school.test", session.User.Email)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		svc, _ := setupUser(t)
		in := valid()
		in.Email = "not an email"

		_, err := svc.SignUp(context.Background(), in)
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("PasswordMismatch", func(t *testing.T) {
		svc, _ := setupUser(t)
		in := valid()
		in.PasswordConfirmation = "something-else"

		_, err := svc.SignUp(context.Background(), in)
		assert.ErrorIs(t, err, errdefs.ErrValidation)
		assert.EqualError(t, err, "passwords do not match")
	})

	t.Run("InvalidRole", func(t *testing.T) {
		svc, _ := setupUser(t)
		in := valid()
		in.Role = "admin"

		_, err := svc.SignUp(context.Background(), in)
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil, errdefs.ErrAlreadyExists)

		_, err := svc.SignUp(context.Background(), valid())
		assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)
	})
}

func TestSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Id: uuid.New(), Email: "sam@school.test", PasswordHash: string(hash), Role: model.RoleStudent}

	t.Run("Success", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.users.EXPECT().GetUserByEmail(gomock.Any(), "sam@school.test").Return(user, nil)
		deps.tokens.EXPECT().Issue(user.Id, "student").Return("signed", testClaims(user.Id, "student"), nil)

		session, err := svc.SignIn(context.Background(), &model.SignInInput{Email: "sam@school.test", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, user, session.User)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.users.EXPECT().GetUserByEmail(gomock.Any(), "sam@school.test").Return(user, nil)

		_, err := svc.SignIn(context.Background(), &model.SignInInput{Email: "sam@school.test", Password: "nope"})
		assert.ErrorIs(t, err, errdefs.ErrAuthentication)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.users.EXPECT().GetUserByEmail(gomock.Any(), "who@school.test").Return(nil, errdefs.ErrNotFound)

		_, err := svc.SignIn(context.Background(), &model.SignInInput{Email: "who@school.test", Password: "x"})
		assert.ErrorIs(t, err, errdefs.ErrAuthentication)
	})
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.tokens.EXPECT().Parse("tok").Return(testClaims(userID, "teacher"), nil)
		deps.revoker.EXPECT().IsRevoked(gomock.Any(), "jti").Return(false, nil)

		p, err := svc.Authenticate(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, userID, p.UserID)
		assert.Equal(t, "teacher", p.Role)
		assert.Equal(t, "jti", p.TokenID)
	})

	t.Run("Revoked", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.tokens.EXPECT().Parse("tok").Return(testClaims(userID, "teacher"), nil)
		deps.revoker.EXPECT().IsRevoked(gomock.Any(), "jti").Return(true, nil)

		_, err := svc.Authenticate(context.Background(), "tok")
		assert.ErrorIs(t, err, errdefs.ErrAuthentication)
	})

	t.Run("RevocationLookupFails", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.tokens.EXPECT().Parse("tok").Return(testClaims(userID, "teacher"), nil)
		deps.revoker.EXPECT().IsRevoked(gomock.Any(), "jti").Return(false, errors.New("redis down"))

		_, err := svc.Authenticate(context.Background(), "tok")
		require.Error(t, err)
		assert.NotErrorIs(t, err, errdefs.ErrAuthentication)
	})
}

func TestSignOut(t *testing.T) {
	t.Run("RevokesCurrentToken", func(t *testing.T) {
		svc, deps := setupUser(t)
		userID := uuid.New()
		deps.revoker.EXPECT().Revoke(gomock.Any(), "token-"+userID.String(), gomock.Any()).Return(nil)

		assert.NoError(t, svc.SignOut(userCtx(userID, model.RoleStudent)))
	})

	t.Run("Anonymous", func(t *testing.T) {
		svc, _ := setupUser(t)
		assert.ErrorIs(t, svc.SignOut(context.Background()), errdefs.ErrAuthentication)
	})
}

func TestGetUserPublic(t *testing.T) {
	userID := uuid.New()
	user := &model.User{Id: userID, DisplayName: "Ann", Role: model.RoleTeacher}

	t.Run("CacheHit", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.profiles.EXPECT().GetProfile(gomock.Any(), userID).Return(user.Public(), nil)

		p, err := svc.GetUserPublic(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", p.DisplayName)
	})

	t.Run("CacheMissFillsCache", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.profiles.EXPECT().GetProfile(gomock.Any(), userID).Return(nil, errdefs.ErrNotFound)
		deps.users.EXPECT().GetUser(gomock.Any(), userID).Return(user, nil)
		deps.profiles.EXPECT().SetProfile(gomock.Any(), user.Public()).Return(nil)

		p, err := svc.GetUserPublic(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, model.RoleTeacher, p.Role)
	})

	t.Run("CacheDownStillServes", func(t *testing.T) {
		svc, deps := setupUser(t)
		deps.profiles.EXPECT().GetProfile(gomock.Any(), userID).Return(nil, errors.New("redis down"))
		deps.users.EXPECT().GetUser(gomock.Any(), userID).Return(user, nil)
		deps.profiles.EXPECT().SetProfile(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		_, err := svc.GetUserPublic(context.Background(), userID)
		assert.NoError(t, err)
	})
}

func TestGetMe(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, deps := setupUser(t)
		userID := uuid.New()
		deps.users.EXPECT().GetUser(gomock.Any(), userID).Return(&model.User{Id: userID}, nil)

		u, err := svc.GetMe(userCtx(userID, model.RoleStudent))
		require.NoError(t, err)
		assert.Equal(t, userID, u.Id)
	})

	t.Run("NoPrincipal", func(t *testing.T) {
		svc, _ := setupUser(t)
		_, err := svc.GetMe(context.Background())
		assert.ErrorIs(t, err, errdefs.ErrAuthentication)
	})
}
