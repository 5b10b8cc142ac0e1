package services_test

import (
	"chat-relay/auth"
	errs "chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/services"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestAuthority() *auth.TokenAuthority {
	return auth.NewTokenAuthority("test-secret", 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := services.NewAuthService(mockRepo, newTestAuthority())

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		username := "bob"
		password := "secret1"

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(username, gomock.Not(password)).
			Return("user-uuid", nil).
			Times(1)

		token, err := svc.Register(username, password)

		req.NoError(err)
		req.NotEmpty(token)
	})

	t.Run("should fail when password is too short", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register("bob", "short")

		req.Error(err)
		req.ErrorIs(err, errs.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when username is too short", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register("bo", "secret1")

		req.Error(err)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser("duplicate", gomock.Any()).
			Return("", errs.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register("duplicate", "secret1")

		req.ErrorIs(err, errs.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	authority := newTestAuthority()
	svc := services.NewAuthService(mockRepo, authority)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		username := "bob"
		password := "secret1"

		hashedPassword, _ := auth.HashPassword(password)
		storedUser := repositories.User{
			ID:           "uuid-123",
			Username:     username,
			PasswordHash: hashedPassword,
			Roles:        []string{"user"},
		}

		mockRepo.EXPECT().
			GetUserByUsername(username).
			Return(storedUser, nil).
			Times(1)

		token, err := svc.Login(username, password)

		req.NoError(err)
		req.NotEmpty(token)

		// The issued token resolves back to the same identity
		identity, err := authority.Verify(string(token))
		req.NoError(err)
		req.Equal(username, identity)
	})

	t.Run("should return invalid credentials when password does not match", func(t *testing.T) {
		req := require.New(t)

		hashedPassword, _ := auth.HashPassword("right-password")
		storedUser := repositories.User{
			Username:     "bob",
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByUsername("bob").
			Return(storedUser, nil).
			Times(1)

		_, err := svc.Login("bob", "wrong-password")

		req.ErrorIs(err, errs.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByUsername("unknown").
			Return(repositories.User{}, errs.ErrInvalidCredentials).
			Times(1)

		_, err := svc.Login("unknown", "anyPassword")

		req.ErrorIs(err, errs.ErrInvalidCredentials)
	})
}
