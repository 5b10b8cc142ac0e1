//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	errs "chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
)

type IAuthService interface {
	Login(username, password string) (Token, error)
	Register(username, password string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	authority      *auth.TokenAuthority
}

type Token string

func NewAuthService(repo repositories.IUserRepository, authority *auth.TokenAuthority) IAuthService {
	return &AuthService{userRepository: repo, authority: authority}
}

func (s *AuthService) Register(username, password string) (Token, error) {
	creds := auth.Credentials{
		Username: username,
		Password: password,
	}

	// 1. Validate business rules (username and password length bounds).
	// We check this before any expensive cryptographic operation.
	if err := auth.ValidateCredentials(creds); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id.
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash
	if _, err = s.userRepository.CreateUser(username, hashedPassword); err != nil {
		return "", err // Propagates ErrUserAlreadyExists if the username is taken
	}

	// 4. Generate the initial session token
	token, err := s.authority.Generate(username, []string{"user"})
	if err != nil {
		return "", errs.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(username, password string) (Token, error) {
	// 1. Retrieve user by username from storage
	user, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errs.ErrInvalidCredentials
	}

	// 2. Compare the provided password with the stored hash
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errs.ErrInvalidCredentials
	}

	// 3. Issue the JWT token
	token, err := s.authority.Generate(user.Username, user.Roles)
	if err != nil {
		return "", errs.ErrTokenGeneration
	}

	return Token(token), nil
}
