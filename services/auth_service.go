package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
}

// RegisterInput captures the registration form, including the permanent
// champion/runner-up picks. The picks cannot be changed afterwards.
type RegisterInput struct {
	Name     string
	Lastname string
	Email    string
	CareerID int
	Password string
	Champion int
	RunnerUp int
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Name == "" || input.Lastname == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: name, lastname and email are required", ErrValidationFailed)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if input.Champion == 0 || input.RunnerUp == 0 || input.Champion == input.RunnerUp {
		return nil, ErrInvalidFinalPicks
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Lastname:       input.Lastname,
		Email:          input.Email,
		PasswordHash:   string(hashedPassword),
		CareerID:       input.CareerID,
		Role:           models.RoleUser,
		ChampionTeamID: input.Champion,
		RunnerUpTeamID: input.RunnerUp,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrAuthEmailTaken
		case errors.Is(err, repositories.ErrUserPicksInvalid):
			return nil, ErrInvalidFinalPicks
		case errors.Is(err, repositories.ErrUserCareerInvalid):
			return nil, ErrCareerInvalid
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}
