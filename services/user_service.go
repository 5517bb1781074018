package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
	"github.com/nmoreira/prode-server/storage"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	// UploadAvatar stores the image and returns its public URL.
	UploadAvatar(ctx context.Context, userID string, contentType string, reader io.Reader) (string, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID string, contentType string, reader io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrAvatarStorageUnavailable
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedAvatarType
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	// One key per user, so replacing an avatar overwrites the old object.
	key := fmt.Sprintf("avatars/%s", userID)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar for user %s: %w", userID, err)
	}

	if err := s.userRepo.UpdateAvatarURL(ctx, userID, result.Location); err != nil {
		return "", err
	}
	return result.Location, nil
}
