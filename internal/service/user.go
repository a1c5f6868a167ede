package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/filevault/filevault/internal/domain"
	"github.com/filevault/filevault/internal/media"
	"github.com/filevault/filevault/internal/store"
	"github.com/filevault/filevault/pkg/cryptox"
	"github.com/filevault/filevault/pkg/idx"
)

// UserService owns account lifecycle: registration, login, password and
// profile mutation. Tokens are delegated to TokenService.
type UserService struct {
	Store  store.Store
	Media  media.Host
	Tokens *TokenService
}

type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
	Avatar   *media.Asset
}

// Register creates an account. All fields plus the avatar asset are
// required; the username is stored lowercased and the avatar is pushed to
// the media host before the record is written.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return domain.User{}, ErrMissingFields
	}
	if in.Avatar == nil {
		return domain.User{}, fmt.Errorf("%w: avatar", ErrMissingFields)
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, ErrAlreadyRegistered
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	avatar, err := s.Media.Upload(ctx, *in.Avatar)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:             idx.New().String(),
		Username:       strings.ToLower(in.Username),
		Email:          in.Email,
		FullName:       in.FullName,
		PasswordHash:   hash,
		AvatarURL:      avatar.URL,
		AvatarPublicID: avatar.PublicID,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrAlreadyRegistered
		}
		return domain.User{}, err
	}

	// Re-read so DB-populated timestamps are returned.
	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// Login checks the credentials and issues a token pair. A login supersedes
// any refresh token issued by a previous login.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, Pair, error) {
	if email == "" || password == "" {
		return domain.User{}, Pair{}, ErrMissingFields
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, Pair{}, err // store.ErrNotFound when unknown
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, Pair{}, ErrInvalidCredentials
	}

	pair, err := s.Tokens.IssuePair(ctx, user)
	if err != nil {
		return domain.User{}, Pair{}, err
	}

	return user, pair, nil
}

// GetByID fetches a user by id.
func (s *UserService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ChangePassword swaps the stored hash after checking the old password.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(oldPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// UpdateProfile overwrites full name and email in place. Both fields are
// required. The email is not re-checked against other accounts here; a
// collision surfaces from the unique index instead.
func (s *UserService) UpdateProfile(ctx context.Context, userID, fullName, email string) (domain.User, error) {
	if fullName == "" || email == "" {
		return domain.User{}, ErrMissingFields
	}

	if err := s.Store.Users().UpdateAccountDetails(ctx, userID, fullName, email); err != nil {
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, userID)
}

// UpdateAvatar uploads the new asset first and then swaps the stored
// descriptor. The superseded asset stays on the media host.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, asset *media.Asset) (domain.User, error) {
	if asset == nil {
		return domain.User{}, fmt.Errorf("%w: avatar", ErrMissingFields)
	}

	avatar, err := s.Media.Upload(ctx, *asset)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	if err := s.Store.Users().UpdateAvatar(ctx, userID, avatar.URL, avatar.PublicID); err != nil {
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, userID)
}
