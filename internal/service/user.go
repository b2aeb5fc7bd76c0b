package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexarts74/payetavie/internal/cognito"
	"github.com/alexarts74/payetavie/internal/model"
	"github.com/alexarts74/payetavie/internal/repository"
)

// UserService maps identity provider subjects to local users, provisioning them
// on first sight. The stored email is the notification address.
type UserService struct {
	repo      repository.UserRepository
	directory cognito.Directory
}

// NewUserService creates a UserService. directory may be nil, in which case
// only emails carried by the token are used.
func NewUserService(repo repository.UserRepository, directory cognito.Directory) *UserService {
	return &UserService{repo: repo, directory: directory}
}

// Resolve returns the local user for sub. When email is empty the stored email
// is reused, otherwise the directory is asked using accessToken.
func (s *UserService) Resolve(ctx context.Context, sub, email, accessToken string) (model.User, error) {
	if sub == "" {
		return model.User{}, ErrUnauthenticated
	}

	email = strings.TrimSpace(email)
	if email == "" {
		existing, err := s.repo.GetByCognitoSub(ctx, sub)
		switch {
		case err == nil && existing.Email != "":
			return existing, nil
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return model.User{}, fmt.Errorf("failed to get user: %w", err)
		}

		email, err = s.lookupEmail(ctx, accessToken)
		if err != nil {
			return model.User{}, err
		}
	}

	user, err := s.repo.GetOrCreate(ctx, sub, email)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to provision user: %w", err)
	}
	return user, nil
}

func (s *UserService) lookupEmail(ctx context.Context, accessToken string) (string, error) {
	if s.directory == nil || accessToken == "" {
		return "", fmt.Errorf("%w: no email known for user", ErrUnauthenticated)
	}

	email, err := s.directory.LookupEmail(ctx, accessToken)
	if err != nil {
		if errors.Is(err, cognito.ErrNotAuthorized) ||
			errors.Is(err, cognito.ErrUserNotFound) ||
			errors.Is(err, cognito.ErrEmailUnavailable) {
			return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return "", fmt.Errorf("failed to look up email: %w", err)
	}
	return email, nil
}
