// Package services contains server-side business logic. This file implements
// AuthService: password login, registration and the OAuth find-or-create merge.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/cryptox"
	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"github.com/dmitrijs2005/tuneshelf/internal/server/auth"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/repomanager"
)

// flowError carries a client-facing message while still matching a
// common sentinel through errors.Is.
type flowError struct {
	msg  string
	kind error
}

func (e *flowError) Error() string { return e.msg }
func (e *flowError) Unwrap() error { return e.kind }

var (
	ErrUserNotFound     error = &flowError{msg: "User not found.", kind: common.ErrorNotFound}
	ErrPasswordMismatch error = &flowError{msg: "Password does not match", kind: common.ErrorUnauthorized}
)

// RegisterInput is the allow-listed set of fields accepted when creating an
// account. Anything else a client sends is dropped by the decoder.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	UserType    string `json:"userType"`
	DisplayName string `json:"displayName"`
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	tokens      *auth.TokenIssuer
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher,
	tokens *auth.TokenIssuer, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "auth"),
	}
}

// Login verifies the password against the stored digest and returns an
// access token built from the stored record.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}
	if !s.hasher.Compare(password, user.Password) {
		return "", ErrPasswordMismatch
	}
	return s.sign(user)
}

// Register hashes the password, creates the account and returns an access
// token. A taken email surfaces as common.ErrorAlreadyExists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	user, err := s.createUser(ctx, in)
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.sign(user)
}

// OAuth signs in an existing account by email without checking the password,
// or registers it when absent. When a concurrent OAuth call creates the same
// email first, the now-existing account is used.
func (s *AuthService) OAuth(ctx context.Context, in RegisterInput) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return s.sign(user)
	case !errors.Is(err, common.ErrorNotFound):
		return "", fmt.Errorf("error searching user: %w", err)
	}

	user, err = s.createUser(ctx, in)
	if errors.Is(err, common.ErrorAlreadyExists) {
		s.logger.Debug(ctx, "oauth create lost race, reusing account")
		user, err = repo.GetUserByEmail(ctx, in.Email)
		if err != nil {
			return "", fmt.Errorf("error searching user: %w", err)
		}
	} else if err != nil {
		return "", err
	} else {
		s.logger.Info(ctx, "user registered via oauth", "user_id", user.ID)
	}

	return s.sign(user)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	// Tokens cannot be signed without an email, so refuse before writing.
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	userType := in.UserType
	if userType == "" {
		userType = common.UserTypeListener
	}

	user := &models.User{
		Email:       in.Email,
		Password:    digest,
		UserType:    userType,
		DisplayName: in.DisplayName,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// sign builds claims from a stored record, never from request input.
func (s *AuthService) sign(user *models.User) (string, error) {
	token, err := s.tokens.Sign(auth.Identity{
		ID:       user.ID,
		Email:    user.Email,
		UserType: user.UserType,
	}, false)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return token, nil
}
