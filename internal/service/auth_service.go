package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

// UserStore is the account lookup collaborator. Implemented by
// repository.UserRepository in production and by in-memory doubles in tests.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user model.User) error
}

// TokenIssuer is the slice of the token codec the auth service needs.
type TokenIssuer interface {
	Issue(subject string, extraClaims map[string]any, now time.Time) (string, error)
}

type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	issuer TokenIssuer
}

func NewAuthService(users UserStore, hasher PasswordHasher, issuer TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, issuer: issuer}
}

// Authenticate verifies a username/password pair against the stored digest.
// Unknown usernames and wrong passwords produce the same error so the login
// surface cannot be used to enumerate accounts.
func (s *AuthService) Authenticate(ctx context.Context, username string, password string) (model.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, apierror.Unauthorized("invalid credentials")
		}
		return model.User{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return model.User{}, apierror.Unauthorized("invalid credentials")
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return s.issueFor(user)
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	if username == "" || password == "" {
		return model.AuthResponse{}, apierror.BadRequest("username and password are required", "")
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if exists {
		return model.AuthResponse{}, apierror.Conflict("username already exists", username)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Firstname:    strings.TrimSpace(req.Firstname),
		Lastname:     strings.TrimSpace(req.Lastname),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.AuthResponse{}, err
	}

	return s.issueFor(user)
}

// Profile rehydrates the caller's account for the /me endpoint.
func (s *AuthService) Profile(ctx context.Context, username string) (model.UserProfile, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.UserProfile{}, apierror.NotFound("user not found", username)
		}
		return model.UserProfile{}, err
	}

	return user.Profile(), nil
}

func (s *AuthService) issueFor(user model.User) (model.AuthResponse, error) {
	signed, err := s.issuer.Issue(user.Username, nil, time.Now().UTC())
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{Token: signed}, nil
}
