package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bom-tracker/internal/logger"
	"bom-tracker/internal/models"
)

type DBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

type UserService struct {
	DB     DBLayer
	Hasher PasswordHasher
	Logger *logger.Logger
	now    func() time.Time
}

func NewUserService(db DBLayer, hasher PasswordHasher, log *logger.Logger) *UserService {
	return &UserService{DB: db, Hasher: hasher, Logger: log, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	req := models.CredentialsRequest{Email: strings.TrimSpace(email), Password: password}
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.DB.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateEmail
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	// the unique index still catches a concurrent registration
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.Logger.Info("USER", fmt.Sprintf("registered user %d", user.ID))
	return user, nil
}

// Login returns ErrInvalidCredentials for an unknown email and for a wrong
// password alike.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.DB.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.Logger.LogSecurity("LOGIN_FAILED", "unknown email")
		return nil, models.ErrInvalidCredentials
	}

	ok, err := s.Hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for user %d", user.ID))
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}
