package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"taskboard-be/internal/apperr"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/models"
	"taskboard-be/internal/repository"
)

const (
	MinNameLength     = 3
	MinPasswordLength = 5
)

// Client-facing messages. The credential message is shared by the unknown-email
// and wrong-password paths.
const (
	MsgInvalidCredentials = "Please try to login with correct credentials"
	MsgMissingCredentials = "Please provide both email and password"
	MsgInvalidName        = "Enter a valid name"
	MsgInvalidEmail       = "Enter a valid email"
	MsgShortPassword      = "Password must be at least 5 characters"
	MsgMissingNewPassword = "Please provide both email and new password"
	MsgShortNewPassword   = "New password must be at least 5 characters"
	MsgUserNotFound       = "User not found"
)

var validate = validator.New()

// TokenIssuer mints identity tokens.
type TokenIssuer interface {
	Issue(userID string, ttl time.Duration) (string, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenTTLs are the lifetimes handed out by each entry point.
type TokenTTLs struct {
	Signup time.Duration
	Login  time.Duration
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.TokenResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	CurrentUser(ctx context.Context, userID string) (*models.UserProfile, error)
	ChangePassword(ctx context.Context, callerID string, req *models.ChangePasswordRequest) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	hasher   PasswordHasher
	ttls     TokenTTLs
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics

	// decoyHash keeps the unknown-email path as slow as a real comparison.
	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	hasher PasswordHasher,
	ttls TokenTTLs,
	logger logrus.FieldLogger,
	m *metrics.Metrics,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
		ttls:     ttls,
		logger:   logger,
		metrics:  m,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// Signup creates a new user account and returns a short-lived token
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.TokenResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if utf8.RuneCountInString(name) < MinNameLength {
		return nil, apperr.Validation(MsgInvalidName)
	}
	if !validEmail(email) {
		return nil, apperr.Validation(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return nil, apperr.Validation(MsgShortPassword)
	}

	// Check if user already exists
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, repository.ErrEmailTaken
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, classify(s.logger, "signup.find_user", err)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, classify(s.logger, "signup.hash", err)
	}

	// The unique index still guards against a concurrent signup with the same email.
	user, err := s.userRepo.Create(ctx, name, email, hashed)
	if err != nil {
		return nil, classify(s.logger, "signup.create_user", err)
	}

	token, err := s.tokens.Issue(user.ID, s.ttls.Signup)
	if err != nil {
		return nil, classify(s.logger, "signup.issue_token", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user signed up")
	return &models.TokenResponse{Success: true, AuthToken: token}, nil
}

// Login authenticates a user and returns a long-lived token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation(MsgMissingCredentials)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, classify(s.logger, "login.find_user", err)
		}
		s.hasher.Verify(req.Password, s.decoy())
		s.metrics.AuthFailure("invalid_credentials")
		return nil, apperr.InvalidCredentials(MsgInvalidCredentials)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.metrics.AuthFailure("invalid_credentials")
		return nil, apperr.InvalidCredentials(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID, s.ttls.Login)
	if err != nil {
		return nil, classify(s.logger, "login.issue_token", err)
	}

	return &models.TokenResponse{Success: true, AuthToken: token}, nil
}

func (s *authService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password-never-matches")
		if err != nil {
			s.logger.WithError(err).Warn("failed to prepare decoy hash")
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// CurrentUser returns the public profile of an already authenticated caller
func (s *authService) CurrentUser(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, classify(s.logger, "current_user.find_user", err)
	}

	return &models.UserProfile{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// ChangePassword replaces the caller's own password. The email in the request must
// belong to the caller; any other account is reported as not found.
func (s *authService) ChangePassword(ctx context.Context, callerID string, req *models.ChangePasswordRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" || req.NewPassword == "" {
		return apperr.Validation(MsgMissingNewPassword)
	}
	if utf8.RuneCountInString(req.NewPassword) < MinPasswordLength {
		return apperr.Validation(MsgShortNewPassword)
	}

	user, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return classify(s.logger, "change_password.find_user", err)
	}
	if user.Email != email {
		s.logger.WithField("user_id", callerID).Warn("password change for another account rejected")
		return apperr.NotFound(MsgUserNotFound)
	}

	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return classify(s.logger, "change_password.hash", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return classify(s.logger, "change_password.update", err)
	}

	s.logger.WithField("user_id", user.ID).Info("password changed")
	return nil
}
