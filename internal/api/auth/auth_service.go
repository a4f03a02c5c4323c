package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"

	"github.com/verisys/go-auth-starter/app/metrics"
	"github.com/verisys/go-auth-starter/internal/api"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error)
}

type AuthServiceImpl struct {
	repo    AuthRepo
	tokens  *TokenService
	metrics *metrics.AppMetrics
	logger  *slog.Logger
}

func NewAuthService(repo AuthRepo, tokens *TokenService, appMetrics *metrics.AppMetrics, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		repo:    repo,
		tokens:  tokens,
		metrics: appMetrics,
		logger:  logger,
	}
}

// NormalizeEmail trims and lowercases; every email comparison in the system
// happens post-normalization.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	normalized := NormalizeEmail(email)

	// Uniqueness is global: a disabled account still reserves its address.
	exists, err := s.repo.EmailExists(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("Email already exists: %w", api.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, normalized, string(hashed), RoleUser)
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			// Raced with a concurrent registration for the same address.
			return nil, fmt.Errorf("Email already exists: %w", api.ErrConflict)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", user.ID.String()))
	return s.issueTokens(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	normalized := NormalizeEmail(email)

	user, err := s.repo.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// Identical message and status as a wrong password, so the
			// response never reveals whether the account exists.
			s.countLogin(ctx, "failure")
			return nil, errInvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.countLogin(ctx, "failure")
		return nil, errInvalidCredentials()
	}

	s.countLogin(ctx, "success")
	return s.issueTokens(user)
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if strings.Count(refreshToken, ".") != 2 {
		return nil, fmt.Errorf("Invalid refresh token: %w", api.ErrBadRequest)
	}

	// One failure message for signature, structure, expiry and type checks;
	// the caller never learns which one tripped.
	claims, err := s.tokens.Verify(refreshToken, TokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("Invalid refresh token: %w", api.ErrUnauthenticated)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("Invalid refresh token: %w", api.ErrBadRequest)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Invalid refresh token: %w", api.ErrUnauthenticated)
		}
		return nil, err
	}

	if user.TokenVersion != claims.Version() {
		return nil, fmt.Errorf("Refresh token has been invalidated: %w", api.ErrUnauthenticated)
	}

	if s.metrics != nil {
		s.metrics.TokenRefreshesTotal.Add(ctx, 1)
	}
	// Rotation: the new pair is bound to the current version and role.
	return s.issueTokens(user)
}

// LogoutAll bumps the user's token version, invalidating every outstanding
// access and refresh token in one atomic write. There is no token store to
// clear and no way to roll back individual tokens.
func (s *AuthServiceImpl) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.IncrementTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.TokenRevocationsTotal.Add(ctx, 1)
	}
	s.logger.InfoContext(ctx, "All sessions revoked", slog.String("user_id", userID.String()))
	return nil
}

func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		return nil, err
	}

	return &ProfileResponse{
		ID:           user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		DisabledAt:   user.DisabledAt,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}, nil
}

func (s *AuthServiceImpl) issueTokens(user *User) (*AuthResponse, error) {
	access, err := s.tokens.Issue(user.ID.String(), TokenAccess, user.TokenVersion, []string{string(user.Role)})
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := s.tokens.Issue(user.ID.String(), TokenRefresh, user.TokenVersion, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         user.Role,
	}, nil
}

func (s *AuthServiceImpl) countLogin(ctx context.Context, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LoginAttemptsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func errInvalidCredentials() error {
	return fmt.Errorf("Invalid email or password: %w", api.ErrBadRequest)
}
