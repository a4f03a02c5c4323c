package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/verisys/go-auth-starter/internal/api"
	"github.com/verisys/go-auth-starter/internal/api/auth"
)

var _ UserService = (*UserServiceImpl)(nil)

// AllowedSortFields maps API sort names to the columns the list query may
// order by. Anything outside this map is rejected before touching the
// database.
var AllowedSortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"email":     "email",
	"role":      "role",
}

type UserService interface {
	ListUsers(ctx context.Context, page api.PageRequest) (*api.PaginationResponse[UserResponse], error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ChangeRole(ctx context.Context, id uuid.UUID, role auth.Role) (*UserResponse, error)
	SoftDeleteUser(ctx context.Context, id uuid.UUID) error
}

type UserServiceImpl struct {
	repo   UserRepo
	logger *slog.Logger
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, page api.PageRequest) (*api.PaginationResponse[UserResponse], error) {
	users, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, err
	}

	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, NewUserResponse(&users[i]))
	}

	resp := api.NewPaginationResponse(items, page.Page, page.Size, total)
	return &resp, nil
}

func (s *UserServiceImpl) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		return nil, err
	}
	resp := NewUserResponse(u)
	return &resp, nil
}

// ChangeRole updates the stored role only. Outstanding access tokens keep
// the old role claim until they expire; the next refresh picks up the new
// one.
func (s *UserServiceImpl) ChangeRole(ctx context.Context, id uuid.UUID, role auth.Role) (*UserResponse, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("Invalid role: %w", api.ErrBadRequest)
	}

	u, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "User role changed",
		slog.String("user_id", id.String()),
		slog.String("role", string(role)))
	resp := NewUserResponse(u)
	return &resp, nil
}

func (s *UserServiceImpl) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		return err
	}

	s.logger.InfoContext(ctx, "User disabled", slog.String("user_id", id.String()))
	return nil
}
