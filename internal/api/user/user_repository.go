package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/verisys/go-auth-starter/internal/api"
	"github.com/verisys/go-auth-starter/internal/api/auth"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

type UserRepo interface {
	List(ctx context.Context, page api.PageRequest) ([]auth.User, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) (*auth.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool auth.PGXPool
}

func NewPostgresUserRepo(pgpool auth.PGXPool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = "id, email, password_hash, role, token_version, disabled_at, created_at, updated_at"

// List paginates active users. The sort column comes from the allow-list in
// the service layer, so interpolating it is safe; id breaks ordering ties so
// pages are deterministic.
func (r *PostgresUserRepo) List(ctx context.Context, page api.PageRequest) ([]auth.User, int64, error) {
	direction := "ASC"
	if page.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(
		`SELECT `+userColumns+` FROM users WHERE disabled_at IS NULL
         ORDER BY %s %s, id ASC LIMIT $1 OFFSET $2`,
		page.SortField, direction)

	rows, err := r.pgpool.Query(ctx, query, page.Size, page.Page*page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: query failed: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.TokenVersion, &u.DisabledAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("list users: scan failed: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: rows failed: %w", err)
	}

	var total int64
	err = r.pgpool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE disabled_at IS NULL`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: count failed: %w", err)
	}

	return users, total, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	var u auth.User
	err := r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND disabled_at IS NULL`,
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.TokenVersion, &u.DisabledAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: query failed: %w", err)
	}
	return &u, nil
}

// UpdateRole is a single atomic UPDATE so concurrent admin actions cannot
// produce a lost update. Note it does not touch token_version: an existing
// access token keeps its old role claim until it expires.
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) (*auth.User, error) {
	var u auth.User
	err := r.pgpool.QueryRow(ctx,
		`UPDATE users SET role = $1, updated_at = now()
         WHERE id = $2 AND disabled_at IS NULL
         RETURNING `+userColumns,
		role, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.TokenVersion, &u.DisabledAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("update role: update failed: %w", err)
	}
	return &u, nil
}

// SoftDelete marks the account disabled. It does not bump token_version: the
// gate's live lookup excludes disabled users, which is what kills their
// outstanding tokens.
func (r *PostgresUserRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET disabled_at = now(), updated_at = now()
         WHERE id = $1 AND disabled_at IS NULL`,
		id)
	if err != nil {
		return fmt.Errorf("soft delete user: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}
