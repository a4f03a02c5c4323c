package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	database "github.com/verisys/go-auth-starter/app/db"
	"github.com/verisys/go-auth-starter/app/metrics"
	"github.com/verisys/go-auth-starter/config"
	"github.com/verisys/go-auth-starter/internal/api/auth"
	"github.com/verisys/go-auth-starter/internal/api/user"
)

// Container wires configuration, the database pool, metrics and every
// repository/service/handler pair. All construction happens here so main.go
// only deals with lifecycle.
type Container struct {
	Logger  *slog.Logger
	Config  *config.Config
	Pool    *pgxpool.Pool
	Metrics *metrics.AppMetrics

	TokenService *auth.TokenService

	AuthRepo    auth.AuthRepo
	AuthService auth.AuthService
	AuthHandler *auth.HandlerImpl

	UserRepo    user.UserRepo
	UserService user.UserService
	UserHandler *user.HandlerImpl

	dbURL string
}

func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build database config: %w", err)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	appMetrics, err := metrics.New()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	tokenService, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, tokenService, appMetrics, logger)
	authHandler := auth.NewAuthHandlerImpl(authService, logger)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, logger)
	userHandler := user.NewUserHandlerImpl(userService, logger)

	return &Container{
		Logger:       logger,
		Config:       cfg,
		Pool:         pool,
		Metrics:      appMetrics,
		TokenService: tokenService,
		AuthRepo:     authRepo,
		AuthService:  authService,
		AuthHandler:  authHandler,
		UserRepo:     userRepo,
		UserService:  userService,
		UserHandler:  userHandler,
		dbURL:        dbConfig.ConnectionURL,
	}, nil
}

func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.dbURL, c.Logger)
}

// SeedAdmin creates the bootstrap administrator account when enabled. It is
// idempotent: if the address is already taken, even by a disabled account,
// nothing is written.
func (c *Container) SeedAdmin(ctx context.Context) error {
	admin := c.Config.Admin
	if !admin.SeedEnabled {
		return nil
	}

	email := auth.NormalizeEmail(admin.Email)
	exists, err := c.AuthRepo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("admin seed: email lookup failed: %w", err)
	}
	if exists {
		c.Logger.InfoContext(ctx, "Admin seed skipped, email already present",
			slog.String("email", email))
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("admin seed: failed to hash password: %w", err)
	}

	seeded, err := c.AuthRepo.CreateUser(ctx, email, string(hashed), auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("admin seed: insert failed: %w", err)
	}

	c.Logger.InfoContext(ctx, "Admin account seeded",
		slog.String("user_id", seeded.ID.String()),
		slog.String("email", email))
	return nil
}

func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
