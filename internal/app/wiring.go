package app

import (
	"context"
	"fmt"

	"user-service/internal/auth"
	"user-service/internal/config"
	httptransport "user-service/internal/http"
	"user-service/internal/policy"
	redisrepo "user-service/internal/repository/redis"
	"user-service/internal/seed"
)

// InitializeService wires up all dependencies and returns a configured Service
func InitializeService(ctx context.Context) (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := redisrepo.NewDB(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	userRepo := redisrepo.NewUserRepository(db)
	roleRepo := redisrepo.NewRoleRepository(db)

	if err := seed.NewSeeder(userRepo, roleRepo).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.Token)
	authService := auth.NewService(userRepo, jwtService, cfg.Token.Type)
	authMiddleware := auth.NewMiddleware(jwtService, cfg.Token.Type)
	policyEngine := policy.NewEngine(roleRepo)

	server := httptransport.NewServer(&httptransport.ServerDependencies{
		Config:         cfg,
		UserRepo:       userRepo,
		RoleRepo:       roleRepo,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		PolicyEngine:   policyEngine,
	})

	return &Service{
		config: cfg,
		db:     db,
		server: server,
	}, nil
}
