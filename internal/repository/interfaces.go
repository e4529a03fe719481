package repository

import (
	"context"

	"user-service/internal/domain/role"
	"user-service/internal/domain/user"
)

// Repository interfaces used by the auth, policy and handler packages.
// These are provider-side interfaces that concrete implementations must satisfy.

type UserRepository interface {
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	Update(ctx context.Context, id int64, input user.UpdateUserInput) (*user.User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type RoleRepository interface {
	Create(ctx context.Context, name string) (*role.Role, error)
	GetByID(ctx context.Context, id int64) (*role.Role, error)
	GetByName(ctx context.Context, name string) (*role.Role, error)
	Count(ctx context.Context) (int64, error)
}
