// Package seed provisions the reserved roles and the root account on first
// start against an empty store. Reruns against a populated store are no-ops.
package seed

import (
	"context"
	"fmt"

	"user-service/internal/domain/role"
	"user-service/internal/domain/user"
	"user-service/internal/repository"
	"user-service/pkg/password"
)

const (
	rootFirstName = "Root"
	rootLastName  = "Admin"
	rootEmail     = "root@gmail.com"
	rootPassword  = "root"
)

type Seeder struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewSeeder(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *Seeder {
	return &Seeder{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := s.seedUsers(ctx); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	count, err := s.roleRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.roleRepo.Create(ctx, role.Administrator); err != nil {
		return err
	}
	if _, err := s.roleRepo.Create(ctx, role.Guest); err != nil {
		return err
	}

	return nil
}

func (s *Seeder) seedUsers(ctx context.Context) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin, err := s.roleRepo.GetByName(ctx, role.Administrator)
	if err != nil {
		return err
	}

	hash, err := password.Hash(rootPassword)
	if err != nil {
		return err
	}

	_, err = s.userRepo.Create(ctx, user.CreateUserInput{
		FirstName:    rootFirstName,
		LastName:     rootLastName,
		Email:        rootEmail,
		PasswordHash: hash,
		Roles:        []role.Role{*admin},
	})
	return err
}
