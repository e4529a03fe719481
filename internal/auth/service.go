package auth

import (
	"context"

	"user-service/internal/domain/user"
	"user-service/internal/repository"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/password"
)

// Pre-computed bcrypt hash (cost 12) used to equalize timing on failed lookups.
// The actual plaintext is irrelevant.
const dummyBcryptHash = "$2a$12$dWR5CQpS4zNHLavLSIr4o.P6QDQEUJKv7mJ7WekUHHqyRSRMJzH0S"

// Service turns a login request into a signed token. Unknown email and wrong
// password are indistinguishable to the caller.
type Service struct {
	userRepo   repository.UserRepository
	jwtService *JWTService
	tokenType  string
}

func NewService(userRepo repository.UserRepository, jwtService *JWTService, tokenType string) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenType:  tokenType,
	}
}

type LoginResult struct {
	Email     string
	TokenType string
	Token     string
}

func (s *Service) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if email == "" || plaintext == "" {
		password.Verify("", dummyBcryptHash)
		return nil, apperrors.InvalidCredentials()
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Run bcrypt against a dummy hash to prevent timing oracle.
		// Without this, "user not found" returns in ~1ms while
		// "wrong password" takes ~200ms, leaking email existence.
		password.Verify(plaintext, dummyBcryptHash)
		return nil, apperrors.InvalidCredentials()
	}

	if !password.Verify(plaintext, u.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	s.maybeUpgradeHash(ctx, u, plaintext)

	token, err := s.jwtService.Generate(u.ID, u.Email, u.RoleNames())
	if err != nil {
		return nil, apperrors.InternalServer(msgGenerateTokenFail, err)
	}

	return &LoginResult{
		Email:     u.Email,
		TokenType: s.tokenType,
		Token:     token,
	}, nil
}

// maybeUpgradeHash re-hashes the stored password when it was produced with a
// lower bcrypt cost than the current default. Login succeeds either way, so
// failures here are not surfaced to the caller.
func (s *Service) maybeUpgradeHash(ctx context.Context, u *user.User, plaintext string) {
	needs, err := password.NeedsRehash(u.PasswordHash, password.DefaultCost)
	if err != nil || !needs {
		return
	}

	rehashed, err := password.Hash(plaintext)
	if err != nil {
		return
	}

	_, _ = s.userRepo.Update(ctx, u.ID, user.UpdateUserInput{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: rehashed,
		Roles:        u.Roles,
	})
}
