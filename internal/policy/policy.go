// Package policy holds the access decisions consulted by request handlers:
// who may list users, who may touch a given user record, and the escalation
// guard that keeps non-administrators from handing out the Administrator role.
// Decisions are read-only over the current principal and return nil (allow)
// or an error wrapping apperrors.ErrForbidden (deny).
package policy

import (
	"context"
	"errors"

	"user-service/internal/auth"
	"user-service/internal/domain/role"
	"user-service/internal/repository"
	apperrors "user-service/pkg/errors"
)

const (
	msgAdminOnly      = "administrator authority required"
	msgSelfOrAdmin    = "may only access own record without administrator authority"
	msgAdminEscalated = "assigning the administrator role requires administrator authority"
)

type Engine struct {
	roleRepo repository.RoleRepository
}

func NewEngine(roleRepo repository.RoleRepository) *Engine {
	return &Engine{roleRepo: roleRepo}
}

// CanListUsers allows only authenticated administrators.
func (e *Engine) CanListUsers(p *auth.Principal) error {
	if p == nil || !p.IsAdministrator() {
		return apperrors.Forbidden(msgAdminOnly)
	}
	return nil
}

// CanViewOrModifyUser allows administrators for any target and every
// authenticated principal for its own record.
func (e *Engine) CanViewOrModifyUser(p *auth.Principal, targetUserID int64) error {
	if p == nil {
		return apperrors.Forbidden(msgSelfOrAdmin)
	}
	if p.IsAdministrator() || p.ID == targetUserID {
		return nil
	}
	return apperrors.Forbidden(msgSelfOrAdmin)
}

// CanAssignRoles is the escalation guard. Requests that do not name the
// Administrator role id are allowed unconditionally, anonymous actors
// included (open registration). Requests that do name it require an
// authenticated principal that already holds the Administrator authority.
func (e *Engine) CanAssignRoles(ctx context.Context, p *auth.Principal, requestedRoleIDs []int64) error {
	if len(requestedRoleIDs) == 0 {
		return nil
	}

	adminRole, err := e.roleRepo.GetByName(ctx, role.Administrator)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// No Administrator role exists, so no id can reference it.
			return nil
		}
		return err
	}

	requestsAdmin := false
	for _, id := range requestedRoleIDs {
		if id == adminRole.ID {
			requestsAdmin = true
			break
		}
	}

	if !requestsAdmin {
		return nil
	}

	if p == nil || !p.IsAdministrator() {
		return apperrors.Forbidden(msgAdminEscalated)
	}

	return nil
}

// ResolveRoles maps requested role ids to stored roles. Unresolvable ids are
// dropped silently; an empty request or an all-unresolvable one falls back to
// exactly the Guest role.
func (e *Engine) ResolveRoles(ctx context.Context, requestedRoleIDs []int64) ([]role.Role, error) {
	resolved := make([]role.Role, 0, len(requestedRoleIDs))
	seen := make(map[int64]bool, len(requestedRoleIDs))

	for _, id := range requestedRoleIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		r, err := e.roleRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		resolved = append(resolved, *r)
	}

	if len(resolved) == 0 {
		guest, err := e.roleRepo.GetByName(ctx, role.Guest)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, *guest)
	}

	return resolved, nil
}
