package user

import "user-service/internal/domain/role"

type User struct {
	ID           int64       `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Roles        []role.Role `json:"roles"`
}

// RoleNames returns the names of the user's roles in stored order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

type CreateUserInput struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Roles        []role.Role
}

type UpdateUserInput struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Roles        []role.Role
}
