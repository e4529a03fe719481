package handler

import (
	"net/http"
	"strconv"
	"strings"

	"user-service/internal/auth"
	"user-service/internal/domain/user"
	"user-service/internal/policy"
	"user-service/internal/repository"
	"user-service/pkg/password"
	"user-service/pkg/validator"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userRepo repository.UserRepository
	policy   *policy.Engine
}

func NewUserHandler(userRepo repository.UserRepository, policyEngine *policy.Engine) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		policy:   policyEngine,
	}
}

type RoleRequest struct {
	ID int64 `json:"id"`
}

type RoleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserRequest struct {
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	Roles     []RoleRequest `json:"roles"`
}

type UserResponse struct {
	ID        int64          `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Roles     []RoleResponse `json:"roles"`
}

func toUserResponse(u *user.User) UserResponse {
	roles := make([]RoleResponse, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, RoleResponse{ID: r.ID, Name: r.Name})
	}

	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     roles,
	}
}

func (req *UserRequest) normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
}

func (req *UserRequest) validate() error {
	if err := validator.Name("first name", req.FirstName); err != nil {
		return err
	}
	if err := validator.Name("last name", req.LastName); err != nil {
		return err
	}
	if err := validator.Email(req.Email); err != nil {
		return err
	}
	return validator.Password(req.Password)
}

func (req *UserRequest) roleIDs() []int64 {
	ids := make([]int64, 0, len(req.Roles))
	for _, r := range req.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// ListUsers returns every stored user. Administrators only.
func (h *UserHandler) ListUsers(c echo.Context) error {
	principal := auth.CurrentPrincipal(c)
	if err := h.policy.CanListUsers(principal); err != nil {
		return err
	}

	users, err := h.userRepo.List(c.Request().Context())
	if err != nil {
		return err
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}

	return c.JSON(http.StatusOK, response)
}

// GetUser returns a single user. Accessible to the user itself and to
// administrators.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	principal := auth.CurrentPrincipal(c)
	if err := h.policy.CanViewOrModifyUser(principal, id); err != nil {
		return err
	}

	u, err := h.userRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(u))
}

// CreateUser registers a new user. Registration is open; only requests that
// assign the Administrator role require an administrator principal.
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req UserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	req.normalize()
	if err := req.validate(); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.CurrentPrincipal(c)

	if err := h.policy.CanAssignRoles(ctx, principal, req.roleIDs()); err != nil {
		return err
	}

	roles, err := h.policy.ResolveRoles(ctx, req.roleIDs())
	if err != nil {
		return err
	}

	passwordHash, err := password.Hash(req.Password)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, msgPasswordProcessFail)
	}

	u, err := h.userRepo.Create(ctx, user.CreateUserInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Roles:        roles,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// UpdateUser replaces a user's profile, password and role set. Accessible to
// the user itself and to administrators; the escalation guard still applies.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	var req UserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	req.normalize()
	if err := req.validate(); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.CurrentPrincipal(c)

	if err := h.policy.CanViewOrModifyUser(principal, id); err != nil {
		return err
	}

	if err := h.policy.CanAssignRoles(ctx, principal, req.roleIDs()); err != nil {
		return err
	}

	roles, err := h.policy.ResolveRoles(ctx, req.roleIDs())
	if err != nil {
		return err
	}

	passwordHash, err := password.Hash(req.Password)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, msgPasswordProcessFail)
	}

	u, err := h.userRepo.Update(ctx, id, user.UpdateUserInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Roles:        roles,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(u))
}

// DeleteUser removes a user. Accessible to the user itself and to
// administrators.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	principal := auth.CurrentPrincipal(c)
	if err := h.policy.CanViewOrModifyUser(principal, id); err != nil {
		return err
	}

	if err := h.userRepo.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return respondMessage(c, http.StatusOK, msgUserDeleted)
}

func parseUserID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param(paramID), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, msgInvalidUserID)
	}
	return id, nil
}
