package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"user-service/internal/auth"
	"user-service/internal/config"
	httptransport "user-service/internal/http"
	"user-service/internal/domain/role"
	"user-service/internal/domain/user"
	"user-service/internal/policy"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/password"
)

const (
	adminRoleID int64 = 1
	guestRoleID int64 = 2
)

type memUserRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]*user.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, input user.CreateUserInput) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == input.Email {
			return nil, apperrors.Conflict("user with this email already exists")
		}
	}

	m.seq++
	u := &user.User{
		ID:           m.seq,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Roles:        input.Roles,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return u, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (m *memUserRepo) List(ctx context.Context) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memUserRepo) Update(ctx context.Context, id int64, input user.UpdateUserInput) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return nil, apperrors.NotFound("user not found")
	}
	for otherID, u := range m.users {
		if otherID != id && u.Email == input.Email {
			return nil, apperrors.Conflict("user with this email already exists")
		}
	}

	u := &user.User{
		ID:           id,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Roles:        input.Roles,
	}
	m.users[id] = u
	return u, nil
}

func (m *memUserRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return apperrors.NotFound("user not found")
	}
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

type memRoleRepo struct {
	roles map[int64]role.Role
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{roles: map[int64]role.Role{
		adminRoleID: {ID: adminRoleID, Name: role.Administrator},
		guestRoleID: {ID: guestRoleID, Name: role.Guest},
	}}
}

func (m *memRoleRepo) Create(ctx context.Context, name string) (*role.Role, error) {
	id := int64(len(m.roles) + 1)
	r := role.Role{ID: id, Name: name}
	m.roles[id] = r
	return &r, nil
}

func (m *memRoleRepo) GetByID(ctx context.Context, id int64) (*role.Role, error) {
	if r, ok := m.roles[id]; ok {
		return &r, nil
	}
	return nil, apperrors.NotFound("role not found")
}

func (m *memRoleRepo) GetByName(ctx context.Context, name string) (*role.Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, apperrors.NotFound("role not found")
}

func (m *memRoleRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.roles)), nil
}

type fixture struct {
	server     *httptransport.Server
	jwtService *auth.JWTService
	userRepo   *memUserRepo
	adminID    int64
	guestID    int64
}

var (
	hashOnce    sync.Once
	rootHash    string
	guestHash   string
	hashFailure error
)

func testHashes(t *testing.T) (string, string) {
	t.Helper()
	hashOnce.Do(func() {
		rootHash, hashFailure = password.Hash("root")
		if hashFailure != nil {
			return
		}
		guestHash, hashFailure = password.Hash("guest pass")
	})
	if hashFailure != nil {
		t.Fatalf("failed to hash fixture passwords: %v", hashFailure)
	}
	return rootHash, guestHash
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	adminHash, memberHash := testHashes(t)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:            "0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Token: config.TokenConfig{
			Key:            "0123456789abcdefghijklmnopqrstuvwxyzABCDEF",
			Type:           "Bearer",
			Separator:      ":",
			Validity:       time.Hour,
			AuthoritiesKey: "authorities",
		},
	}

	userRepo := newMemUserRepo()
	roleRepo := newMemRoleRepo()

	ctx := context.Background()
	admin, err := userRepo.Create(ctx, user.CreateUserInput{
		FirstName:    "Root",
		LastName:     "Admin",
		Email:        "root@gmail.com",
		PasswordHash: adminHash,
		Roles:        []role.Role{{ID: adminRoleID, Name: role.Administrator}},
	})
	if err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
	guest, err := userRepo.Create(ctx, user.CreateUserInput{
		FirstName:    "Gus",
		LastName:     "Guest",
		Email:        "guest@example.com",
		PasswordHash: memberHash,
		Roles:        []role.Role{{ID: guestRoleID, Name: role.Guest}},
	})
	if err != nil {
		t.Fatalf("failed to seed guest: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.Token)
	server := httptransport.NewServer(&httptransport.ServerDependencies{
		Config:         cfg,
		UserRepo:       userRepo,
		RoleRepo:       roleRepo,
		AuthService:    auth.NewService(userRepo, jwtService, cfg.Token.Type),
		AuthMiddleware: auth.NewMiddleware(jwtService, cfg.Token.Type),
		PolicyEngine:   policy.NewEngine(roleRepo),
	})

	return &fixture{
		server:     server,
		jwtService: jwtService,
		userRepo:   userRepo,
		adminID:    admin.ID,
		guestID:    guest.ID,
	}
}

func (f *fixture) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) tokenFor(t *testing.T, id int64, email string, authorities []string) string {
	t.Helper()
	token, err := f.jwtService.Generate(id, email, authorities)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func (f *fixture) adminToken(t *testing.T) string {
	return f.tokenFor(t, f.adminID, "root@gmail.com", []string{role.Administrator})
}

func (f *fixture) guestToken(t *testing.T) string {
	return f.tokenFor(t, f.guestID, "guest@example.com", []string{role.Guest})
}

type userResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Roles     []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"roles"`
}

func decodeUserResponse(t *testing.T, rec *httptest.ResponseRecorder) userResponse {
	t.Helper()
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestLoginIssuesGuestToken(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/users/login", "", `{"email":"guest@example.com","password":"guest pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Email     string `json:"email"`
		TokenType string `json:"token_type"`
		Token     string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q", resp.TokenType)
	}

	claims, err := f.jwtService.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token did not verify: %v", err)
	}
	if len(claims.Authorities) != 1 || claims.Authorities[0] != role.Guest {
		t.Errorf("authorities = %v, expected [Guest]", claims.Authorities)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/users/login", "", `{"email":"guest@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, expected 401", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "token") {
		t.Errorf("failed login leaked a token: %s", rec.Body.String())
	}
}

func TestLoginUnknownEmailSameOutcome(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/users/login", "", `{"email":"nobody@example.com","password":"guest pass"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, expected 401", rec.Code)
	}
}

func TestListUsersRequiresAdministrator(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusForbidden},
		{"guest", f.guestToken(t), http.StatusForbidden},
		{"admin", f.adminToken(t), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.request(t, http.MethodGet, "/users", tt.token, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestGetUserSelfOrAdmin(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		token  string
		target int64
		status int
	}{
		{"guest reads own record", f.guestToken(t), f.guestID, http.StatusOK},
		{"guest reads other record", f.guestToken(t), f.adminID, http.StatusForbidden},
		{"admin reads any record", f.adminToken(t), f.guestID, http.StatusOK},
		{"anonymous", "", f.guestID, http.StatusForbidden},
		{"admin reads missing record", f.adminToken(t), 999, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.request(t, http.MethodGet, fmt.Sprintf("/users/%d", tt.target), tt.token, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestCreateUserOpenRegistrationDefaultsToGuest(t *testing.T) {
	f := newFixture(t)

	body := `{"first_name":"New","last_name":"User","email":"new@example.com","password":"sekret"}`
	rec := f.request(t, http.MethodPost, "/users", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeUserResponse(t, rec)
	if len(resp.Roles) != 1 || resp.Roles[0].Name != role.Guest {
		t.Errorf("roles = %v, expected exactly Guest", resp.Roles)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaked password material: %s", rec.Body.String())
	}
}

func TestCreateUserAnonymousCannotAssignAdministrator(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"first_name":"Evil","last_name":"User","email":"evil@example.com","password":"sekret","roles":[{"id":%d}]}`, adminRoleID)
	rec := f.request(t, http.MethodPost, "/users", "", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, expected 403 (body %s)", rec.Code, rec.Body.String())
	}

	if _, err := f.userRepo.GetByEmail(context.Background(), "evil@example.com"); err == nil {
		t.Error("denied creation still persisted the user")
	}
}

func TestCreateUserGuestCannotAssignAdministrator(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"first_name":"Evil","last_name":"User","email":"evil@example.com","password":"sekret","roles":[{"id":%d}]}`, adminRoleID)
	rec := f.request(t, http.MethodPost, "/users", f.guestToken(t), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, expected 403 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestCreateUserAdminCanAssignAdministrator(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"first_name":"Second","last_name":"Admin","email":"admin2@example.com","password":"sekret","roles":[{"id":%d}]}`, adminRoleID)
	rec := f.request(t, http.MethodPost, "/users", f.adminToken(t), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeUserResponse(t, rec)
	if len(resp.Roles) != 1 || resp.Roles[0].Name != role.Administrator {
		t.Errorf("roles = %v, expected exactly Administrator", resp.Roles)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	body := `{"first_name":"Dup","last_name":"User","email":"guest@example.com","password":"sekret"}`
	rec := f.request(t, http.MethodPost, "/users", "", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, expected 409 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestCreateUserUnresolvableRolesFallBackToGuest(t *testing.T) {
	f := newFixture(t)

	body := `{"first_name":"New","last_name":"User","email":"new@example.com","password":"sekret","roles":[{"id":77},{"id":88}]}`
	rec := f.request(t, http.MethodPost, "/users", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeUserResponse(t, rec)
	if len(resp.Roles) != 1 || resp.Roles[0].Name != role.Guest {
		t.Errorf("roles = %v, expected exactly Guest", resp.Roles)
	}
}

func TestUpdateUserAdminWithNoRolesResetsToGuest(t *testing.T) {
	f := newFixture(t)

	body := `{"first_name":"Gus","last_name":"Guest","email":"guest@example.com","password":"new pass"}`
	rec := f.request(t, http.MethodPut, fmt.Sprintf("/users/%d", f.guestID), f.adminToken(t), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeUserResponse(t, rec)
	if len(resp.Roles) != 1 || resp.Roles[0].Name != role.Guest {
		t.Errorf("roles = %v, expected exactly Guest", resp.Roles)
	}

	stored, err := f.userRepo.GetByID(context.Background(), f.guestID)
	if err != nil {
		t.Fatalf("stored user missing: %v", err)
	}
	if len(stored.Roles) != 1 || stored.Roles[0].Name != role.Guest {
		t.Errorf("stored roles = %v, expected exactly Guest", stored.Roles)
	}
	if !password.Verify("new pass", stored.PasswordHash) {
		t.Error("password was not re-hashed from the request")
	}
}

func TestUpdateUserGuestCannotTouchOthers(t *testing.T) {
	f := newFixture(t)

	body := `{"first_name":"Root","last_name":"Admin","email":"root@gmail.com","password":"root"}`
	rec := f.request(t, http.MethodPut, fmt.Sprintf("/users/%d", f.adminID), f.guestToken(t), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, expected 403 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestUpdateUserGuestCannotSelfEscalate(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"first_name":"Gus","last_name":"Guest","email":"guest@example.com","password":"guest pass","roles":[{"id":%d}]}`, adminRoleID)
	rec := f.request(t, http.MethodPut, fmt.Sprintf("/users/%d", f.guestID), f.guestToken(t), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, expected 403 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		token  string
		target int64
		status int
	}{
		{"guest deletes other", f.guestToken(t), f.adminID, http.StatusForbidden},
		{"anonymous", "", f.guestID, http.StatusForbidden},
		{"admin deletes missing", f.adminToken(t), 999, http.StatusNotFound},
		{"guest deletes self", f.guestToken(t), f.guestID, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.request(t, http.MethodDelete, fmt.Sprintf("/users/%d", tt.target), tt.token, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestTamperedTokenIsAnonymous(t *testing.T) {
	f := newFixture(t)

	token := f.adminToken(t)
	tampered := token[:len(token)-3] + "xxx"

	rec := f.request(t, http.MethodGet, "/users", tampered, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, expected 403 for tampered token", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
