package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courier/internal/database"
	"courier/internal/handlers"
	"courier/internal/middleware"
	"courier/internal/models"
	"courier/internal/repositories"
	"courier/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	app   *fiber.App
	users repositories.UserRepository
	roles repositories.RoleRepository
}

// setupApp builds the full API over an isolated in-memory sqlite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Open("sqlite", dsn, "silent")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	userRepo := repositories.NewGORMUserRepository(db)
	roleRepo := repositories.NewGORMRoleRepository(db)
	messageRepo := repositories.NewGORMMessageRepository(db)
	require.NoError(t, roleRepo.EnsureDefaults())

	auditor := services.NewAuditor(nil, "courier.audit", log)
	authService := services.NewAuthService(userRepo, roleRepo, "test_jwt_secret", time.Hour, log)
	messageService := services.NewMessageService(userRepo, messageRepo, auditor, log)
	userService := services.NewUserService(userRepo, roleRepo, auditor, log)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService, log).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService, log))
	handlers.NewMessageHandler(messageService, log).RegisterRoutes(protected)
	handlers.NewUserHandler(userService, log).RegisterRoutes(protected)

	return &testEnv{app: app, users: userRepo, roles: roleRepo}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) signUp(t *testing.T, username string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     username,
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decode(t, resp, &loginResp)
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func (e *testEnv) grant(t *testing.T, username string, role models.RoleName) {
	t.Helper()
	u, err := e.users.GetByUsername(username)
	require.NoError(t, err)
	r, err := e.roles.GetByName(role)
	require.NoError(t, err)
	u.Roles = append(u.Roles, *r)
	require.NoError(t, e.users.Update(u))
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp struct {
		Message string          `json:"message"`
		User    models.UserInfo `json:"user"`
	}
	decode(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp.Message)
	assert.Equal(t, []models.RoleName{models.RoleUser}, registerResp.User.Roles)

	// Duplicate registration, differing only in case.
	userToRegister["username"] = "TESTUSER"
	userToRegister["email"] = "other@example.com"
	resp = env.do(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessageEndpointsWithoutAuth(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodGet, "/api/v1/message/allmessages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/message/send", "", map[string]string{"message": "hi", "receiver": "bob"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/users", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessageFlow(t *testing.T) {
	env := setupApp(t)
	alice := env.signUp(t, "alice")
	bob := env.signUp(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/v1/message/send", alice, map[string]string{"message": "hi", "receiver": "BOB"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sendResp struct {
		Success bool   `json:"success"`
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	decode(t, resp, &sendResp)
	assert.True(t, sendResp.Success)
	assert.Equal(t, "Message sent successfully", sendResp.Message)

	want := []models.MessagePayload{{ID: sendResp.ID, Message: "hi", Sender: "alice", Receiver: "bob"}}

	for _, call := range []struct {
		token, path string
	}{
		{alice, "/api/v1/message/sentmessages"},
		{bob, "/api/v1/message/receivedmessages"},
		{alice, "/api/v1/message/allmessages"},
		{bob, "/api/v1/message/allmessages"},
	} {
		resp = env.do(t, http.MethodGet, call.path, call.token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, call.path)
		var got []models.MessagePayload
		decode(t, resp, &got)
		assert.Equal(t, want, got, call.path)
	}

	resp = env.do(t, http.MethodPost, "/api/v1/message/send", alice, map[string]string{"message": "hi", "receiver": "nobody"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/message/send", alice, map[string]string{"receiver": "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Privileged listings are closed to plain users.
	resp = env.do(t, http.MethodGet, "/api/v1/message/sentmessages/alice", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Delete: unknown id, then bob deletes alice's message.
	resp = env.do(t, http.MethodPost, "/api/v1/message/deletemessage/9999", bob, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/v1/message/deletemessage/abc", bob, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/message/deletemessage/%d", sendResp.ID), bob, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/message/allmessages", alice, nil)
	var after []models.MessagePayload
	decode(t, resp, &after)
	assert.Empty(t, after)
}

func TestPrivilegedEndpoints(t *testing.T) {
	env := setupApp(t)
	alice := env.signUp(t, "alice")
	env.signUp(t, "bob")
	admin := env.signUp(t, "admin")
	env.grant(t, "admin", models.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/v1/message/updatemessage", alice, models.MessagePayload{ID: 5, Message: "x", Sender: "alice", Receiver: "bob"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/message/updatemessage", admin, models.MessagePayload{ID: 5, Message: "planted", Sender: "alice", Receiver: "bob"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/message/updatemessage", admin, models.MessagePayload{ID: 5, Message: "x", Sender: "ghost", Receiver: "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/message/receivedmessages/bob", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var received []models.MessagePayload
	decode(t, resp, &received)
	assert.Equal(t, []models.MessagePayload{{ID: 5, Message: "planted", Sender: "alice", Receiver: "bob"}}, received)

	resp = env.do(t, http.MethodGet, "/api/v1/message/sentmessages/no-such-user", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var none []models.MessagePayload
	decode(t, resp, &none)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	// Role administration.
	bobUser, err := env.users.GetByUsername("bob")
	require.NoError(t, err)
	god, err := env.roles.GetByName(models.RoleGod)
	require.NoError(t, err)

	resp = env.do(t, http.MethodPost, "/api/v1/users/addrole", alice, models.RoleAssignment{UserID: bobUser.ID, RoleID: god.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/users/addrole", admin, models.RoleAssignment{UserID: 0, RoleID: god.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/users/addrole", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/users/addrole", admin, models.RoleAssignment{UserID: 9999, RoleID: god.ID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/users/addrole", admin, models.RoleAssignment{UserID: bobUser.ID, RoleID: god.ID})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/users/rolelist", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var infos []models.UserInfo
	decode(t, resp, &infos)
	require.Len(t, infos, 3)
	assert.ElementsMatch(t, []models.RoleName{models.RoleUser, models.RoleGod}, infos[1].Roles)

	resp = env.do(t, http.MethodPost, "/api/v1/users/deleterole", admin, models.RoleAssignment{UserID: bobUser.ID, RoleID: god.ID})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reloaded, err := env.users.GetByID(bobUser.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.HasRole(models.RoleGod))

	resp = env.do(t, http.MethodGet, "/api/v1/users/rolelist", alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUserEndpoints(t *testing.T) {
	env := setupApp(t)
	alice := env.signUp(t, "alice")
	env.signUp(t, "bob")

	resp := env.do(t, http.MethodGet, "/api/v1/users", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var names []string
	decode(t, resp, &names)
	assert.Equal(t, []string{"alice", "bob"}, names)

	resp = env.do(t, http.MethodGet, "/api/v1/users/about/me", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.UserInfo
	decode(t, resp, &me)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, []models.RoleName{models.RoleUser}, me.Roles)
}
