package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-be/internal/controllers"
	"taskboard-be/internal/jwt"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/password"
	"taskboard-be/internal/repository/repotest"
	"taskboard-be/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine *gin.Engine
	users  *repotest.UserStore
	tasks  *repotest.TaskStore
}

func newTestServer(t *testing.T, tweak func(*Options)) *testServer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := repotest.NewUserStore()
	tasks := repotest.NewTaskStore()
	tokens := jwt.NewJWTService("router-secret")
	m := metrics.New()

	authSvc := service.NewAuthService(users, tokens, password.NewHasher(4),
		service.TokenTTLs{Signup: time.Hour, Login: 672 * time.Hour}, logger, m)
	taskSvc := service.NewTaskService(tasks, nil, 0, logger, m)

	opts := Options{
		AuthController: controllers.NewAuthController(authSvc),
		TaskController: controllers.NewTaskController(taskSvc),
		Verifier:       tokens,
		AuthHeader:     "Authorization",
		Logger:         logger,
		Metrics:        m,
	}
	if tweak != nil {
		tweak(&opts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testServer{engine: New(ctx, opts), users: users, tasks: tasks}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) signup(t *testing.T, name, email, pass string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"name": name, "email": email, "password": pass})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["success"])
	token, _ := body["authtoken"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "Ann", "ann@x.com", "secret1")

	w := s.do(t, http.MethodPost, "/tasks", token, gin.H{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "Buy milk", created["title"])
	assert.Equal(t, "To-Do", created["status"])
	taskID, _ := created["id"].(string)
	require.NotEmpty(t, taskID)

	w = s.do(t, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, taskID, list[0]["id"])

	w = s.do(t, http.MethodDelete, "/tasks/"+taskID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task has been deleted", decode[map[string]any](t, w)["success"])

	w = s.do(t, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestUpdateTaskOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "Ann", "ann@x.com", "secret1")

	w := s.do(t, http.MethodPost, "/tasks", token, gin.H{"title": "X", "priority": "High", "user": "someone-else"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]any](t, w)
	taskID := created["id"].(string)
	owner := created["user"]

	w = s.do(t, http.MethodPut, "/tasks/"+taskID, token, gin.H{"status": "Finished", "user": "someone-else", "id": "other"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[map[string]any](t, w)
	assert.Equal(t, "X", updated["title"])
	assert.Equal(t, "Finished", updated["status"])
	assert.Equal(t, "High", updated["priority"])
	assert.Equal(t, taskID, updated["id"])
	assert.Equal(t, owner, updated["user"])

	w = s.do(t, http.MethodPut, "/tasks/"+taskID, token, gin.H{"status": "Done"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgInvalidStatus, decode[map[string]any](t, w)["error"])

	w = s.do(t, http.MethodPut, "/tasks/"+taskID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	ann := s.signup(t, "Ann", "ann@x.com", "secret1")
	bob := s.signup(t, "Bob", "bob@x.com", "secret2")

	w := s.do(t, http.MethodPost, "/tasks", ann, gin.H{"title": "private"})
	require.Equal(t, http.StatusCreated, w.Code)
	taskID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodGet, "/tasks", bob, nil)
	assert.JSONEq(t, "[]", w.Body.String())

	w = s.do(t, http.MethodPut, "/tasks/"+taskID, bob, gin.H{"title": "mine now"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", decode[map[string]any](t, w)["error"])

	w = s.do(t, http.MethodDelete, "/tasks/"+taskID, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/tasks/not-a-uuid", ann, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	s.signup(t, "Ann", "ann@x.com", "secret1")

	w := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"name": "Ann2", "email": "ann@x.com", "password": "other1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Sorry, a user with this email already exists", decode[map[string]any](t, w)["error"])

	wrongPass := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ann@x.com", "password": "nope!"})
	unknown := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "who@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, wrongPass.Code)
	assert.Equal(t, wrongPass.Code, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ann@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]any](t, w)["authtoken"].(string)

	w = s.do(t, http.MethodGet, "/auth/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[map[string]any](t, w)
	assert.Equal(t, "Ann", profile["name"])
	assert.Equal(t, "ann@x.com", profile["email"])
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPut, "/auth/change-password", token, gin.H{"email": "ann@x.com", "newPassword": "fresh-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Password changed successfully"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ann@x.com", "password": "fresh-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidationMessages(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		path string
		body any
		msg  string
	}{
		{"short name", "/auth/signup", gin.H{"name": "An", "email": "a@x.io", "password": "secret1"}, service.MsgInvalidName},
		{"bad email", "/auth/signup", gin.H{"name": "Ann", "email": "nope", "password": "secret1"}, service.MsgInvalidEmail},
		{"short password", "/auth/signup", gin.H{"name": "Ann", "email": "a@x.io", "password": "123"}, service.MsgShortPassword},
		{"login missing password", "/auth/login", gin.H{"email": "a@x.io"}, service.MsgMissingCredentials},
		{"malformed json", "/auth/login", `{"email":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, "", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[map[string]any](t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.msg, body["error"])
		})
	}

	token := s.signup(t, "Ann", "ann@x.com", "secret1")
	w := s.do(t, http.MethodPost, "/tasks", token, gin.H{"description": "no title"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgTitleRequired, decode[map[string]any](t, w)["error"])

	w = s.do(t, http.MethodPost, "/tasks", token, gin.H{"title": "t", "status": "Someday"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgInvalidStatus, decode[map[string]any](t, w)["error"])

	w = s.do(t, http.MethodPost, "/auth/change-password", token, gin.H{"email": "ann@x.com", "newPassword": "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgShortNewPassword, decode[map[string]any](t, w)["error"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/auth/user"},
		{http.MethodPost, "/auth/change-password"},
	} {
		w := s.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
		assert.Equal(t, "Please authenticate using a valid token", decode[map[string]any](t, w)["error"])
	}

	w := s.do(t, http.MethodGet, "/tasks", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode[map[string]any](t, w)["error"])
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "Ann", "ann@x.com", "secret1")
	s.tasks.Fail = true

	w := s.do(t, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error occurred"}`, w.Body.String())
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.RateLimitAuthRPS = 0.001
		o.RateLimitAuthBurst = 1
	})

	w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.io", "password": "whatever"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.io", "password": "whatever"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taskboard_http_requests_total")
}
