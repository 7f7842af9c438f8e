package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nbthub-com/project-manager/internal/auth"
	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
	_ "github.com/nbthub-com/project-manager/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

// commitWriter mirrors the production session middleware: the session is
// committed right before the first header write so Set-Cookie lands on the
// response.
type commitWriter struct {
	http.ResponseWriter
	sess          *shared.Session
	manager       *shared.SessionManager
	ctx           context.Context
	req           *http.Request
	headerWritten bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		_ = w.manager.Commit(w.ctx, w.ResponseWriter, w.req, w.sess)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// newAuthRouter mounts the auth handler behind a session-loading middleware,
// mirroring the production chain minus CSRF and rate limiting.
func newAuthRouter(t *testing.T, repo *stubRepo) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			wrapped := &commitWriter{
				ResponseWriter: w,
				sess:           sess,
				manager:        sessionManager,
				ctx:            ctx,
				req:            req.WithContext(ctx),
			}
			next.ServeHTTP(wrapped, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	return r, sessionManager
}

func activeUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           7,
		Name:         "Bob",
		Email:        "bob@test.local",
		PasswordHash: string(hashed),
		Role:         authz.RoleUser,
		IsActive:     true,
	}
}

func TestLogin(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	router, _ := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"bob@test.local","password":"correctpass"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.ID)
	assert.Equal(t, "user", body.Role)

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies, "login sets the session cookie")
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.Len(t, repo.sessions, 1, "login row recorded for audit")
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	router, _ := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"bob@test.local","password":"wrongpass"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "Unauthenticated")
	assert.Empty(t, repo.sessions)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "correctpass")
	user.IsActive = false
	router, _ := newAuthRouter(t, &stubRepo{user: user})

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"bob@test.local","password":"correctpass"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogout(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correctpass")}
	router, sessionManager := newAuthRouter(t, repo)

	login := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"bob@test.local","password":"correctpass"}`))
	login.Header.Set("Content-Type", "application/json")
	loginRes := httptest.NewRecorder()
	router.ServeHTTP(loginRes, login)
	require.Equal(t, http.StatusOK, loginRes.Code)
	cookies := loginRes.Result().Cookies()
	require.NotEmpty(t, cookies)

	logout := httptest.NewRequest(http.MethodPost, "/logout", nil)
	logout.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: cookies[0].Value})
	logoutRes := httptest.NewRecorder()
	router.ServeHTTP(logoutRes, logout)

	assert.Equal(t, http.StatusOK, logoutRes.Code)
	assert.Empty(t, repo.sessions, "login audit row removed")
}
