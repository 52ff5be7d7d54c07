package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bom-tracker/internal/config"
	"bom-tracker/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestSessions() *Sessions {
	return NewSessions(config.SessionConfig{
		Key:    []byte(strings.Repeat("s", 32)),
		Name:   "test-session",
		MaxAge: 3600,
	})
}

// cookiesFrom replays the Set-Cookie headers of rec onto a new request.
func cookiesFrom(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessions_LoginThenCurrentUser(t *testing.T) {
	s := newTestSessions()

	rec := httptest.NewRecorder()
	require.NoError(t, s.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil), 42))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	userID, ok := s.CurrentUser(cookiesFrom(rec))
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)
}

func TestSessions_LogoutExpiresCookie(t *testing.T) {
	s := newTestSessions()

	rec := httptest.NewRecorder()
	require.NoError(t, s.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil), 7))

	logoutRec := httptest.NewRecorder()
	require.NoError(t, s.Logout(logoutRec, cookiesFrom(rec)))

	cookies := logoutRec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)

	// logging out twice is harmless
	require.NoError(t, s.Logout(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/logout", nil)))
}

func TestSessions_TamperedCookieIsAnonymous(t *testing.T) {
	s := newTestSessions()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "forged"})

	_, ok := s.CurrentUser(req)
	assert.False(t, ok)
}

func TestRequireSession(t *testing.T) {
	s := newTestSessions()
	var seen int64
	h := s.RequireSession(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Unauthorized"`)

	loginRec := httptest.NewRecorder()
	require.NoError(t, s.Login(loginRec, httptest.NewRequest(http.MethodPost, "/api/login", nil), 9))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, cookiesFrom(loginRec))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(9), seen)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	ok, err := h.Verify(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("not-a-hash", "s3cret")
	assert.Error(t, err)
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).Cost)
}
