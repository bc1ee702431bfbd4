package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shopcart/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func newAuthedEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("", AuthJWT(config.Config{JWTSecret: testSecret}))
	g.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"user_id": c.Get(CtxUserIDKey),
			"role":    c.Get(CtxUserRoleKey),
		})
	})
	a := e.Group("/admin", AuthJWT(config.Config{JWTSecret: testSecret}), AdminRoleGuard())
	a.GET("", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return e
}

func do(e *echo.Echo, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthJWT(t *testing.T) {
	e := newAuthedEcho()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "1", "exp": exp}), http.StatusUnauthorized},
		{"wrong alg", "Bearer " + sign(t, jwt.SigningMethodHS384, []byte(testSecret), jwt.MapClaims{"sub": "1", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"bad sub", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "abc", "exp": exp}), http.StatusUnauthorized},
		{"ok string sub", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "7", "exp": exp}), http.StatusOK},
		{"ok numeric sub", "bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": 7, "role": "ADMIN", "exp": exp}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, "/me", tt.authz)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"unauthorized","error":"unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestAuthJWT_SetsContext(t *testing.T) {
	e := newAuthedEcho()
	tok := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "42"})

	rec := do(e, "/me", "Bearer "+tok)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"USER"}`, rec.Body.String())
}

func TestAdminRoleGuard(t *testing.T) {
	e := newAuthedEcho()

	user := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "1", "role": "USER"})
	admin := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "2", "role": "ADMIN"})

	assert.Equal(t, http.StatusUnauthorized, do(e, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, do(e, "/admin", "Bearer "+user).Code)
	assert.Equal(t, http.StatusNoContent, do(e, "/admin", "Bearer "+admin).Code)
}

func TestAdminRoleGuard_WithoutAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, AdminRoleGuard())

	assert.Equal(t, http.StatusUnauthorized, do(e, "/x", "").Code)
}

type recordedRequest struct {
	route  string
	status string
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (f *fakeRecorder) ObserveRequest(route string, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedRequest{route, status})
}

func TestRequestLogger(t *testing.T) {
	rec := &fakeRecorder{}
	e := echo.New()
	e.Use(RequestLogger(zap.NewNop(), rec))
	e.GET("/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	r1 := do(e, "/items/5", "")
	assert.Equal(t, http.StatusOK, r1.Code)
	assert.NotEmpty(t, r1.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(HeaderRequestID, "fixed-id")
	r2 := httptest.NewRecorder()
	e.ServeHTTP(r2, req)
	assert.Equal(t, http.StatusInternalServerError, r2.Code)
	assert.Equal(t, "fixed-id", r2.Header().Get(HeaderRequestID))

	assert.Equal(t, []recordedRequest{
		{route: "/items/:id", status: "200"},
		{route: "/boom", status: "500"},
	}, rec.seen)
}
