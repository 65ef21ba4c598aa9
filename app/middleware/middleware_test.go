package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct{}

func (stubVerifier) ParseToken(token string) (string, error) {
	if token == "good" {
		return "user-1", nil
	}
	return "", errors.New("invalid or expired token")
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(stubVerifier{}, false), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/stream", JWTAuth(stubVerifier{}, true), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing", path: "/me", want: http.StatusUnauthorized},
		{name: "invalid", path: "/me", header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "valid", path: "/me", header: "Bearer good", want: http.StatusOK},
		{name: "query not accepted", path: "/me?token=good", want: http.StatusUnauthorized},
		{name: "query on stream", path: "/stream?token=good", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := perform(r, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "user-1", w.Body.String())
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	disabled := gin.New()
	disabled.GET("/admin", APIKeyAuth(""), ok)
	assert.Equal(t, http.StatusForbidden, perform(disabled, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)

	r := gin.New()
	r.GET("/admin", APIKeyAuth("secret"), ok)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, perform(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, perform(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, perform(r, req).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	defer rl.Stop()

	r := gin.New()
	r.POST("/auth/register", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		assert.Equal(t, http.StatusCreated, perform(r, req).Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := perform(r, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1200", w.Header().Get("Retry-After"))

	// other clients have their own bucket
	req = httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusCreated, perform(r, req).Code)
	assert.Equal(t, 2, rl.Count())
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), CORS([]string{"https://app.example.com/"}))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := perform(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = perform(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	assert.Equal(t, http.StatusNoContent, perform(r, req).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), Logger())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Request-ID", "req-panic")
	w := perform(r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"request_id":"req-panic"`)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.c","password":"Secret123"}`))
	req.Header.Set("X-Request-ID", "req-1")
	w := perform(r, req)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func TestMaskSecrets(t *testing.T) {
	body := CompressBody(`{ "email": "a@b.c", "password": "Secret123", "code":"A1B2C3D4" }`)
	masked := MaskSecrets(body)
	assert.NotContains(t, masked, "Secret123")
	assert.NotContains(t, masked, "A1B2C3D4")
	assert.Contains(t, masked, `"email":"a@b.c"`)
}
