package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creditdesk/models"
	"creditdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func perform(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", Auth(testSecret), func(c *gin.Context) {
		userID, email, err := GetUserFromContext(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"id": userID, "email": email})
	})

	token, expires, err := GenerateToken(testSecret, time.Hour, "u1", "u1@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	w := perform(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "garbage").Code)

	foreign, _, err := GenerateToken("other-secret", time.Hour, "u1", "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", foreign).Code)

	expired, _, err := GenerateToken(testSecret, -time.Minute, "u1", "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", expired).Code)
}

type fakeChecker struct {
	granted map[string]bool
	err     error
	calls   []string
}

func (f *fakeChecker) HasPermission(_ context.Context, userID, action, model string) (bool, error) {
	codename := models.PermissionCodename(action, model)
	f.calls = append(f.calls, codename)
	return f.granted[userID+":"+codename], f.err
}

func TestRequirePermissionMapsMethods(t *testing.T) {
	checker := &fakeChecker{granted: map[string]bool{
		"u1:view_credit":   true,
		"u1:change_credit": true,
	}}

	r := gin.New()
	group := r.Group("/credits", Auth(testSecret), RequirePermission(checker, models.ModelCredit))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	group.GET("", ok)
	group.POST("", ok)
	group.PUT("/1", ok)
	group.PATCH("/1", ok)
	group.DELETE("/1", ok)

	token, _, err := GenerateToken(testSecret, time.Hour, "u1", "u1@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/credits", token).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodPost, "/credits", token).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPut, "/credits/1", token).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPatch, "/credits/1", token).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodDelete, "/credits/1", token).Code)

	assert.Equal(t, []string{"view_credit", "add_credit", "change_credit", "change_credit", "delete_credit"}, checker.calls)

	checker.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, perform(r, http.MethodGet, "/credits", token).Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodGet, "/ping", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	}

	w := perform(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
	assert.NotContains(t, w.Body.String(), "pong")
}

func TestRequestIDAndRecovery(t *testing.T) {
	var logs strings.Builder
	utils.SetOutput(&logs)

	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := perform(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, logs.String(), "panic recovered")

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Body.String())
	assert.Equal(t, "fixed-id", rec.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://desk.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://desk.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddleware(t *testing.T) {
	m := utils.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/credits/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/credits/7", "")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `creditdesk_http_requests_total{code="200",method="GET",route="/credits/:id"} 1`)
}
