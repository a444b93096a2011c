package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-archive/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func newTestRouter(m *Middleware, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{m.JWTAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/admin/ping", handlers...)
	return r
}

func bearer(t *testing.T, userID uint, role model.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role, []byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestJWTAuthAndAdminAuth(t *testing.T) {
	require.NoError(t, idgen.InitSqidsEncoder())
	m := NewMiddleware(testSecret)
	r := newTestRouter(m, m.AdminAuth())

	tests := []struct {
		name     string
		header   string
		want     int
		wantKind string
	}{
		{"未携带Token", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"格式错误", "Token abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"签名错误", "Bearer abc.def.ghi", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"普通用户", bearer(t, 2, model.RoleUser), http.StatusForbidden, "FORBIDDEN"},
		{"管理员", bearer(t, 1, model.RoleAdmin), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.wantKind != "" {
				var body response.Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantKind, body.Kind)
			}
		})
	}
}

func TestArchiveRateLimitPerCaller(t *testing.T) {
	require.NoError(t, idgen.InitSqidsEncoder())
	m := NewMiddleware(testSecret)
	r := newTestRouter(m, ArchiveRateLimit(1, 2))

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	alice := bearer(t, 1, model.RoleAdmin)
	assert.Equal(t, http.StatusOK, do(alice))
	assert.Equal(t, http.StatusOK, do(alice))
	assert.Equal(t, http.StatusTooManyRequests, do(alice))

	// 其他调用者不受影响
	assert.Equal(t, http.StatusOK, do(bearer(t, 2, model.RoleAdmin)))
}

func TestKeyRateLimiterSweep(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		at          time.Duration
		wantRemoved int
		wantLeft    []string
	}{
		{name: "都未闲置", at: 5 * time.Minute, wantRemoved: 0, wantLeft: []string{"ip:1.1.1.1", "user:1"}},
		{name: "只清理闲置条目", at: 12 * time.Minute, wantRemoved: 1, wantLeft: []string{"user:1"}},
		{name: "全部闲置", at: time.Hour, wantRemoved: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newKeyRateLimiter(60, 1)
			l.allow("ip:1.1.1.1", base)
			l.allow("user:1", base.Add(5*time.Minute))

			// 请求路径上不做清理
			l.allow("user:1", base.Add(5*time.Minute))
			require.Len(t, l.limiters, 2)

			assert.Equal(t, tt.wantRemoved, l.sweep(base.Add(tt.at)))
			var left []string
			for k := range l.limiters {
				left = append(left, k)
			}
			sort.Strings(left)
			assert.Equal(t, tt.wantLeft, left)
		})
	}
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/api/boom", func(c *gin.Context) { panic("pq: connection refused") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL", body.Kind)
	assert.Equal(t, constant.ErrInternalServer.Error(), body.Message)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestCorsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Cors())
	r.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/x", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
