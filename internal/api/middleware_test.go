package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/auth"
	"gitlab.com/yelinaung/po-tracker/internal/config"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(s *Server, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{s.authMiddleware(), staffOnlyWrites()}, extra...)
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/ping", append(handlers, ok)...)
	r.POST("/ping", append(handlers, ok)...)
	return r
}

func bearerFor(t *testing.T, secret string, role models.Role) string {
	t.Helper()
	user := &models.User{ID: "u-1", Name: "Test", Role: role}
	token, err := auth.GenerateToken([]byte(secret), user)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()
	s := &Server{cfg: &config.Config{JWTSecret: "test-secret"}}
	r := testRouter(s)

	do := func(method, authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/ping", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token passes", func(t *testing.T) {
		t.Parallel()
		w := do(http.MethodGet, bearerFor(t, "test-secret", models.RoleDirector))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "").Code)
	})

	t.Run("non-bearer header rejected", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "Basic abc").Code)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		t.Parallel()
		w := do(http.MethodGet, bearerFor(t, "other-secret", models.RoleDirector))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("guest may read but not write", func(t *testing.T) {
		t.Parallel()
		token := bearerFor(t, "test-secret", models.RoleGuest)
		require.Equal(t, http.StatusOK, do(http.MethodGet, token).Code)
		require.Equal(t, http.StatusForbidden, do(http.MethodPost, token).Code)
	})

	t.Run("staff may write", func(t *testing.T) {
		t.Parallel()
		token := bearerFor(t, "test-secret", models.RolePurchaser)
		require.Equal(t, http.StatusOK, do(http.MethodPost, token).Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	s := &Server{cfg: &config.Config{JWTSecret: "test-secret"}}
	r := testRouter(s, requireRole(models.RoleAdmin, models.RolePurchaser))

	do := func(role models.Role) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", bearerFor(t, "test-secret", role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, do(models.RoleAdmin))
	require.Equal(t, http.StatusOK, do(models.RolePurchaser))
	require.Equal(t, http.StatusForbidden, do(models.RoleDirector))
	require.Equal(t, http.StatusForbidden, do(models.RoleGuest))
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.NewValidationError("bad input"), http.StatusBadRequest},
		{"wrapped permission denied", fmt.Errorf("outer: %w", apperr.ErrPermissionDenied), http.StatusForbidden},
		{"not found", fmt.Errorf("po x: %w", apperr.ErrNotFound), http.StatusNotFound},
		{"invalid transition", &apperr.InvalidTransitionError{From: models.StatusDraft, Requested: models.StatusApproved}, http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
			writeError(c, tc.err)
			require.Equal(t, tc.want, w.Code)
		})
	}
}
