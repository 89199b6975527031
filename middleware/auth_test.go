package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret, role string, id uint, expiresIn time.Duration) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  float64(id),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/user-only", AuthMiddleware(testSecret), func(c *gin.Context) {
		id := c.MustGet("user_id").(uint)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	router.GET("/admin-only", AdminMiddleware(testSecret), func(c *gin.Context) {
		id := c.MustGet("admin_id").(uint)
		c.JSON(http.StatusOK, gin.H{"admin_id": id})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthTestRouter()

	do := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid user token", func(t *testing.T) {
		token := signTestToken(t, testSecret, RoleUser, 42, time.Hour)
		w := do("/user-only", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":42`)
	})

	t.Run("missing header", func(t *testing.T) {
		w := do("/user-only", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := do("/user-only", "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signTestToken(t, "other-secret", RoleUser, 42, time.Hour)
		w := do("/user-only", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, testSecret, RoleUser, 42, -time.Minute)
		w := do("/user-only", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user token on admin route", func(t *testing.T) {
		token := signTestToken(t, testSecret, RoleUser, 42, time.Hour)
		w := do("/admin-only", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin token on user route", func(t *testing.T) {
		token := signTestToken(t, testSecret, RoleAdmin, 7, time.Hour)
		w := do("/user-only", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("valid admin token", func(t *testing.T) {
		token := signTestToken(t, testSecret, RoleAdmin, 7, time.Hour)
		w := do("/admin-only", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"admin_id":7`)
	})
}
