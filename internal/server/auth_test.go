package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundtrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("admin")
	require.NoError(t, err)

	claims, err := parseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "phigate", claims.Issuer)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	SetJWTSecret("secret-a")
	token, err := GenerateJWT("admin")
	require.NoError(t, err)

	SetJWTSecret("secret-b")
	_, err = parseJWT(token)
	assert.Error(t, err)
}

func TestAdminPassword(t *testing.T) {
	require.NoError(t, SetAdminCredentials("admin", "hunter2"))

	assert.True(t, checkAdminPassword("admin", "hunter2"))
	assert.False(t, checkAdminPassword("admin", "wrong"))
	assert.False(t, checkAdminPassword("someone", "hunter2"))
}

func TestLoginHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetJWTSecret("test-secret")
	require.NoError(t, SetAdminCredentials("admin", "hunter2"))

	engine := gin.New()
	engine.POST("/api/login", handleLogin)

	t.Run("valid credentials", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/login",
			`{"username":"admin","password":"hunter2"}`)
		require.Equal(t, http.StatusOK, w.Code)

		out := decode(t, w)
		assert.NotEmpty(t, out["token"])
		assert.Equal(t, "Bearer", out["type"])

		claims, err := parseJWT(out["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/login",
			`{"username":"admin","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/login", `{"username":"admin"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetJWTSecret("test-secret")

	engine := gin.New()
	engine.GET("/protected", JWTMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("username")})
	})

	do := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("").Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("token-without-scheme").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Bearer not.a.jwt").Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateJWT("admin")
		require.NoError(t, err)

		w := do("Bearer " + token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "admin"))
	})
}
