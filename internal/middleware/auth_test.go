package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

// signToken builds a signed HS256 token with the given claims.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

func authRouter() *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Auth(testSecret))
	router.GET("/test", func(c *gin.Context) {
		c.String(200, GetActorID(c)+":"+GetActorRole(c))
	})
	return router
}

// TestAuth tests the Auth middleware
func TestAuth(t *testing.T) {
	t.Run("accepts a valid token", func(t *testing.T) {
		router := authRouter()

		token := signToken(t, jwt.MapClaims{
			"sub":  "user-1",
			"role": "admin",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 200 {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "user-1:admin" {
			t.Errorf("Expected actor user-1:admin, got %s", w.Body.String())
		}
	})

	t.Run("defaults role to operator when claim is absent", func(t *testing.T) {
		router := authRouter()

		token := signToken(t, jwt.MapClaims{
			"sub": "user-2",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Body.String() != "user-2:operator" {
			t.Errorf("Expected default operator role, got %s", w.Body.String())
		}
	})

	t.Run("rejects a missing authorization header", func(t *testing.T) {
		router := authRouter()

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 401 {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
			t.Error("Expected UNAUTHORIZED error code in response")
		}
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		router := authRouter()

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 401 {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})

	t.Run("rejects a token signed with the wrong secret", func(t *testing.T) {
		router := authRouter()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("other-secret"))
		if err != nil {
			t.Fatalf("Failed to sign test token: %v", err)
		}

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 401 {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		router := authRouter()

		token := signToken(t, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 401 {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		router := authRouter()

		token := signToken(t, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 401 {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})
}

// TestRequireRole tests the RequireRole middleware
func TestRequireRole(t *testing.T) {
	setup := func(roles ...string) *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.Use(Auth(testSecret))
		router.POST("/admin", RequireRole(roles...), func(c *gin.Context) {
			c.String(200, "OK")
		})
		return router
	}

	t.Run("allows a matching role", func(t *testing.T) {
		router := setup("admin")

		token := signToken(t, jwt.MapClaims{
			"sub":  "user-1",
			"role": "admin",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest("POST", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 200 {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("rejects a non-matching role", func(t *testing.T) {
		router := setup("admin")

		token := signToken(t, jwt.MapClaims{
			"sub":  "user-1",
			"role": "operator",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest("POST", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 403 {
			t.Errorf("Expected status 403, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "FORBIDDEN") {
			t.Error("Expected FORBIDDEN error code in response")
		}
	})

	t.Run("allows any of multiple roles", func(t *testing.T) {
		router := setup("admin", "supervisor")

		token := signToken(t, jwt.MapClaims{
			"sub":  "user-1",
			"role": "supervisor",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest("POST", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 200 {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})
}
