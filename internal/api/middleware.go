package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserIDKey      = "userID"
	ContextUserRoleKey    = "userRole"
	ContextAccessTokenKey = "accessToken"
)

// jwtClaims mirrors the access-token payload issued by the auth backend.
// The role lives in app_metadata.
type jwtClaims struct {
	AppMetadata struct {
		Role domain.Role `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token against the backend's JWT secret
// and stashes the principal in the request context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}
		if !token.Valid || claims.Subject == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Set(ContextUserRoleKey, claims.AppMetadata.Role)
		c.Set(ContextAccessTokenKey, tokenString)
		c.Next()
	}
}

// RoleMiddleware restricts a route to the given roles. Must run after
// AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleRaw, exists := c.Get(ContextUserRoleKey)
		if !exists {
			abortWithError(c, http.StatusInternalServerError, "User role not found in context")
			return
		}
		userRole, ok := roleRaw.(domain.Role)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Invalid user role type in context")
			return
		}

		for _, allowed := range allowedRoles {
			if userRole == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: role %q does not have permission", userRole))
	}
}

// CORSMiddleware answers preflight and tags responses for browser callers.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// fixedWindowScript counts requests per key atomically; the key expires with
// the window.
const fixedWindowScript = `
local current = redis.call('GET', KEYS[1])
if current == false then
	redis.call('SET', KEYS[1], 1, 'EX', ARGV[1])
	return 1
end
local count = tonumber(current)
if count >= tonumber(ARGV[2]) then
	return count + 1
end
return redis.call('INCR', KEYS[1])
`

// RateLimitMiddleware enforces a fixed-window per-IP limit backed by Redis.
// When Redis is unreachable requests pass through: the limiter protects the
// upstream providers, it is not an availability dependency.
func RateLimitMiddleware(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate:fw:%s:%s", c.Request.URL.Path, c.ClientIP())

		result, err := rdb.Eval(c.Request.Context(), fixedWindowScript, []string{key},
			int(window.Seconds()), maxRequests).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		count, _ := result.(int64)
		if count > int64(maxRequests) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			abortWithError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}

// getUserIDFromContext reads the principal id set by AuthMiddleware.
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	id, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return id, nil
}

// getAccessTokenFromContext reads the raw bearer token set by AuthMiddleware.
func getAccessTokenFromContext(c *gin.Context) (string, error) {
	raw, exists := c.Get(ContextAccessTokenKey)
	if !exists {
		return "", errors.New("access token not found in context")
	}
	token, ok := raw.(string)
	if !ok {
		return "", errors.New("invalid access token type in context")
	}
	return token, nil
}
