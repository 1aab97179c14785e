package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/domain"
)

const (
	userIDHeader   = "X-User-ID"
	userRoleHeader = "X-User-Role"
	callerKey      = "caller"
)

// CallerMiddleware reads the caller identity set by the upstream gateway.
// Requests without a valid identity proceed anonymously.
func CallerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(userIDHeader))
		role := domain.Role(strings.ToUpper(strings.TrimSpace(c.GetHeader(userRoleHeader))))
		if id != "" && role.Valid() {
			c.Set(callerKey, domain.Caller{ID: id, Role: role})
		}
		c.Next()
	}
}

// CallerFrom returns the caller stored by CallerMiddleware.
func CallerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RequireCaller rejects anonymous requests.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CallerFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "caller identity required",
				Code:  "UNAUTHENTICATED",
			})
			return
		}
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "caller identity required",
				Code:  "UNAUTHENTICATED",
			})
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{
			Error: "role " + string(caller.Role) + " may not perform this action",
			Code:  "FORBIDDEN",
		})
	}
}

// CORSMiddleware allows browser clients from any origin.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key, X-User-ID, X-User-Role")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
