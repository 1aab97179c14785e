package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/logger"
	"cabbooking/internal/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the recorded response when a mutating request
// repeats an Idempotency-Key. Keys are scoped to the caller and route, so two
// riders cannot collide. A nil store disables replay.
func IdempotencyMiddleware(store redis.IdempotencyStoreInterface, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		scoped := scopeKey(c, key)

		data, err := store.Get(ctx, scoped)
		if err != nil {
			// Store unavailable; serve the request without replay protection.
			log.Warn("idempotency lookup failed", logger.String("key", key), logger.Err(err))
			c.Next()
			return
		}

		if data != nil {
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				for k, v := range cached.Headers {
					for _, val := range v {
						c.Header(k, val)
					}
				}
				c.Header("Idempotent-Replayed", "true")
				c.Data(cached.StatusCode, "application/json", cached.Body)
				c.Abort()
				return
			}
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are not recorded so the client can retry.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 500 {
			payload, err := json.Marshal(cachedResponse{
				StatusCode: c.Writer.Status(),
				Body:       w.body.Bytes(),
				Headers:    extractResponseHeaders(c),
			})
			if err != nil {
				return
			}
			if err := store.Set(ctx, scoped, payload, idempotencyTTL); err != nil {
				log.Warn("idempotency record failed", logger.String("key", key), logger.Err(err))
			}
		}
	}
}

func scopeKey(c *gin.Context, key string) string {
	owner := "anonymous"
	if caller, ok := CallerFrom(c); ok {
		owner = caller.ID
	}
	return owner + ":" + c.Request.Method + ":" + c.FullPath() + ":" + c.Param("id") + ":" + key
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
