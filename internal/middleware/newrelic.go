package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicCaller tags the New Relic transaction started by nrgin with the
// caller identity and records handler errors. Must run after nrgin and
// CallerMiddleware.
func NewRelicCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if caller, ok := CallerFrom(c); ok {
			txn.AddAttribute("caller.id", caller.ID)
			txn.AddAttribute("caller.role", string(caller.Role))
		}

		c.Next()

		for _, e := range c.Errors {
			txn.NoticeError(e.Err)
		}
	}
}
