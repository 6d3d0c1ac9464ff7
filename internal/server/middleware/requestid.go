package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the header the request id travels in, both directions.
const HeaderRequestID = "X-Request-Id"

// ContextRequestID is the gin context key the id is stored under for
// downstream handlers and the request logger.
const ContextRequestID = "request_id"

// RequestID tags each request with an id for log correlation. A caller-sent
// id is kept so ids stay stable across proxies; otherwise a fresh UUID is
// minted. The id is echoed back in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
