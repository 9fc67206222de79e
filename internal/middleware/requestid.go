package middleware

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/yukikurage/project-management-api/internal/constants"
)

const requestIDKey = constants.ContextKeyRequestID

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewRequestID returns a lexicographically sortable request identifier
func NewRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RequestID reuses an incoming X-Request-ID or mints a new one, and echoes it back
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = NewRequestID()
		}
		c.Set(requestIDKey, id)
		c.Header(constants.RequestIDHeader, id)
		c.Next()
	}
}
