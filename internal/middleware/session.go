package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/propmap/internal/services"
)

const (
	// SessionKey is the context key for the dashboard session
	SessionKey = "session"
	// SessionIDHeader carries the session ID in both directions
	SessionIDHeader = "X-Session-ID"
)

// SessionStore resolves or creates sessions.
type SessionStore interface {
	GetOrCreate(ctx context.Context, id string) (*services.Session, bool, error)
}

// Session attaches the caller's session to the context, creating one when
// the X-Session-ID header is absent or unknown. The ID in use is always
// echoed back in the response header.
func Session(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.GetHeader(SessionIDHeader)

		session, created, err := store.GetOrCreate(c.Request.Context(), requested)
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Error("Failed to resolve session", err, map[string]interface{}{
					"requested_session": requested,
				})
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":       "SESSION_UNAVAILABLE",
					"message":    "Session could not be created",
					"request_id": GetRequestID(c),
				},
			})
			return
		}

		c.Set(SessionKey, session)
		c.Writer.Header().Set(SessionIDHeader, session.ID())

		if log := GetLogger(c); log != nil {
			scoped := log.WithSession(session.ID())
			c.Set(LoggerKey, scoped)
			if created && requested != "" {
				scoped.Info("Unknown session replaced", map[string]interface{}{
					"requested_session": requested,
				})
			}
		}

		c.Next()
	}
}

// GetSession retrieves the session from the Gin context.
// Returns nil if not found.
func GetSession(c *gin.Context) *services.Session {
	if s, exists := c.Get(SessionKey); exists {
		if session, ok := s.(*services.Session); ok {
			return session
		}
	}
	return nil
}
