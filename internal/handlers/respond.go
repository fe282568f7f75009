package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/propmap/internal/errors"
	"github.com/stwalsh4118/propmap/internal/filter"
	"github.com/stwalsh4118/propmap/internal/mapview"
	"github.com/stwalsh4118/propmap/internal/middleware"
	"github.com/stwalsh4118/propmap/internal/regions"
	"github.com/stwalsh4118/propmap/internal/services"
)

// respondError maps domain errors onto the error envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, regions.ErrUnknownRegion):
		apierrors.NotFound(c, "Unknown region: "+c.Param("key"))
	case errors.Is(err, services.ErrResultNotFound):
		apierrors.NotFound(c, "Search result not found; run the search again")
	case errors.Is(err, filter.ErrInvalidCriteria):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, mapview.ErrNotLocatable):
		apierrors.Unprocessable(c, "This result has no location and cannot be shown on the map", err)
	case errors.Is(err, mapview.ErrClosed):
		apierrors.ServiceUnavailable(c, "SESSION_CLOSED", "Session has expired; start a new one", err)
	case errors.Is(err, regions.ErrFetchFailed):
		apierrors.BadGateway(c, "Region data could not be loaded, try again", err)
	case errors.Is(err, services.ErrPropertiesUnavailable):
		apierrors.BadGateway(c, "Property list could not be loaded", err)
	default:
		apierrors.InternalServerError(c, "An unexpected error occurred", err)
	}
}

// respondBindError reports a request that failed to bind or validate.
func respondBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, "Invalid request", map[string]interface{}{"reason": err.Error()})
}

// session returns the request's session. The session middleware guarantees
// one is present on every /api/v1 route except info.
func session(c *gin.Context) (*services.Session, bool) {
	s := middleware.GetSession(c)
	if s == nil {
		apierrors.InternalServerError(c, "No session attached to request", errors.New("session middleware not installed"))
		return nil, false
	}
	return s, true
}

// ensureProperties loads the session's property list on first use. On
// failure the error response is written and false returned.
func ensureProperties(c *gin.Context, s *services.Session) bool {
	if _, err := s.EnsureProperties(c.Request.Context()); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
