package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/propmap/internal/filter"
	"github.com/stwalsh4118/propmap/internal/middleware"
	"github.com/stwalsh4118/propmap/internal/models"
)

// PropertyHandler handles the tracked property list and its filters.
type PropertyHandler struct{}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler() *PropertyHandler {
	return &PropertyHandler{}
}

// PropertiesResponse is the filtered property set.
type PropertiesResponse struct {
	Properties []models.Property `json:"properties"`
	Criteria   filter.Criteria   `json:"criteria"`
	Count      int               `json:"count"`
}

// List handles GET /api/v1/properties. The list is loaded on first use.
func (h *PropertyHandler) List(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	props, err := s.EnsureProperties(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PropertiesResponse{Properties: props, Criteria: s.Criteria(), Count: len(props)})
}

// Refresh handles POST /api/v1/properties/refresh.
func (h *PropertyHandler) Refresh(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	props, err := s.RefreshProperties(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PropertiesResponse{Properties: props, Criteria: s.Criteria(), Count: len(props)})
}

// GetFilters handles GET /api/v1/filters.
func (h *PropertyHandler) GetFilters(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Criteria())
}

// SetFilters handles PUT /api/v1/filters. The body replaces the criteria
// outright; omitted bounds are cleared.
func (h *PropertyHandler) SetFilters(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var criteria filter.Criteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		respondBindError(c, err)
		return
	}

	if err := criteria.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if !ensureProperties(c, s) {
		return
	}

	props, err := s.SetCriteria(criteria)
	if err != nil {
		respondError(c, err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Filters applied", map[string]interface{}{
			"matched": len(props),
		})
	}
	c.JSON(http.StatusOK, PropertiesResponse{Properties: props, Criteria: s.Criteria(), Count: len(props)})
}
