package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/render"
)

// MapHandler handles the viewport, highlight and render command queue.
type MapHandler struct{}

// NewMapHandler creates a new MapHandler instance.
func NewMapHandler() *MapHandler {
	return &MapHandler{}
}

// ViewportRequest sets the viewport.
type ViewportRequest struct {
	Lat  *float64 `json:"lat" binding:"required,latitude"`
	Lng  *float64 `json:"lng" binding:"required,longitude"`
	Zoom int      `json:"zoom" binding:"min=0,max=22"`
}

// MapResponse is the current map state.
type MapResponse struct {
	Highlight *models.SearchResult `json:"highlight"`
	Viewport  models.Viewport      `json:"viewport"`
}

// FitResponse reports whether anything could be fitted.
type FitResponse struct {
	Fitted bool `json:"fitted"`
}

// ClearResponse reports whether a highlight was removed.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

// CommandsResponse carries drained render commands.
type CommandsResponse struct {
	Commands []render.Command `json:"commands"`
	Count    int              `json:"count"`
}

// Get handles GET /api/v1/map.
func (h *MapHandler) Get(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapResponse{Viewport: s.Viewport(), Highlight: s.Highlight()})
}

// SetViewport handles PUT /api/v1/map/viewport.
func (h *MapHandler) SetViewport(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	s.Recenter(models.LatLng{Lat: *req.Lat, Lng: *req.Lng}, req.Zoom)
	c.JSON(http.StatusOK, MapResponse{Viewport: s.Viewport(), Highlight: s.Highlight()})
}

// Fit handles POST /api/v1/map/fit.
func (h *MapHandler) Fit(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	if !ensureProperties(c, s) {
		return
	}
	c.JSON(http.StatusOK, FitResponse{Fitted: s.FitToBounds()})
}

// ClearHighlight handles DELETE /api/v1/map/highlight. It is idempotent.
func (h *MapHandler) ClearHighlight(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ClearResponse{Cleared: s.ClearHighlight()})
}

// Commands handles GET /api/v1/map/commands. Returned commands are removed
// from the queue.
func (h *MapHandler) Commands(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	cmds := s.DrainCommands()
	c.JSON(http.StatusOK, CommandsResponse{Commands: cmds, Count: len(cmds)})
}
