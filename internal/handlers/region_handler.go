package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/propmap/internal/middleware"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/regions"
)

// RegionHandler handles the registry region overlays of a session.
type RegionHandler struct{}

// NewRegionHandler creates a new RegionHandler instance.
func NewRegionHandler() *RegionHandler {
	return &RegionHandler{}
}

// RegionsResponse lists every region and its state.
type RegionsResponse struct {
	Regions []regions.Status `json:"regions"`
}

// RegionActionResponse is returned by request and toggle.
type RegionActionResponse struct {
	Outcome regions.Outcome `json:"outcome"`
	Visible bool            `json:"visible"`
}

// RegionStatisticsResponse carries a region's statistics, null until loaded.
type RegionStatisticsResponse struct {
	Statistics *models.RegionStatistics `json:"statistics"`
	Region     string                   `json:"region"`
}

// List handles GET /api/v1/regions.
func (h *RegionHandler) List(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, RegionsResponse{Regions: s.Regions()})
}

// Request handles POST /api/v1/regions/:key/request. An unloaded region is
// fetched and shown; a loaded one has its visibility flipped.
func (h *RegionHandler) Request(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	key := c.Param("key")

	out, err := s.RequestRegion(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Region requested", map[string]interface{}{
			"region":  key,
			"state":   out.State,
			"fetched": out.Fetched,
		})
	}

	c.JSON(http.StatusOK, RegionActionResponse{Outcome: out, Visible: out.State == regions.LoadedVisible})
}

// Toggle handles POST /api/v1/regions/:key/toggle.
func (h *RegionHandler) Toggle(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	out, err := s.ToggleRegion(c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RegionActionResponse{Outcome: out, Visible: out.State == regions.LoadedVisible})
}

// Statistics handles GET /api/v1/regions/:key/statistics.
func (h *RegionHandler) Statistics(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	key := c.Param("key")

	stats, err := s.RegionStatistics(key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RegionStatisticsResponse{Region: key, Statistics: stats})
}
