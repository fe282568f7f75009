package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/propmap/internal/models"
)

// maxQueryLength bounds free-text queries.
const maxQueryLength = 200

// SearchHandler handles free-text search and result selection.
type SearchHandler struct{}

// NewSearchHandler creates a new SearchHandler instance.
func NewSearchHandler() *SearchHandler {
	return &SearchHandler{}
}

// SearchRequest represents the query parameters for an immediate search.
// Short queries are not an error; they yield no results.
type SearchRequest struct {
	Query string `form:"q" binding:"max=200"`
}

// InputRequest is one keystroke's worth of query text.
type InputRequest struct {
	Query string `json:"query" binding:"max=200"`
}

// SelectRequest picks one of the latest results.
type SelectRequest struct {
	ResultID string `json:"result_id" binding:"required"`
}

// SearchResponse represents the response for an immediate search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// InputResponse acknowledges a scheduled search.
type InputResponse struct {
	Seq uint64 `json:"seq"`
}

// SelectResponse reports the selection and the resulting view.
type SelectResponse struct {
	Result   models.SearchResult `json:"result"`
	Viewport models.Viewport     `json:"viewport"`
}

// Search handles GET /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if !ensureProperties(c, s) {
		return
	}

	results := s.Search(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, SearchResponse{Query: req.Query, Results: results, Count: len(results)})
}

// Input handles POST /api/v1/search/input. The search runs once input has
// settled; poll /search/results for the outcome.
func (h *SearchHandler) Input(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if !ensureProperties(c, s) {
		return
	}

	c.JSON(http.StatusAccepted, InputResponse{Seq: s.Type(req.Query)})
}

// Results handles GET /api/v1/search/results.
func (h *SearchHandler) Results(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Results())
}

// Select handles POST /api/v1/search/select.
func (h *SearchHandler) Select(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := s.Select(c.Request.Context(), req.ResultID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SelectResponse{Result: result, Viewport: s.Viewport()})
}
