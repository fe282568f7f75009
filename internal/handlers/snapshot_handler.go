package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// SnapshotHandler serves the whole session state as one document.
type SnapshotHandler struct{}

// NewSnapshotHandler creates a new SnapshotHandler instance.
func NewSnapshotHandler() *SnapshotHandler {
	return &SnapshotHandler{}
}

// Get handles GET /api/v1/snapshot. The ETag is a hash of the body, so a
// client polling with If-None-Match gets 304 until something changes.
func (h *SnapshotHandler) Get(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	body, err := json.Marshal(s.Snapshot())
	if err != nil {
		respondError(c, fmt.Errorf("failed to encode snapshot: %w", err))
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")

	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// etagMatches implements the weak comparison used for If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
