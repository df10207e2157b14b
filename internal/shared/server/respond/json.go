package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zeebo/xxh3"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 JSON response.
func Created(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusCreated, payload)
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Cached writes payload with a content-derived ETag and answers 304 when the
// client already holds the same representation. Used on endpoints the
// browser polls.
func Cached(c *gin.Context, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		return
	}
	etag := fmt.Sprintf(`W/"%016x"`, xxh3.Hash(body))
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")
	if matchesETag(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag || "W/"+candidate == etag {
			return true
		}
	}
	return false
}
