package fees

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/server/respond"
)

// Handler serves the public fee estimate.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes attaches fee routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/fees/statutory", h.statutory)
}

type estimateResponse struct {
	EstateValue float64   `json:"estateValue"`
	Fee         int64     `json:"fee"`
	Brackets    []Portion `json:"brackets"`
}

func (h *Handler) statutory(c *gin.Context) {
	raw := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(c.Query("estateValue")))
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "estateValue must be a non-negative number", nil)
		return
	}

	brackets := Breakdown(value)
	if brackets == nil {
		brackets = []Portion{}
	}
	respond.OK(c, estimateResponse{
		EstateValue: value,
		Fee:         StatutoryFee(value),
		Brackets:    brackets,
	})
}
