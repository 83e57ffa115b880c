// README: Ride assignment handlers.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/modules/compat"
	"carpool/internal/modules/rides"
)

type RidesHandler struct {
	svc *rides.Service
}

func NewRidesHandler(svc *rides.Service) *RidesHandler {
	return &RidesHandler{svc: svc}
}

type assignRequest struct {
	Rides   []rides.Entry   `json:"rides" binding:"required"`
	Weights *compat.Weights `json:"weights"`
}

// AssignUsers runs the full matching, clustering and scheduling pipeline
// over the posted entries.
func (h *RidesHandler) AssignUsers(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.svc.AssignUsers(c.Request.Context(), req.Rides, req.Weights)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": out})
}

type scheduleRequest struct {
	Rides []rides.Entry `json:"rides" binding:"required"`
}

// AssignStartTimes re-runs only the scheduling stage over an already
// grouped driver/passenger tree.
func (h *RidesHandler) AssignStartTimes(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.svc.AssignStartTimes(c.Request.Context(), req.Rides)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": out})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rides.ErrValidation):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
