package sessions

import (
	"errors"
	"net/http"

	"courtside/internal/holds"
	"courtside/internal/shared/middleware"
	"courtside/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// Reserve enters the reservation flow: acquires a hold on the selected
// slots and starts the countdown.
func (c *Controller) Reserve(ctx *gin.Context) {
	sessionID := middleware.GetSessionID(ctx)

	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	status, err := c.service.Reserve(ctx.Request.Context(), sessionID, req)
	if err != nil {
		if errors.Is(err, holds.ErrSlotUnavailable) {
			response.RespondJSON(ctx, "error", http.StatusConflict, "One or more slots are no longer available", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to reserve slots", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Slots reserved", status, nil)
}

// Status reports the session's live hold, reconstructed from the durable
// record so a reload lands back in the same countdown.
func (c *Controller) Status(ctx *gin.Context) {
	sessionID := middleware.GetSessionID(ctx)

	status, err := c.service.Status(ctx.Request.Context(), sessionID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to recover hold", nil, nil)
		return
	}
	if status == nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "No active hold for this session", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold recovered", status, nil)
}

// Leave reports a navigation event (unload, tab hidden/visible, back
// press) and returns the guard's decision.
func (c *Controller) Leave(ctx *gin.Context) {
	sessionID := middleware.GetSessionID(ctx)

	var req LeaveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	resp, err := c.service.Leave(ctx.Request.Context(), sessionID, req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process leave event", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Leave event processed", resp, nil)
}

// Abandon explicitly releases the session's hold. Safe to call when no
// hold exists.
func (c *Controller) Abandon(ctx *gin.Context) {
	sessionID := middleware.GetSessionID(ctx)

	if err := c.service.Abandon(ctx.Request.Context(), sessionID); err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to release hold", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold released", nil, nil)
}
