package payments

import (
	"errors"
	"net/http"

	"courtside/internal/payments/providers"
	"courtside/internal/shared/middleware"
	"courtside/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Dispatch handles POST /payments/dispatch
func (ctrl *Controller) Dispatch(c *gin.Context) {
	result, err := ctrl.service.Dispatch(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNoPendingBooking):
			response.RespondJSON(c, "error", http.StatusNotFound, "No booking to pay for", nil, err.Error())
		case errors.Is(err, ErrBookingCancelled):
			response.RespondJSON(c, "error", http.StatusConflict, "Booking is cancelled", nil, err.Error())
		case errors.Is(err, providers.ErrUnknownProvider):
			response.RespondJSON(c, "error", http.StatusBadRequest, "Unsupported payment method", nil, err.Error())
		default:
			response.RespondJSON(c, "error", http.StatusBadGateway, "Payment dispatch failed", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment dispatched", result, nil)
}

// Return handles GET /payments/return/:provider. The provider redirects the
// customer's browser here; the session rides on the ?session query.
func (ctrl *Controller) Return(c *gin.Context) {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	result, err := ctrl.service.HandleReturn(c.Request.Context(), middleware.GetSessionID(c), c.Param("provider"), params)
	if err != nil {
		if errors.Is(err, providers.ErrUnknownProvider) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Unknown payment provider", nil, err.Error())
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Payment reconciliation failed", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment return processed", result, nil)
}
