package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"courtside/internal/holds"
	"courtside/internal/shared/middleware"
	"courtside/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Submit handles POST /bookings/submit
func (ctrl *Controller) Submit(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.Submit(c.Request.Context(), sessionID, req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, formatValidationErrors(validationErrs))
		case errors.Is(err, ErrSubmissionInFlight):
			response.RespondJSON(c, "error", http.StatusConflict, "Submission already in progress", nil, err.Error())
		case errors.Is(err, ErrAlreadySubmitted):
			response.RespondJSON(c, "error", http.StatusConflict, "Booking already submitted", nil, err.Error())
		case errors.Is(err, ErrHoldGone), errors.Is(err, holds.ErrHoldNotFound):
			response.RespondJSON(c, "error", http.StatusGone, "Hold has expired", nil, err.Error())
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create booking", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

// GetBooking handles GET /bookings/:bookingId
func (ctrl *Controller) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, err.Error())
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch booking", nil, err.Error())
		return
	}

	// A booking is only visible to the session that made it
	if booking.SessionID != middleware.GetSessionID(c) {
		response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// ListBookings handles GET /bookings
func (ctrl *Controller) ListBookings(c *gin.Context) {
	query := BookingListQuery{Page: 1, Limit: 10}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && limit > 0 && limit <= 100 {
		query.Limit = limit
	}
	query.Status = c.Query("status")

	result, err := ctrl.service.ListSessionBookings(c.Request.Context(), middleware.GetSessionID(c), query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to list bookings", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", result, nil)
}

// CancelBooking handles DELETE /bookings/:bookingId
func (ctrl *Controller) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	if err := ctrl.service.CancelBooking(c.Request.Context(), middleware.GetSessionID(c), bookingID); err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, err.Error())
			return
		}
		response.RespondJSON(c, "error", http.StatusBadRequest, "Failed to cancel booking", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", nil, nil)
}

func formatValidationErrors(errs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		messages = append(messages, fieldErr.Field()+" failed on "+fieldErr.Tag())
	}
	return messages
}
