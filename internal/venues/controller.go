package venues

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"courtside/internal/shared/utils/response"
)

type Controller interface {
	CreateVenue(c *gin.Context)
	GetVenue(c *gin.Context)
	UpdateVenue(c *gin.Context)
	ListVenues(c *gin.Context)
	CreateCourt(c *gin.Context)
	GetCourtSlots(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateVenue(c *gin.Context) {
	var req CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	// Get admin user ID from context (set by auth middleware)
	adminID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Admin not authenticated", nil, nil)
		return
	}

	adminUUID, err := uuid.Parse(adminID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid admin ID format", nil, nil)
		return
	}

	venue, err := ctrl.service.CreateVenue(c.Request.Context(), adminUUID, req)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Venue created successfully", venue, nil)
}

func (ctrl *controller) GetVenue(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("venueId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid venue ID", nil, err.Error())
		return
	}

	venue, err := ctrl.service.GetVenueByID(c.Request.Context(), venueID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if err == ErrVenueNotFound {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Venue retrieved successfully", venue, nil)
}

func (ctrl *controller) UpdateVenue(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("venueId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid venue ID", nil, err.Error())
		return
	}

	var req UpdateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	adminID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Admin not authenticated", nil, nil)
		return
	}

	adminUUID, err := uuid.Parse(adminID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid admin ID format", nil, nil)
		return
	}

	venue, err := ctrl.service.UpdateVenue(c.Request.Context(), venueID, adminUUID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if err == ErrVenueNotFound {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Venue updated successfully", venue, nil)
}

func (ctrl *controller) ListVenues(c *gin.Context) {
	var query VenueListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.ListVenues(c.Request.Context(), query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to list venues", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Venues retrieved successfully", result, nil)
}

func (ctrl *controller) CreateCourt(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("venueId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid venue ID", nil, err.Error())
		return
	}

	var req CreateCourtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	court, err := ctrl.service.CreateCourt(c.Request.Context(), venueID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch err {
		case ErrVenueNotFound:
			statusCode = http.StatusNotFound
		case ErrInvalidSlotGrid:
			statusCode = http.StatusBadRequest
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Court created successfully", court, nil)
}

func (ctrl *controller) GetCourtSlots(c *gin.Context) {
	courtID, err := uuid.Parse(c.Param("courtId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid court ID", nil, err.Error())
		return
	}

	date := c.Query("date")
	if date == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "date query parameter is required", nil, nil)
		return
	}

	slots, err := ctrl.service.GetCourtSlots(c.Request.Context(), courtID, date)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if err == ErrCourtNotFound {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Slots retrieved successfully", slots, nil)
}
