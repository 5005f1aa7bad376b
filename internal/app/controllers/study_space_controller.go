package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/middleware"
	"github.com/yigit/campushub/internal/pkg/helpers"
)

// StudySpaceController handles study spaces and seat reservations
type StudySpaceController struct {
	reservationService services.ReservationService
}

// NewStudySpaceController creates a new StudySpaceController
func NewStudySpaceController(reservationService services.ReservationService) *StudySpaceController {
	return &StudySpaceController{reservationService: reservationService}
}

// CreateStudySpace creates a bookable space
// @Summary Create a study space
// @Tags study-spaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudySpaceRequest true "Study space"
// @Success 201 {object} dto.APIResponse{data=models.StudySpace}
// @Failure 409 {object} dto.ErrorResponse "Name already taken"
// @Router /study-spaces [post]
func (c *StudySpaceController) CreateStudySpace(ctx *gin.Context) {
	var req dto.CreateStudySpaceRequest
	if !bindJSON(ctx, &req) {
		return
	}

	space, err := c.reservationService.CreateStudySpace(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Success:   true,
		Data:      space,
		Timestamp: time.Now(),
	})
}

// ListStudySpaces lists all spaces
// @Summary List study spaces
// @Tags study-spaces
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.StudySpace}
// @Router /study-spaces [get]
func (c *StudySpaceController) ListStudySpaces(ctx *gin.Context) {
	spaces, err := c.reservationService.ListStudySpaces(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(spaces))
}

// ListReservations lists the reservations of a space on one day
// @Summary List reservations of a space
// @Tags study-spaces
// @Produce json
// @Security BearerAuth
// @Param id path int true "Study space ID" Format(int64) minimum(1)
// @Param date query string false "Day, YYYY-MM-DD (defaults to today)"
// @Success 200 {object} dto.APIResponse{data=[]models.StudySpaceReservation}
// @Router /study-spaces/{id}/reservations [get]
func (c *StudySpaceController) ListReservations(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Study space")
	if !ok {
		return
	}

	day := time.Now()
	if raw := ctx.Query("date"); raw != "" {
		parsed, err := helpers.ParseDay(raw)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid date").
				WithField("date").
				WithDetails("date must be formatted as YYYY-MM-DD")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		day = parsed
	}

	reservations, err := c.reservationService.ListReservations(ctx, id, day)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reservations))
}

// CreateReservation books a seat for the caller
// @Summary Reserve a seat
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateReservationRequest true "Reservation"
// @Success 201 {object} dto.APIResponse{data=models.StudySpaceReservation}
// @Failure 400 {object} dto.ErrorResponse "Past date"
// @Failure 409 {object} dto.ErrorResponse "Capacity exceeded or duplicate reservation"
// @Router /reservations [post]
func (c *StudySpaceController) CreateReservation(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.CreateReservationRequest
	if !bindJSON(ctx, &req) {
		return
	}
	day, err := helpers.ParseDay(req.Date)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid date").WithField("date")))
		return
	}

	reservation, err := c.reservationService.CreateReservation(ctx, user.ID, req.SpaceID, day)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(reservation))
}

// CancelReservation releases a seat
// @Summary Cancel a reservation
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.StudySpaceReservation}
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 422 {object} dto.ErrorResponse "Reservation is not active"
// @Router /reservations/{id}/cancel [post]
func (c *StudySpaceController) CancelReservation(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Reservation")
	if !ok {
		return
	}

	reservation, err := c.reservationService.CancelReservation(ctx, user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reservation))
}
