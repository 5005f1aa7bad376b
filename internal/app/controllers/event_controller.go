package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/middleware"
	"github.com/yigit/campushub/internal/pkg/helpers"
)

// EventController handles events and their approval lifecycle
type EventController struct {
	eventService services.EventService
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService) *EventController {
	return &EventController{eventService: eventService}
}

// CreateEvent creates a draft event
// @Summary Create an event
// @Description Creates a DRAFT owned by the caller. A community event copies the community's college.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=models.Event}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Community or college not found"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.CreateEventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, err := c.eventService.CreateEvent(ctx, &req, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Success:   true,
		Data:      event,
		Timestamp: time.Now(),
	})
}

// GetEvent retrieves an event by ID
// @Summary Get event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Event")
	if !ok {
		return
	}

	event, err := c.eventService.GetEvent(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}

// ListEvents lists events, newest first
// @Summary List events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param communityId query int false "Filter by community"
// @Param collegeId query int false "Filter by college"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.EventListResponse}
// @Router /events [get]
func (c *EventController) ListEvents(ctx *gin.Context) {
	communityID, ok := parseOptionalIDQuery(ctx, "communityId")
	if !ok {
		return
	}
	collegeID, ok := parseOptionalIDQuery(ctx, "collegeId")
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	filter := models.EventFilter{
		CommunityID: communityID,
		CollegeID:   collegeID,
		Limit:       limit,
		Offset:      offset,
	}
	if raw := ctx.Query("status"); raw != "" {
		status := models.EventStatus(raw)
		filter.Status = &status
	}

	events, total, err := c.eventService.ListEvents(ctx, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.EventListResponse{
		Events:     events,
		Pagination: dto.NewPaginationInfo(page, limit, total),
	}))
}

// SubmitEvent sends a draft into its approval chain
// @Summary Submit an event for approval
// @Tags event-approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 403 {object} dto.ErrorResponse "Not the creator"
// @Failure 409 {object} dto.ErrorResponse "Modified concurrently"
// @Failure 422 {object} dto.ErrorResponse "No college can be determined, or not a draft"
// @Router /events/{id}/submit [post]
func (c *EventController) SubmitEvent(ctx *gin.Context) {
	c.transition(ctx, c.eventService.Submit)
}

// ApproveEvent approves the current stage
// @Summary Approve the current stage
// @Description Only the user resolved as the current stage's approver may approve.
// @Tags event-approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 403 {object} dto.ErrorResponse "Caller is not the resolved approver"
// @Failure 409 {object} dto.ErrorResponse "Modified concurrently or ambiguous approver"
// @Failure 422 {object} dto.ErrorResponse "Stage blocked or event not pending"
// @Router /events/{id}/approve [post]
func (c *EventController) ApproveEvent(ctx *gin.Context) {
	c.transition(ctx, c.eventService.Approve)
}

// RejectEvent rejects the event at the current stage
// @Summary Reject at the current stage
// @Tags event-approval
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Param request body dto.RejectEventRequest true "Reason"
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 403 {object} dto.ErrorResponse "Caller is not the resolved approver"
// @Router /events/{id}/reject [post]
func (c *EventController) RejectEvent(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Event")
	if !ok {
		return
	}
	var req dto.RejectEventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, err := c.eventService.Reject(ctx, id, user, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}

// CancelEvent cancels a non-terminal event
// @Summary Cancel an event
// @Tags event-approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 403 {object} dto.ErrorResponse "Neither creator nor higher authority"
// @Failure 422 {object} dto.ErrorResponse "Event is terminal"
// @Router /events/{id}/cancel [post]
func (c *EventController) CancelEvent(ctx *gin.Context) {
	c.transition(ctx, c.eventService.Cancel)
}

// ResubmitEvent copies a rejected event into a new draft
// @Summary Resubmit a rejected event
// @Tags event-approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rejected event ID" Format(int64) minimum(1)
// @Success 201 {object} dto.APIResponse{data=models.Event}
// @Failure 422 {object} dto.ErrorResponse "Event was not rejected"
// @Router /events/{id}/resubmit [post]
func (c *EventController) ResubmitEvent(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Event")
	if !ok {
		return
	}

	event, err := c.eventService.Resubmit(ctx, id, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(event))
}

// GetChain shows the resolved approval chain
// @Summary Get the approval chain
// @Tags event-approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.ChainResponse}
// @Failure 422 {object} dto.ErrorResponse "No college can be determined"
// @Router /events/{id}/chain [get]
func (c *EventController) GetChain(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Event")
	if !ok {
		return
	}

	chain, err := c.eventService.ResolveChain(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(chain))
}

// GetCurrentApprover names who must act next
// @Summary Get the current approver
// @Tags event-approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.CurrentApproverResponse}
// @Failure 422 {object} dto.ErrorResponse "Stage blocked or event not pending"
// @Router /events/{id}/approver [get]
func (c *EventController) GetCurrentApprover(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Event")
	if !ok {
		return
	}

	current, err := c.eventService.CurrentApprover(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(current))
}

// ListApprovals returns the decision trail
// @Summary List approval decisions
// @Tags event-approval
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.EventApproval}
// @Router /events/{id}/approvals [get]
func (c *EventController) ListApprovals(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Event")
	if !ok {
		return
	}

	approvals, err := c.eventService.ListApprovals(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(approvals))
}

type transitionFn func(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error)

func (c *EventController) transition(ctx *gin.Context, fn transitionFn) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Event")
	if !ok {
		return
	}

	event, err := fn(ctx, id, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}
