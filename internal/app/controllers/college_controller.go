package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/middleware"
)

// CollegeController handles college-related operations
type CollegeController struct {
	directoryService services.DirectoryService
}

// NewCollegeController creates a new CollegeController
func NewCollegeController(directoryService services.DirectoryService) *CollegeController {
	return &CollegeController{directoryService: directoryService}
}

// CreateCollege handles college creation
// @Summary Create a new college
// @Description Creates a college. The code is unique and cannot change later.
// @Tags colleges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCollegeRequest true "College information"
// @Success 201 {object} dto.APIResponse{data=models.College} "College created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - administrator role required"
// @Failure 409 {object} dto.ErrorResponse "College code already exists"
// @Router /colleges [post]
func (c *CollegeController) CreateCollege(ctx *gin.Context) {
	var req dto.CreateCollegeRequest
	if !bindJSON(ctx, &req) {
		return
	}

	college, err := c.directoryService.CreateCollege(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Success:   true,
		Data:      college,
		Timestamp: time.Now(),
	})
}

// GetCollege retrieves a college by ID
// @Summary Get college details
// @Tags colleges
// @Produce json
// @Security BearerAuth
// @Param id path int true "College ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.College}
// @Failure 404 {object} dto.ErrorResponse "College not found"
// @Router /colleges/{id} [get]
func (c *CollegeController) GetCollege(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "College")
	if !ok {
		return
	}

	college, err := c.directoryService.GetCollege(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(college))
}

// ListColleges retrieves all colleges
// @Summary List colleges
// @Tags colleges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.College}
// @Router /colleges [get]
func (c *CollegeController) ListColleges(ctx *gin.Context) {
	colleges, err := c.directoryService.ListColleges(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(colleges))
}

// RenameCollege changes the display name of a college
// @Summary Rename a college
// @Tags colleges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "College ID" Format(int64) minimum(1)
// @Param request body dto.RenameCollegeRequest true "New name"
// @Success 200 {object} dto.APIResponse{data=models.College}
// @Failure 404 {object} dto.ErrorResponse "College not found"
// @Router /colleges/{id} [patch]
func (c *CollegeController) RenameCollege(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "College")
	if !ok {
		return
	}
	var req dto.RenameCollegeRequest
	if !bindJSON(ctx, &req) {
		return
	}

	college, err := c.directoryService.RenameCollege(ctx, id, req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(college))
}
