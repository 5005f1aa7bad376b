package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/middleware"
)

// UserController handles the user directory and role assignment
type UserController struct {
	registryService services.RegistryService
}

// NewUserController creates a new UserController
func NewUserController(registryService services.RegistryService) *UserController {
	return &UserController{registryService: registryService}
}

// CreateUser registers a user
// @Summary Create a user
// @Description FACULTY_LEADER and DEAN_OF_FACULTY require a college.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "User"
// @Success 201 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.registryService.CreateUser(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Success:   true,
		Data:      user,
		Timestamp: time.Now(),
	})
}

// GetCurrentUser returns the caller
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Router /users/me [get]
func (c *UserController) GetCurrentUser(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// GetUser retrieves a user by ID
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	user, err := c.registryService.GetUser(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// AssignRole changes a user's role and college scope
// @Summary Assign a role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Param request body dto.AssignRoleRequest true "Role"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "Scoped role without college"
// @Router /users/{id}/role [put]
func (c *UserController) AssignRole(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}
	var req dto.AssignRoleRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.registryService.AssignRole(ctx, id, req.Role, req.CollegeID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// DeactivateUser disables a user. Inactive users never resolve as approvers.
// @Summary Deactivate a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse
// @Router /users/{id}/deactivate [post]
func (c *UserController) DeactivateUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "User")
	if !ok {
		return
	}

	if err := c.registryService.DeactivateUser(ctx, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("User deactivated"))
}
