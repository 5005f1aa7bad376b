package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/middleware"
)

// CommunityController handles communities, their college link, leadership,
// members and join applications
type CommunityController struct {
	directoryService services.DirectoryService
	registryService  services.RegistryService
}

// NewCommunityController creates a new CommunityController
func NewCommunityController(directoryService services.DirectoryService, registryService services.RegistryService) *CommunityController {
	return &CommunityController{
		directoryService: directoryService,
		registryService:  registryService,
	}
}

// CreateCommunity handles community creation
// @Summary Create a community
// @Description Creates a community owned by the caller. A community without a college cannot route event approvals until linked.
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCommunityRequest true "Community information"
// @Success 201 {object} dto.APIResponse{data=models.Community}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "College not found"
// @Failure 409 {object} dto.ErrorResponse "Community name already taken"
// @Router /communities [post]
func (c *CommunityController) CreateCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.CreateCommunityRequest
	if !bindJSON(ctx, &req) {
		return
	}

	community, err := c.directoryService.CreateCommunity(ctx, &req, user.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Success:   true,
		Data:      community,
		Timestamp: time.Now(),
	})
}

// GetCommunity retrieves a community by ID
// @Summary Get community details
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Community}
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Router /communities/{id} [get]
func (c *CommunityController) GetCommunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}

	community, err := c.directoryService.GetCommunity(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(community))
}

// ListCommunities lists communities
// @Summary List communities
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param collegeId query int false "Only communities of this college"
// @Success 200 {object} dto.APIResponse{data=[]models.Community}
// @Router /communities [get]
func (c *CommunityController) ListCommunities(ctx *gin.Context) {
	collegeID, ok := parseOptionalIDQuery(ctx, "collegeId")
	if !ok {
		return
	}

	communities, err := c.directoryService.ListCommunities(ctx, collegeID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(communities))
}

// GetCommunityCollege resolves the college a community belongs to
// @Summary Resolve a community's college
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.College}
// @Failure 404 {object} dto.ErrorResponse "Community not found"
// @Failure 422 {object} dto.ErrorResponse "Community is not assigned to a college"
// @Router /communities/{id}/college [get]
func (c *CommunityController) GetCommunityCollege(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}

	college, err := c.directoryService.ResolveCollegeForCommunity(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(college))
}

// LinkCollege links a community to a college
// @Summary Link a community to a college
// @Description Idempotent. Existing events keep their college copy until the next reconciliation pass.
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Param request body dto.LinkCollegeRequest true "College to link"
// @Success 200 {object} dto.APIResponse{data=dto.LinkCollegeResponse}
// @Failure 404 {object} dto.ErrorResponse "Community or college not found"
// @Router /communities/{id}/college [put]
func (c *CommunityController) LinkCollege(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}
	var req dto.LinkCollegeRequest
	if !bindJSON(ctx, &req) {
		return
	}

	result, err := c.directoryService.LinkCommunityToCollege(ctx, id, req.CollegeID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// SetClubLeader changes the club leader of a community
// @Summary Set the club leader
// @Description The user must hold the CLUB_LEADER role. The community creator is not changed.
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Param request body dto.SetClubLeaderRequest true "New leader"
// @Success 200 {object} dto.APIResponse{data=models.Community}
// @Failure 403 {object} dto.ErrorResponse "User does not hold the CLUB_LEADER role"
// @Router /communities/{id}/leader [put]
func (c *CommunityController) SetClubLeader(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}
	var req dto.SetClubLeaderRequest
	if !bindJSON(ctx, &req) {
		return
	}

	community, err := c.registryService.SetClubLeader(ctx, id, req.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(community))
}

// JoinCommunity adds the caller as a member
// @Summary Join a community
// @Tags community-members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Success 201 {object} dto.APIResponse{data=models.CommunityMember}
// @Failure 409 {object} dto.ErrorResponse "Already a member"
// @Router /communities/{id}/join [post]
func (c *CommunityController) JoinCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}

	member, err := c.registryService.JoinCommunity(ctx, id, user.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(member))
}

// LeaveCommunity removes the caller's membership
// @Summary Leave a community
// @Tags community-members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse
// @Router /communities/{id}/leave [post]
func (c *CommunityController) LeaveCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}

	if err := c.registryService.LeaveCommunity(ctx, id, user.ID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Left community"))
}

// ListMembers lists the members of a community
// @Summary List community members
// @Tags community-members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.CommunityMember}
// @Router /communities/{id}/members [get]
func (c *CommunityController) ListMembers(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}

	members, err := c.registryService.ListMembers(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members))
}

// AddMember adds a user to a community
// @Summary Add a member
// @Description Club leader or administrator only.
// @Tags community-members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Param request body dto.AddMemberRequest true "Member"
// @Success 201 {object} dto.APIResponse{data=models.CommunityMember}
// @Failure 403 {object} dto.ErrorResponse "Not the club leader"
// @Failure 409 {object} dto.ErrorResponse "Already a member"
// @Router /communities/{id}/members [post]
func (c *CommunityController) AddMember(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !bindJSON(ctx, &req) {
		return
	}

	member, err := c.registryService.AddMember(ctx, user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(member))
}

// RemoveMember removes a user from a community
// @Summary Remove a member
// @Tags community-members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Param userId path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse
// @Router /communities/{id}/members/{userId} [delete]
func (c *CommunityController) RemoveMember(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(ctx, "userId", "User")
	if !ok {
		return
	}

	if err := c.registryService.RemoveMember(ctx, user, id, memberID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Member removed"))
}

// SubmitApplication files a join request for the caller
// @Summary Apply to join a community
// @Tags community-applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Param request body dto.SubmitApplicationRequest true "Application"
// @Success 201 {object} dto.APIResponse{data=models.ApplicationForm}
// @Failure 409 {object} dto.ErrorResponse "Pending application or membership exists"
// @Router /communities/{id}/applications [post]
func (c *CommunityController) SubmitApplication(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}
	var req dto.SubmitApplicationRequest
	if !bindJSON(ctx, &req) {
		return
	}

	application, err := c.registryService.SubmitApplication(ctx, user.ID, id, req.Motivation)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(application))
}

// ListApplications lists the join requests of a community
// @Summary List applications
// @Tags community-applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID" Format(int64) minimum(1)
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} dto.APIResponse{data=[]models.ApplicationForm}
// @Router /communities/{id}/applications [get]
func (c *CommunityController) ListApplications(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Community")
	if !ok {
		return
	}

	var status *models.ApplicationStatus
	if raw := ctx.Query("status"); raw != "" {
		s := models.ApplicationStatus(raw)
		status = &s
	}

	applications, err := c.registryService.ListApplications(ctx, user, id, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(applications))
}

// ReviewApplication approves or rejects a join request
// @Summary Review an application
// @Tags community-applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param applicationId path int true "Application ID" Format(int64) minimum(1)
// @Param request body dto.ReviewApplicationRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.ApplicationForm}
// @Failure 403 {object} dto.ErrorResponse "Not the club leader"
// @Failure 409 {object} dto.ErrorResponse "Application already decided"
// @Router /applications/{applicationId}/review [post]
func (c *CommunityController) ReviewApplication(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "applicationId", "Application")
	if !ok {
		return
	}
	var req dto.ReviewApplicationRequest
	if !bindJSON(ctx, &req) {
		return
	}

	application, err := c.registryService.ReviewApplication(ctx, user, id, *req.Approve)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(application))
}
