package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yigit/campushub/internal/app/controllers"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/middleware"
)

// Controllers groups every HTTP controller
type Controllers struct {
	College     *controllers.CollegeController
	Community   *controllers.CommunityController
	User        *controllers.UserController
	Event       *controllers.EventController
	StudySpace  *controllers.StudySpaceController
	Maintenance *controllers.MaintenanceController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	middleware.RegisterValidators()

	// API version group
	v1 := router.Group("/api/v1")

	// Every API route needs a known, active user
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)

	// --- Organizational directory ---
	colleges := authenticated.Group("/colleges")
	{
		colleges.GET("", c.College.ListColleges)
		colleges.GET("/:id", c.College.GetCollege)
		colleges.POST("", adminOnly, c.College.CreateCollege)
		colleges.PATCH("/:id", adminOnly, c.College.RenameCollege)
	}

	communities := authenticated.Group("/communities")
	{
		communities.GET("", c.Community.ListCommunities)
		communities.POST("", c.Community.CreateCommunity)
		communities.GET("/:id", c.Community.GetCommunity)
		communities.GET("/:id/college", c.Community.GetCommunityCollege)
		communities.PUT("/:id/college", adminOnly, c.Community.LinkCollege)
		communities.PUT("/:id/leader", adminOnly, c.Community.SetClubLeader)

		// Membership
		communities.POST("/:id/join", c.Community.JoinCommunity)
		communities.POST("/:id/leave", c.Community.LeaveCommunity)
		communities.GET("/:id/members", c.Community.ListMembers)
		communities.POST("/:id/members", c.Community.AddMember)
		communities.DELETE("/:id/members/:userId", c.Community.RemoveMember)

		// Join applications
		communities.POST("/:id/applications", c.Community.SubmitApplication)
		communities.GET("/:id/applications", c.Community.ListApplications)
	}
	authenticated.POST("/applications/:applicationId/review", c.Community.ReviewApplication)

	// --- Users and roles ---
	users := authenticated.Group("/users")
	{
		users.GET("/me", c.User.GetCurrentUser)
		users.GET("/:id", c.User.GetUser)
		users.POST("", adminOnly, c.User.CreateUser)
		users.PUT("/:id/role", adminOnly, c.User.AssignRole)
		users.POST("/:id/deactivate", adminOnly, c.User.DeactivateUser)
	}

	// --- Events and approval ---
	events := authenticated.Group("/events")
	{
		events.GET("", c.Event.ListEvents)
		events.POST("", c.Event.CreateEvent)
		events.GET("/:id", c.Event.GetEvent)
		events.POST("/:id/submit", c.Event.SubmitEvent)
		events.POST("/:id/approve", c.Event.ApproveEvent)
		events.POST("/:id/reject", c.Event.RejectEvent)
		events.POST("/:id/cancel", c.Event.CancelEvent)
		events.POST("/:id/resubmit", c.Event.ResubmitEvent)
		events.GET("/:id/chain", c.Event.GetChain)
		events.GET("/:id/approver", c.Event.GetCurrentApprover)
		events.GET("/:id/approvals", c.Event.ListApprovals)
	}

	// --- Study spaces and reservations ---
	spaces := authenticated.Group("/study-spaces")
	{
		spaces.GET("", c.StudySpace.ListStudySpaces)
		spaces.POST("", adminOnly, c.StudySpace.CreateStudySpace)
		spaces.GET("/:id/reservations", c.StudySpace.ListReservations)
	}
	reservations := authenticated.Group("/reservations")
	{
		reservations.POST("", c.StudySpace.CreateReservation)
		reservations.POST("/:id/cancel", c.StudySpace.CancelReservation)
	}

	// --- Maintenance ---
	admin := authenticated.Group("/admin", adminOnly)
	{
		admin.POST("/maintenance/reconcile", c.Maintenance.Reconcile)
		admin.POST("/maintenance/expire", c.Maintenance.Expire)
	}
}

// SetupOperational registers the health and metrics endpoints
func SetupOperational(router *gin.Engine, gatherer prometheus.Gatherer) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
