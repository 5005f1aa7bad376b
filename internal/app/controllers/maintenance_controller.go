package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/jobs"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/middleware"
)

// Maintainer runs maintenance passes on demand
type Maintainer interface {
	RunReconcile(ctx context.Context) (*services.ReconcileReport, error)
	RunExpire(ctx context.Context) (*services.ExpiryReport, error)
}

// MaintenanceController triggers maintenance jobs over HTTP
type MaintenanceController struct {
	maintainer Maintainer
}

// NewMaintenanceController creates a new MaintenanceController
func NewMaintenanceController(maintainer Maintainer) *MaintenanceController {
	return &MaintenanceController{maintainer: maintainer}
}

// Reconcile runs event college reconciliation now
// @Summary Reconcile event colleges
// @Description Re-copies each community's college onto its events where they differ.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MaintenanceResponse}
// @Failure 409 {object} dto.ErrorResponse "Job already running"
// @Router /admin/maintenance/reconcile [post]
func (c *MaintenanceController) Reconcile(ctx *gin.Context) {
	report, err := c.maintainer.RunReconcile(ctx)
	if err != nil {
		c.handleJobError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MaintenanceResponse{
		Job:     jobs.JobReconcile,
		Checked: report.Checked,
		Changed: report.Corrected,
		Report:  report,
	}))
}

// Expire completes stale reservations now
// @Summary Expire stale reservations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MaintenanceResponse}
// @Failure 409 {object} dto.ErrorResponse "Job already running"
// @Router /admin/maintenance/expire [post]
func (c *MaintenanceController) Expire(ctx *gin.Context) {
	report, err := c.maintainer.RunExpire(ctx)
	if err != nil {
		c.handleJobError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MaintenanceResponse{
		Job:     jobs.JobExpire,
		Checked: report.Count,
		Changed: report.Count,
		Report:  report,
	}))
}

func (c *MaintenanceController) handleJobError(ctx *gin.Context, err error) {
	if errors.Is(err, jobs.ErrJobRunning) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeConflict, "Maintenance job already running").
			WithSeverity(dto.ErrorSeverityWarning)
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(errorDetail))
		return
	}
	middleware.HandleAPIError(ctx, err)
}
