package dto

import (
	"time"

	"github.com/yigit/campushub/internal/app/models"
)

// CreateEventRequest represents a request to create a draft event
type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,max=255" example:"Robotics Workshop"`
	Description string     `json:"description" binding:"max=5000" example:"Hands-on introduction to ROS"`
	CommunityID *int64     `json:"communityId,omitempty" binding:"omitempty,min=1" example:"3"`
	CollegeID   *int64     `json:"collegeId,omitempty" binding:"omitempty,min=1" example:"1"`
	Capacity    *int       `json:"capacity,omitempty" binding:"omitempty,min=1" example:"60"`
	StartsAt    *time.Time `json:"startsAt,omitempty" example:"2025-05-10T14:00:00Z"`
}

// RejectEventRequest represents a rejection at the current stage
type RejectEventRequest struct {
	Reason string `json:"reason" binding:"required,max=2000" example:"Venue unavailable"`
}

// EventListResponse is one page of events
type EventListResponse struct {
	Events     []*models.Event `json:"events"`
	Pagination PaginationInfo  `json:"pagination"`
}

// ChainStageResponse describes one stage of an event's approval chain
type ChainStageResponse struct {
	Role          models.Role        `json:"role" example:"FACULTY_LEADER"`
	Scope         string             `json:"scope" example:"college"`
	PendingStatus models.EventStatus `json:"pendingStatus" example:"PENDING_FACULTY_LEADER"`
	Current       bool               `json:"current" example:"true"`
	ApproverID    *int64             `json:"approverId,omitempty" example:"7"`
	Problem       string             `json:"problem,omitempty" example:"approval stage has no assigned approver"`
}

// ChainResponse is the resolved approval chain of an event
type ChainResponse struct {
	EventID   int64                `json:"eventId" example:"10"`
	CollegeID int64                `json:"collegeId" example:"1"`
	Status    models.EventStatus   `json:"status" example:"PENDING_DEAN"`
	Stages    []ChainStageResponse `json:"stages"`
}

// CurrentApproverResponse names who must act next on an event
type CurrentApproverResponse struct {
	EventID  int64              `json:"eventId" example:"10"`
	Status   models.EventStatus `json:"status" example:"PENDING_DEAN"`
	Role     models.Role        `json:"role" example:"DEAN_OF_FACULTY"`
	Approver *models.User       `json:"approver"`
}
