package dto

import "github.com/yigit/campushub/internal/app/models"

// CreateUserRequest represents a request to register a user in the directory
type CreateUserRequest struct {
	Email     string      `json:"email" binding:"required,email" example:"ayse.yilmaz@campus.edu"`
	FirstName string      `json:"firstName" binding:"required,max=100" example:"Ayse"`
	LastName  string      `json:"lastName" binding:"required,max=100" example:"Yilmaz"`
	Role      models.Role `json:"role" binding:"required,role" example:"STUDENT"`
	CollegeID *int64      `json:"collegeId,omitempty" binding:"omitempty,min=1" example:"1"`
}

// AssignRoleRequest represents a request to change a user's role
type AssignRoleRequest struct {
	Role      models.Role `json:"role" binding:"required,role" example:"FACULTY_LEADER"`
	CollegeID *int64      `json:"collegeId,omitempty" binding:"omitempty,min=1" example:"1"`
}

// SetClubLeaderRequest represents a request to change a community's club leader
type SetClubLeaderRequest struct {
	UserID int64 `json:"userId" binding:"required,min=1" example:"12"`
}

// AddMemberRequest represents a request to add a user to a community
type AddMemberRequest struct {
	UserID int64             `json:"userId" binding:"required,min=1" example:"12"`
	Role   models.MemberRole `json:"role" binding:"omitempty,memberrole" example:"member"`
}

// SubmitApplicationRequest represents a request to join a community
type SubmitApplicationRequest struct {
	Motivation string `json:"motivation" binding:"max=2000" example:"I build robots"`
}

// ReviewApplicationRequest represents the decision on a join request
type ReviewApplicationRequest struct {
	Approve *bool `json:"approve" binding:"required" example:"true"`
}
