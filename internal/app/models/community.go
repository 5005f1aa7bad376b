package models

import "time"

// Community represents a student club or group
type Community struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Abbreviation string    `json:"abbreviation" db:"abbreviation"`
	CollegeID    *int64    `json:"collegeId,omitempty" db:"college_id"`
	ClubLeaderID *int64    `json:"clubLeaderId,omitempty" db:"club_leader_id"`
	CreatedBy    int64     `json:"createdBy" db:"created_by"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// MemberRole is the role a user holds inside a single community
type MemberRole string

const (
	MemberRoleAdmin     MemberRole = "admin"
	MemberRoleModerator MemberRole = "moderator"
	MemberRoleMember    MemberRole = "member"
)

// Valid reports whether r is a known member role
func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleAdmin, MemberRoleModerator, MemberRoleMember:
		return true
	}
	return false
}

// CommunityMember represents a user participating in a community
type CommunityMember struct {
	ID          int64      `json:"id" db:"id"`
	CommunityID int64      `json:"communityId" db:"community_id"`
	UserID      int64      `json:"userId" db:"user_id"`
	Role        MemberRole `json:"role" db:"role"`
	JoinDate    time.Time  `json:"joinDate" db:"join_date"`
}

// ApplicationStatus tracks a community join request
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// ApplicationForm is a request by a user to join a community
type ApplicationForm struct {
	ID          int64             `json:"id" db:"id"`
	UserID      int64             `json:"userId" db:"user_id"`
	CommunityID int64             `json:"communityId" db:"community_id"`
	Motivation  string            `json:"motivation" db:"motivation"`
	Status      ApplicationStatus `json:"status" db:"status"`
	ReviewedBy  *int64            `json:"reviewedBy,omitempty" db:"reviewed_by"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt" db:"updated_at"`
}
