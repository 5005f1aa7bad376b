package models

import "time"

// EventStatus is the approval-stage state of an event
type EventStatus string

const (
	EventDraft                 EventStatus = "DRAFT"
	EventPendingClubLeader     EventStatus = "PENDING_CLUB_LEADER"
	EventPendingFacultyLeader  EventStatus = "PENDING_FACULTY_LEADER"
	EventPendingDean           EventStatus = "PENDING_DEAN"
	EventPendingDeanship       EventStatus = "PENDING_DEANSHIP"
	EventApproved              EventStatus = "APPROVED"
	EventRejectedClubLeader    EventStatus = "REJECTED_CLUB_LEADER"
	EventRejectedFacultyLeader EventStatus = "REJECTED_FACULTY_LEADER"
	EventRejectedDean          EventStatus = "REJECTED_DEAN"
	EventRejectedDeanship      EventStatus = "REJECTED_DEANSHIP"
	EventCancelled             EventStatus = "CANCELLED"
)

// IsPending reports whether the event is waiting on an approval stage
func (s EventStatus) IsPending() bool {
	switch s {
	case EventPendingClubLeader, EventPendingFacultyLeader, EventPendingDean, EventPendingDeanship:
		return true
	}
	return false
}

// IsRejected reports whether the event was rejected at some stage
func (s EventStatus) IsRejected() bool {
	switch s {
	case EventRejectedClubLeader, EventRejectedFacultyLeader, EventRejectedDean, EventRejectedDeanship:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave this state
func (s EventStatus) IsTerminal() bool {
	return s == EventApproved || s == EventCancelled || s.IsRejected()
}

// Event is a community or college event routed through the approval chain.
// When CommunityID is set, CollegeID is a copy of the community's college.
type Event struct {
	ID          int64       `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	CreatorID   int64       `json:"creatorId" db:"creator_id"`
	CommunityID *int64      `json:"communityId,omitempty" db:"community_id"`
	CollegeID   *int64      `json:"collegeId,omitempty" db:"college_id"`
	Capacity    *int        `json:"capacity,omitempty" db:"capacity"`
	Status      EventStatus `json:"status" db:"status"`
	StartsAt    *time.Time  `json:"startsAt,omitempty" db:"starts_at"`

	ClubLeaderRejectionReason    *string `json:"clubLeaderRejectionReason,omitempty" db:"club_leader_rejection_reason"`
	FacultyLeaderRejectionReason *string `json:"facultyLeaderRejectionReason,omitempty" db:"faculty_leader_rejection_reason"`
	DeanRejectionReason          *string `json:"deanRejectionReason,omitempty" db:"dean_rejection_reason"`
	DeanshipRejectionReason      *string `json:"deanshipRejectionReason,omitempty" db:"deanship_rejection_reason"`

	// Version is bumped on every state write and used for compare-and-set.
	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// SetRejectionReason stores reason in the field belonging to the rejected status
func (e *Event) SetRejectionReason(status EventStatus, reason string) {
	r := reason
	switch status {
	case EventRejectedClubLeader:
		e.ClubLeaderRejectionReason = &r
	case EventRejectedFacultyLeader:
		e.FacultyLeaderRejectionReason = &r
	case EventRejectedDean:
		e.DeanRejectionReason = &r
	case EventRejectedDeanship:
		e.DeanshipRejectionReason = &r
	}
}

// EventFilter narrows event listings
type EventFilter struct {
	CommunityID *int64
	CollegeID   *int64
	CreatorID   *int64
	Status      *EventStatus
	Limit       int
	Offset      uint64
}

// ApprovalDecision is the outcome recorded for one stage
type ApprovalDecision string

const (
	DecisionApproved  ApprovalDecision = "APPROVED"
	DecisionRejected  ApprovalDecision = "REJECTED"
	DecisionCancelled ApprovalDecision = "CANCELLED"
)

// EventApproval is the audit record of a single stage decision
type EventApproval struct {
	ID         int64            `json:"id" db:"id"`
	EventID    int64            `json:"eventId" db:"event_id"`
	Stage      Role             `json:"stage" db:"stage"`
	ApproverID int64            `json:"approverId" db:"approver_id"`
	Decision   ApprovalDecision `json:"decision" db:"decision"`
	Reason     *string          `json:"reason,omitempty" db:"reason"`
	DecidedAt  time.Time        `json:"decidedAt" db:"decided_at"`
}

// CollegeMismatch is an event whose college copy disagrees with its community
type CollegeMismatch struct {
	EventID          int64
	EventCollegeID   *int64
	CommunityCollege *int64
}
