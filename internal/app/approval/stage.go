// Package approval resolves the ordered chain of approvers an event must pass
// through and the concrete user who must act at each stage.
package approval

import "github.com/yigit/campushub/internal/app/models"

// Scope says where a stage looks for its approver
type Scope int

const (
	// ScopeCommunity stages are decided by the event's community club leader
	ScopeCommunity Scope = iota
	// ScopeCollege stages are decided by the holder of the role in the event's college
	ScopeCollege
	// ScopeGlobal stages are decided by the single campus-wide holder of the role
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeCommunity:
		return "community"
	case ScopeCollege:
		return "college"
	case ScopeGlobal:
		return "global"
	}
	return "unknown"
}

// Stage is one step of the approval chain. The set of stages is closed; use
// the package-level values rather than constructing new ones.
type Stage struct {
	role     models.Role
	scope    Scope
	position int
	pending  models.EventStatus
	rejected models.EventStatus
}

var (
	ClubLeader = Stage{
		role: models.RoleClubLeader, scope: ScopeCommunity, position: 0,
		pending: models.EventPendingClubLeader, rejected: models.EventRejectedClubLeader,
	}
	FacultyLeader = Stage{
		role: models.RoleFacultyLeader, scope: ScopeCollege, position: 1,
		pending: models.EventPendingFacultyLeader, rejected: models.EventRejectedFacultyLeader,
	}
	Dean = Stage{
		role: models.RoleDeanOfFaculty, scope: ScopeCollege, position: 2,
		pending: models.EventPendingDean, rejected: models.EventRejectedDean,
	}
	Deanship = Stage{
		role: models.RoleDeanshipOfStudentAffairs, scope: ScopeGlobal, position: 3,
		pending: models.EventPendingDeanship, rejected: models.EventRejectedDeanship,
	}
)

var allStages = []Stage{ClubLeader, FacultyLeader, Dean, Deanship}

// Role is the platform role whose holder decides this stage
func (s Stage) Role() models.Role { return s.role }

// Scope is where the approver is looked up
func (s Stage) Scope() Scope { return s.scope }

// Position is the fixed index of the stage in the full chain
func (s Stage) Position() int { return s.position }

// PendingStatus is the event status while waiting on this stage
func (s Stage) PendingStatus() models.EventStatus { return s.pending }

// RejectedStatus is the terminal status when this stage rejects
func (s Stage) RejectedStatus() models.EventStatus { return s.rejected }

func (s Stage) String() string { return string(s.role) }

// StageForStatus returns the stage an event in status is waiting on
func StageForStatus(status models.EventStatus) (Stage, bool) {
	for _, st := range allStages {
		if st.pending == status {
			return st, true
		}
	}
	return Stage{}, false
}

// StageForRejection returns the stage that produced a rejected status
func StageForRejection(status models.EventStatus) (Stage, bool) {
	for _, st := range allStages {
		if st.rejected == status {
			return st, true
		}
	}
	return Stage{}, false
}

// Chain is the resolved sequence of stages for one event
type Chain struct {
	CollegeID int64
	Stages    []Stage
}

// Roles lists the approver roles of the chain in order
func (c *Chain) Roles() []models.Role {
	roles := make([]models.Role, len(c.Stages))
	for i, st := range c.Stages {
		roles[i] = st.role
	}
	return roles
}

// First is the stage a submitted event enters
func (c *Chain) First() Stage {
	return c.Stages[0]
}

// Next returns the stage after current, false when current is the last one
func (c *Chain) Next(current Stage) (Stage, bool) {
	for i, st := range c.Stages {
		if st == current && i+1 < len(c.Stages) {
			return c.Stages[i+1], true
		}
	}
	return Stage{}, false
}

// Contains reports whether the stage belongs to this chain
func (c *Chain) Contains(stage Stage) bool {
	for _, st := range c.Stages {
		if st == stage {
			return true
		}
	}
	return false
}
