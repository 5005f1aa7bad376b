package models

import (
	"time"
)

// Role is the single platform role a user holds
type Role string

const (
	RoleStudent                  Role = "STUDENT"
	RoleClubLeader               Role = "CLUB_LEADER"
	RoleFacultyLeader            Role = "FACULTY_LEADER"
	RoleDeanOfFaculty            Role = "DEAN_OF_FACULTY"
	RoleDeanshipOfStudentAffairs Role = "DEANSHIP_OF_STUDENT_AFFAIRS"
	RoleAdmin                    Role = "ADMIN"
)

// roleRank orders roles by authority. Used to decide whether an actor outranks
// the role of the stage an event is waiting on.
var roleRank = map[Role]int{
	RoleStudent:                  0,
	RoleClubLeader:               1,
	RoleFacultyLeader:            2,
	RoleDeanOfFaculty:            3,
	RoleDeanshipOfStudentAffairs: 4,
	RoleAdmin:                    5,
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the authority rank of the role, -1 for unknown roles
func (r Role) Rank() int {
	rank, ok := roleRank[r]
	if !ok {
		return -1
	}
	return rank
}

// Outranks reports whether r carries strictly more authority than other
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// RequiresCollege reports whether users holding r must be affiliated with a college
func (r Role) RequiresCollege() bool {
	return r == RoleFacultyLeader || r == RoleDeanOfFaculty
}

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Email     string    `json:"email" db:"email" example:"user@campus.edu"`
	FirstName string    `json:"firstName" db:"first_name" example:"Ayse"`
	LastName  string    `json:"lastName" db:"last_name" example:"Yilmaz"`
	Role      Role      `json:"role" db:"role" example:"STUDENT"`
	CollegeID *int64    `json:"collegeId,omitempty" db:"college_id"`
	IsActive  bool      `json:"isActive" db:"is_active" example:"true"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
