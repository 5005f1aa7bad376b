package repositories

import (
	"context"
	"time"

	"github.com/yigit/campushub/internal/app/models"
)

// Repositories return apperrors sentinels: ErrNotFound for unknown ids, the
// specific duplicate errors for unique constraints and ErrStaleState when a
// compare-and-set loses.

// CollegeRepository stores colleges
type CollegeRepository interface {
	Create(ctx context.Context, college *models.College) error
	GetByID(ctx context.Context, id int64) (*models.College, error)
	GetByCode(ctx context.Context, code string) (*models.College, error)
	List(ctx context.Context) ([]*models.College, error)
	Rename(ctx context.Context, id int64, name string) error
}

// UserRepository stores users and answers role lookups
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindActiveByRole returns every active user holding role. A nil collegeID
	// matches users regardless of college.
	FindActiveByRole(ctx context.Context, role models.Role, collegeID *int64) ([]*models.User, error)
	UpdateRole(ctx context.Context, id int64, role models.Role, collegeID *int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// CommunityRepository stores communities and their college link
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id int64) (*models.Community, error)
	List(ctx context.Context, collegeID *int64) ([]*models.Community, error)
	SetCollege(ctx context.Context, id, collegeID int64) error
	SetClubLeader(ctx context.Context, id, userID int64) error
}

// MemberRepository stores community memberships
type MemberRepository interface {
	Add(ctx context.Context, member *models.CommunityMember) error
	// Upsert inserts the membership or updates the role of an existing one.
	Upsert(ctx context.Context, member *models.CommunityMember) error
	Get(ctx context.Context, communityID, userID int64) (*models.CommunityMember, error)
	Remove(ctx context.Context, communityID, userID int64) error
	ListByCommunity(ctx context.Context, communityID int64) ([]*models.CommunityMember, error)
}

// ApplicationRepository stores community join requests
type ApplicationRepository interface {
	Create(ctx context.Context, form *models.ApplicationForm) error
	GetByID(ctx context.Context, id int64) (*models.ApplicationForm, error)
	// Decide moves a PENDING application to status. ErrStaleState if it is no longer pending.
	Decide(ctx context.Context, id int64, status models.ApplicationStatus, reviewerID int64) error
	ListByCommunity(ctx context.Context, communityID int64, status *models.ApplicationStatus) ([]*models.ApplicationForm, error)
}

// EventRepository stores events and their approval audit trail
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]*models.Event, int64, error)
	// UpdateState writes status, college and rejection fields if the stored version
	// equals expectedVersion, and appends audit when non-nil, atomically. On success
	// event.Version is set to the new version.
	UpdateState(ctx context.Context, event *models.Event, expectedVersion int64, audit *models.EventApproval) error
	// ListCollegeMismatches returns community events whose college copy differs
	// from the community's college.
	ListCollegeMismatches(ctx context.Context) ([]models.CollegeMismatch, error)
	// SwapCollege sets the event college to next only if it still equals expected.
	SwapCollege(ctx context.Context, eventID int64, expected, next *int64) (bool, error)
	ListApprovals(ctx context.Context, eventID int64) ([]*models.EventApproval, error)
}

// StudySpaceRepository stores bookable spaces
type StudySpaceRepository interface {
	Create(ctx context.Context, space *models.StudySpace) error
	GetByID(ctx context.Context, id int64) (*models.StudySpace, error)
	List(ctx context.Context) ([]*models.StudySpace, error)
}

// ReservationRepository stores study space reservations
type ReservationRepository interface {
	// CreateWithinCapacity checks the duplicate and capacity rules and inserts the
	// reservation in one transaction.
	CreateWithinCapacity(ctx context.Context, reservation *models.StudySpaceReservation) error
	GetByID(ctx context.Context, id int64) (*models.StudySpaceReservation, error)
	// Cancel moves an ACTIVE reservation to CANCELLED. ErrInvalidTransition otherwise.
	Cancel(ctx context.Context, id int64) error
	// ExpireBefore moves every ACTIVE reservation dated before day to COMPLETED
	// as one batch and returns the rows it changed.
	ExpireBefore(ctx context.Context, day time.Time) ([]*models.StudySpaceReservation, error)
	ListBySpaceAndDate(ctx context.Context, spaceID int64, day time.Time) ([]*models.StudySpaceReservation, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	CollegeRepository     CollegeRepository
	UserRepository        UserRepository
	CommunityRepository   CommunityRepository
	MemberRepository      MemberRepository
	ApplicationRepository ApplicationRepository
	EventRepository       EventRepository
	StudySpaceRepository  StudySpaceRepository
	ReservationRepository ReservationRepository
}
