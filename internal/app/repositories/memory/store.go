// Package memory is an in-process implementation of the repository
// interfaces. All repositories share one Store guarded by a single mutex,
// which gives every multi-step write the atomicity the Postgres
// implementation gets from transactions. Values are copied on the way in and
// on the way out so callers never alias stored state.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/repositories"
)

type state struct {
	colleges     map[int64]models.College
	users        map[int64]models.User
	communities  map[int64]models.Community
	members      map[int64]models.CommunityMember
	applications map[int64]models.ApplicationForm
	events       map[int64]models.Event
	approvals    map[int64]models.EventApproval
	spaces       map[int64]models.StudySpace
	reservations map[int64]models.StudySpaceReservation
}

// Store holds the shared state of all memory repositories
type Store struct {
	mu    sync.RWMutex
	state state
	seq   int64
	now   func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: state{
			colleges:     map[int64]models.College{},
			users:        map[int64]models.User{},
			communities:  map[int64]models.Community{},
			members:      map[int64]models.CommunityMember{},
			applications: map[int64]models.ApplicationForm{},
			events:       map[int64]models.Event{},
			approvals:    map[int64]models.EventApproval{},
			spaces:       map[int64]models.StudySpace{},
			reservations: map[int64]models.StudySpaceReservation{},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRepositories returns every repository backed by a fresh store
func NewRepositories(opts ...Option) *repositories.Repositories {
	return NewStore(opts...).Repositories()
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		CollegeRepository:     &collegeRepository{s},
		UserRepository:        &userRepository{s},
		CommunityRepository:   &communityRepository{s},
		MemberRepository:      &memberRepository{s},
		ApplicationRepository: &applicationRepository{s},
		EventRepository:       &eventRepository{s},
		StudySpaceRepository:  &studySpaceRepository{s},
		ReservationRepository: &reservationRepository{s},
	}
}

// nextID must be called with mu held for writing
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cloneCollege(c models.College) *models.College {
	c.DefaultEventCapacity = clonePtr(c.DefaultEventCapacity)
	return &c
}

func cloneUser(u models.User) *models.User {
	u.CollegeID = clonePtr(u.CollegeID)
	return &u
}

func cloneCommunity(c models.Community) *models.Community {
	c.CollegeID = clonePtr(c.CollegeID)
	c.ClubLeaderID = clonePtr(c.ClubLeaderID)
	return &c
}

func cloneApplication(a models.ApplicationForm) *models.ApplicationForm {
	a.ReviewedBy = clonePtr(a.ReviewedBy)
	return &a
}

func cloneEvent(e models.Event) *models.Event {
	e.CommunityID = clonePtr(e.CommunityID)
	e.CollegeID = clonePtr(e.CollegeID)
	e.Capacity = clonePtr(e.Capacity)
	e.StartsAt = clonePtr(e.StartsAt)
	e.ClubLeaderRejectionReason = clonePtr(e.ClubLeaderRejectionReason)
	e.FacultyLeaderRejectionReason = clonePtr(e.FacultyLeaderRejectionReason)
	e.DeanRejectionReason = clonePtr(e.DeanRejectionReason)
	e.DeanshipRejectionReason = clonePtr(e.DeanshipRejectionReason)
	return &e
}

func cloneStudySpace(sp models.StudySpace) *models.StudySpace {
	sp.CollegeID = clonePtr(sp.CollegeID)
	return &sp
}
