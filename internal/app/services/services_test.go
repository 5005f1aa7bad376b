package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/app/repositories/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type published struct {
	topic   string
	payload any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []published
}

func (n *recordingNotifier) Publish(_ context.Context, topic string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, published{topic: topic, payload: payload})
	return nil
}

func (n *recordingNotifier) onTopic(topic string) []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []any
	for _, p := range n.sent {
		if p.topic == topic {
			out = append(out, p.payload)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	repos    *repositories.Repositories
	svc      *Services
	notifier *recordingNotifier

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC),
	}
	f.repos = memory.NewRepositories(memory.WithClock(f.clock))
	f.svc = NewServices(Config{
		Repos:    f.repos,
		Logger:   zerolog.Nop(),
		Notifier: f.notifier,
		Now:      f.clock,
	})
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) college(code string) *models.College {
	f.t.Helper()
	c, err := f.svc.Directory.CreateCollege(f.ctx, &dto.CreateCollegeRequest{Code: code, Name: "College " + code})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) user(email string, role models.Role, collegeID *int64) *models.User {
	f.t.Helper()
	u, err := f.svc.Registry.CreateUser(f.ctx, &dto.CreateUserRequest{
		Email: email, FirstName: "Test", LastName: "User", Role: role, CollegeID: collegeID,
	})
	require.NoError(f.t, err)
	return u
}

func (f *fixture) community(name string, collegeID *int64, creator, leader *models.User) *models.Community {
	f.t.Helper()
	c, err := f.svc.Directory.CreateCommunity(f.ctx, &dto.CreateCommunityRequest{Name: name, CollegeID: collegeID}, creator.ID)
	require.NoError(f.t, err)
	if leader != nil {
		c, err = f.svc.Registry.SetClubLeader(f.ctx, c.ID, leader.ID)
		require.NoError(f.t, err)
	}
	return c
}

func (f *fixture) event(creator *models.User, communityID, collegeID *int64) *models.Event {
	f.t.Helper()
	e, err := f.svc.Events.CreateEvent(f.ctx, &dto.CreateEventRequest{
		Title: "Robotics Workshop", CommunityID: communityID, CollegeID: collegeID,
	}, creator)
	require.NoError(f.t, err)
	return e
}

// globals creates the campus-wide deanship holder and an administrator
func (f *fixture) globals() (deanship, admin *models.User) {
	f.t.Helper()
	return f.user("deanship@campus.edu", models.RoleDeanshipOfStudentAffairs, nil),
		f.user("admin@campus.edu", models.RoleAdmin, nil)
}

// campus is a college with a full set of approvers and one community
type campus struct {
	college       *models.College
	community     *models.Community
	clubLeader    *models.User
	facultyLeader *models.User
	dean          *models.User
	student       *models.User
}

func (f *fixture) campus(code string) *campus {
	f.t.Helper()
	c := &campus{college: f.college(code)}
	id := &c.college.ID
	c.clubLeader = f.user("leader@"+code+".edu", models.RoleClubLeader, id)
	c.facultyLeader = f.user("faculty@"+code+".edu", models.RoleFacultyLeader, id)
	c.dean = f.user("dean@"+code+".edu", models.RoleDeanOfFaculty, id)
	c.student = f.user("student@"+code+".edu", models.RoleStudent, id)
	c.community = f.community("IEEE "+code, id, c.student, c.clubLeader)
	return c
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
