package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campushub/internal/app/migrations"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/db"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

// testDatabaseEnv names a disposable database the tests may migrate and truncate
const testDatabaseEnv = "CAMPUSHUB_TEST_DATABASE_URL"

func newTestRepos(t *testing.T) *repositories.Repositories {
	t.Helper()
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	ctx := context.Background()

	pg, err := db.Connect(ctx, url, db.PoolOptions{MaxConns: 16})
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	require.NoError(t, migrations.NewMigrator(pg.Pool, zerolog.Nop()).MigrateFromDirectory(ctx, "../../../../migrations"))
	_, err = pg.Pool.Exec(ctx, `TRUNCATE study_space_reservations, study_spaces, event_approvals, events,
		application_forms, community_members, communities, users, colleges RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return NewRepositories(pg)
}

func createUser(t *testing.T, repos *repositories.Repositories, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: "Test", LastName: "User", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, repos.UserRepository.Create(context.Background(), u))
	return u
}

func TestCreateWithinCapacityConcurrent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	space := &models.StudySpace{Name: "Library Room", Capacity: 3}
	require.NoError(t, repos.StudySpaceRepository.Create(ctx, space))
	day := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)

	students := make([]*models.User, 12)
	for i := range students {
		students[i] = createUser(t, repos, fmt.Sprintf("student%d@campus.edu", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		booked   []*models.StudySpaceReservation
		rejected int
	)
	for _, s := range students {
		wg.Add(1)
		go func(studentID int64) {
			defer wg.Done()
			r := &models.StudySpaceReservation{StudentID: studentID, SpaceID: space.ID, Date: day}
			err := repos.ReservationRepository.CreateWithinCapacity(ctx, r)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked = append(booked, r)
			case errors.Is(err, apperrors.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(s.ID)
	}
	wg.Wait()

	assert.Len(t, booked, 3)
	assert.Equal(t, 9, rejected)

	listed, err := repos.ReservationRepository.ListBySpaceAndDate(ctx, space.ID, day)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	again := &models.StudySpaceReservation{StudentID: booked[0].StudentID, SpaceID: space.ID, Date: day}
	assert.ErrorIs(t, repos.ReservationRepository.CreateWithinCapacity(ctx, again), apperrors.ErrDuplicateReservation)

	// a cancelled seat is free again
	require.NoError(t, repos.ReservationRepository.Cancel(ctx, booked[1].ID))
	late := &models.StudySpaceReservation{StudentID: firstWithout(students, booked).ID, SpaceID: space.ID, Date: day}
	require.NoError(t, repos.ReservationRepository.CreateWithinCapacity(ctx, late))

	ghost := &models.StudySpaceReservation{StudentID: students[0].ID, SpaceID: 404, Date: day}
	assert.ErrorIs(t, repos.ReservationRepository.CreateWithinCapacity(ctx, ghost), apperrors.ErrNotFound)
}

func containsStudent(booked []*models.StudySpaceReservation, studentID int64) bool {
	for _, r := range booked {
		if r.StudentID == studentID {
			return true
		}
	}
	return false
}

func firstWithout(students []*models.User, booked []*models.StudySpaceReservation) *models.User {
	for _, s := range students {
		if !containsStudent(booked, s.ID) {
			return s
		}
	}
	return nil
}

func TestCollegeMismatchAndSwap(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	eng := &models.College{Code: "ENG", Name: "Engineering"}
	sci := &models.College{Code: "SCI", Name: "Science"}
	require.NoError(t, repos.CollegeRepository.Create(ctx, eng))
	require.NoError(t, repos.CollegeRepository.Create(ctx, sci))
	creator := createUser(t, repos, "creator@campus.edu")

	engID := eng.ID
	community := &models.Community{Name: "IEEE", CollegeID: &engID, CreatedBy: creator.ID}
	require.NoError(t, repos.CommunityRepository.Create(ctx, community))

	copied := eng.ID
	withCopy := &models.Event{Title: "Talk", CreatorID: creator.ID, CommunityID: &community.ID, CollegeID: &copied, Status: models.EventDraft}
	withoutCopy := &models.Event{Title: "Meetup", CreatorID: creator.ID, CommunityID: &community.ID, Status: models.EventDraft}
	require.NoError(t, repos.EventRepository.Create(ctx, withCopy))
	require.NoError(t, repos.EventRepository.Create(ctx, withoutCopy))

	// a NULL copy differs from a set community college
	mismatches, err := repos.EventRepository.ListCollegeMismatches(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, withoutCopy.ID, mismatches[0].EventID)
	assert.Nil(t, mismatches[0].EventCollegeID)

	require.NoError(t, repos.CommunityRepository.SetCollege(ctx, community.ID, sci.ID))
	mismatches, err = repos.EventRepository.ListCollegeMismatches(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 2)

	for _, m := range mismatches {
		wrong := sci.ID
		swapped, err := repos.EventRepository.SwapCollege(ctx, m.EventID, &wrong, m.CommunityCollege)
		require.NoError(t, err)
		assert.False(t, swapped)

		swapped, err = repos.EventRepository.SwapCollege(ctx, m.EventID, m.EventCollegeID, m.CommunityCollege)
		require.NoError(t, err)
		assert.True(t, swapped)
	}

	mismatches, err = repos.EventRepository.ListCollegeMismatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	loaded, err := repos.EventRepository.GetByID(ctx, withCopy.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.CollegeID)
	assert.Equal(t, sci.ID, *loaded.CollegeID)
	assert.Equal(t, int64(2), loaded.Version)
}

func TestUpdateStateVersionGuard(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	creator := createUser(t, repos, "creator@campus.edu")
	college := &models.College{Code: "ENG", Name: "Engineering"}
	require.NoError(t, repos.CollegeRepository.Create(ctx, college))

	collegeID := college.ID
	event := &models.Event{Title: "Talk", CreatorID: creator.ID, CollegeID: &collegeID, Status: models.EventDraft}
	require.NoError(t, repos.EventRepository.Create(ctx, event))
	require.Equal(t, int64(1), event.Version)

	event.Status = models.EventPendingFacultyLeader
	require.NoError(t, repos.EventRepository.UpdateState(ctx, event, 1, nil))
	assert.Equal(t, int64(2), event.Version)

	stale := *event
	stale.Status = models.EventCancelled
	audit := &models.EventApproval{Stage: models.RoleFacultyLeader, ApproverID: creator.ID, Decision: models.DecisionCancelled}
	assert.ErrorIs(t, repos.EventRepository.UpdateState(ctx, &stale, 1, audit), apperrors.ErrStaleState)

	approvals, err := repos.EventRepository.ListApprovals(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, approvals)

	require.NoError(t, repos.EventRepository.UpdateState(ctx, &stale, 2, audit))
	approvals, err = repos.EventRepository.ListApprovals(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, models.DecisionCancelled, approvals[0].Decision)

	ghost := &models.Event{ID: 404, Status: models.EventCancelled}
	assert.ErrorIs(t, repos.EventRepository.UpdateState(ctx, ghost, 1, nil), apperrors.ErrNotFound)
}
