package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/app/repositories/memory"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

// stubRegistry answers approver lookups from fixed tables
type stubRegistry struct {
	users     map[int64]*models.User
	approvers map[models.Role]*models.User
	err       error
}

func (r *stubRegistry) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (r *stubRegistry) FindApprover(_ context.Context, role models.Role, _ *int64) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.approvers[role], nil
}

func newCommunity(t *testing.T, repos *repositories.Repositories, collegeID *int64, leaderID *int64) *models.Community {
	t.Helper()
	ctx := context.Background()
	creator := &models.User{Email: "creator@campus.edu", Role: models.RoleStudent, IsActive: true}
	if existing, err := repos.UserRepository.GetByEmail(ctx, creator.Email); err == nil {
		creator = existing
	} else {
		require.NoError(t, repos.UserRepository.Create(ctx, creator))
	}
	c := &models.Community{Name: "Community", CollegeID: collegeID, ClubLeaderID: leaderID, CreatedBy: creator.ID}
	require.NoError(t, repos.CommunityRepository.Create(ctx, c))
	return c
}

func TestResolveChainOrdering(t *testing.T) {
	repos := memory.NewRepositories()
	ctx := context.Background()
	college := &models.College{Code: "ENG", Name: "Engineering"}
	require.NoError(t, repos.CollegeRepository.Create(ctx, college))
	community := newCommunity(t, repos, &college.ID, nil)
	resolver := NewResolver(repos.CommunityRepository, &stubRegistry{})

	chain, err := resolver.ResolveChain(ctx, &models.Event{CommunityID: &community.ID})
	require.NoError(t, err)
	assert.Equal(t, college.ID, chain.CollegeID)
	assert.Equal(t, []models.Role{
		models.RoleClubLeader, models.RoleFacultyLeader, models.RoleDeanOfFaculty, models.RoleDeanshipOfStudentAffairs,
	}, chain.Roles())
	assert.Equal(t, ClubLeader, chain.First())

	next, ok := chain.Next(Dean)
	require.True(t, ok)
	assert.Equal(t, Deanship, next)
	_, ok = chain.Next(Deanship)
	assert.False(t, ok)

	collegeChain, err := resolver.ResolveChain(ctx, &models.Event{CollegeID: &college.ID})
	require.NoError(t, err)
	assert.Equal(t, FacultyLeader, collegeChain.First())
	assert.False(t, collegeChain.Contains(ClubLeader))

	// a community event is governed by the community's college, not its own copy
	stale := int64(999)
	chain, err = resolver.ResolveChain(ctx, &models.Event{CommunityID: &community.ID, CollegeID: &stale})
	require.NoError(t, err)
	assert.Equal(t, college.ID, chain.CollegeID)
}

func TestResolveChainUnresolvedCollege(t *testing.T) {
	repos := memory.NewRepositories()
	community := newCommunity(t, repos, nil, nil)
	resolver := NewResolver(repos.CommunityRepository, &stubRegistry{})

	_, err := resolver.ResolveChain(context.Background(), &models.Event{CommunityID: &community.ID})
	assert.ErrorIs(t, err, apperrors.ErrUnresolvedCollege)

	_, err = resolver.ResolveChain(context.Background(), &models.Event{})
	assert.ErrorIs(t, err, apperrors.ErrUnresolvedCollege)

	missing := int64(404)
	_, err = resolver.ResolveChain(context.Background(), &models.Event{CommunityID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResolveApprover(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	college := &models.College{Code: "SCI", Name: "Science"}
	require.NoError(t, repos.CollegeRepository.Create(ctx, college))

	leader := &models.User{ID: 50, Role: models.RoleClubLeader, IsActive: true}
	dean := &models.User{ID: 51, Role: models.RoleDeanOfFaculty, IsActive: true}
	registry := &stubRegistry{
		users:     map[int64]*models.User{leader.ID: leader},
		approvers: map[models.Role]*models.User{models.RoleDeanOfFaculty: dean},
	}
	community := newCommunity(t, repos, &college.ID, &leader.ID)
	resolver := NewResolver(repos.CommunityRepository, registry)
	event := &models.Event{CommunityID: &community.ID}

	chain, err := resolver.ResolveChain(ctx, event)
	require.NoError(t, err)

	got, err := resolver.ResolveApprover(ctx, event, chain, ClubLeader)
	require.NoError(t, err)
	assert.Equal(t, leader.ID, got.ID)

	got, err = resolver.ResolveApprover(ctx, event, chain, Dean)
	require.NoError(t, err)
	assert.Equal(t, dean.ID, got.ID)

	_, err = resolver.ResolveApprover(ctx, event, chain, FacultyLeader)
	assert.ErrorIs(t, err, apperrors.ErrStageBlocked)

	// a leader who lost the role no longer decides the stage
	leader.Role = models.RoleStudent
	_, err = resolver.ResolveApprover(ctx, event, chain, ClubLeader)
	assert.ErrorIs(t, err, apperrors.ErrStageBlocked)

	collegeEvent := &models.Event{CollegeID: &college.ID}
	collegeChain, err := resolver.ResolveChain(ctx, collegeEvent)
	require.NoError(t, err)
	_, err = resolver.ResolveApprover(ctx, collegeEvent, collegeChain, ClubLeader)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	registry.err = apperrors.ErrAmbiguousApprover
	_, err = resolver.ResolveApprover(ctx, event, chain, Deanship)
	assert.ErrorIs(t, err, apperrors.ErrAmbiguousApprover)
}

func TestStageLookups(t *testing.T) {
	stage, ok := StageForStatus(models.EventPendingDean)
	require.True(t, ok)
	assert.Equal(t, Dean, stage)
	assert.Equal(t, ScopeCollege, stage.Scope())
	assert.Equal(t, models.EventRejectedDean, stage.RejectedStatus())

	_, ok = StageForStatus(models.EventDraft)
	assert.False(t, ok)

	stage, ok = StageForRejection(models.EventRejectedDeanship)
	require.True(t, ok)
	assert.Equal(t, Deanship, stage)
	assert.Equal(t, "global", stage.Scope().String())
}
