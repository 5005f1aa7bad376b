package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/repositories/memory"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

func TestCanCancelEvent(t *testing.T) {
	eng, sci := int64(1), int64(2)
	pending := &models.Event{CreatorID: 10, Status: models.EventPendingClubLeader}
	atDean := &models.Event{CreatorID: 10, Status: models.EventPendingDean}
	draft := &models.Event{CreatorID: 10, Status: models.EventDraft}

	tests := []struct {
		name      string
		actor     *models.User
		event     *models.Event
		collegeID *int64
		want      bool
	}{
		{"nil actor", nil, pending, &eng, false},
		{"creator", &models.User{ID: 10, Role: models.RoleStudent, IsActive: true}, draft, nil, true},
		{"inactive creator", &models.User{ID: 10, Role: models.RoleStudent}, pending, &eng, false},
		{"admin", &models.User{ID: 1, Role: models.RoleAdmin, IsActive: true}, pending, nil, true},
		{"student non-creator", &models.User{ID: 11, Role: models.RoleStudent, IsActive: true}, pending, &eng, false},
		{"dean of same college", &models.User{ID: 12, Role: models.RoleDeanOfFaculty, CollegeID: &eng, IsActive: true}, pending, &eng, true},
		{"dean of other college", &models.User{ID: 13, Role: models.RoleDeanOfFaculty, CollegeID: &sci, IsActive: true}, pending, &eng, false},
		{"dean without governing college", &models.User{ID: 12, Role: models.RoleDeanOfFaculty, CollegeID: &eng, IsActive: true}, pending, nil, false},
		{"dean at own stage", &models.User{ID: 12, Role: models.RoleDeanOfFaculty, CollegeID: &eng, IsActive: true}, atDean, &eng, false},
		{"deanship is campus-wide", &models.User{ID: 14, Role: models.RoleDeanshipOfStudentAffairs, IsActive: true}, atDean, &sci, true},
		{"draft has no stage to outrank", &models.User{ID: 14, Role: models.RoleDeanshipOfStudentAffairs, IsActive: true}, draft, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanCancelEvent(tt.actor, tt.event, tt.collegeID))
		})
	}
}

func TestValidateCommunityManager(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	creator := &models.User{Email: "creator@campus.edu", Role: models.RoleStudent, IsActive: true}
	leader := &models.User{Email: "leader@campus.edu", Role: models.RoleClubLeader, IsActive: true}
	require.NoError(t, repos.UserRepository.Create(ctx, creator))
	require.NoError(t, repos.UserRepository.Create(ctx, leader))
	community := &models.Community{Name: "Chess", CreatedBy: creator.ID, ClubLeaderID: &leader.ID}
	require.NoError(t, repos.CommunityRepository.Create(ctx, community))

	authz := NewAuthorizationService(repos.CommunityRepository)

	assert.NoError(t, authz.ValidateCommunityManager(ctx, leader, community.ID))
	assert.NoError(t, authz.ValidateCommunityManager(ctx, &models.User{ID: 99, Role: models.RoleAdmin, IsActive: true}, community.ID))
	assert.ErrorIs(t, authz.ValidateCommunityManager(ctx, creator, community.ID), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, authz.ValidateCommunityManager(ctx, nil, community.ID), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, authz.ValidateCommunityManager(ctx, leader, 404), apperrors.ErrNotFound)
}
