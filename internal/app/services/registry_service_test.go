package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

func TestSetClubLeaderKeepsCreator(t *testing.T) {
	f := newFixture(t)
	eng := f.college("ENG")
	founder := f.user("founder@eng.edu", models.RoleStudent, &eng.ID)
	leader := f.user("leader@eng.edu", models.RoleClubLeader, &eng.ID)
	community := f.community("Robotics", &eng.ID, founder, nil)

	_, err := f.svc.Registry.SetClubLeader(f.ctx, community.ID, founder.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	updated, err := f.svc.Registry.SetClubLeader(f.ctx, community.ID, leader.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.ClubLeaderID)
	assert.Equal(t, leader.ID, *updated.ClubLeaderID)
	assert.Equal(t, founder.ID, updated.CreatedBy)

	member, err := f.repos.MemberRepository.Get(f.ctx, community.ID, leader.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleAdmin, member.Role)

	// the leader now manages the community
	added, err := f.svc.Registry.AddMember(f.ctx, leader, community.ID, &dto.AddMemberRequest{UserID: founder.ID})
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleMember, added.Role)

	_, err = f.svc.Registry.AddMember(f.ctx, founder, community.ID, &dto.AddMemberRequest{UserID: leader.ID})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestApplicationFlow(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	applicant := f.user("applicant@eng.edu", models.RoleStudent, &eng.college.ID)

	form, err := f.svc.Registry.SubmitApplication(f.ctx, applicant.ID, eng.community.ID, " I build robots ")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, form.Status)
	assert.Equal(t, "I build robots", form.Motivation)

	_, err = f.svc.Registry.SubmitApplication(f.ctx, applicant.ID, eng.community.ID, "again")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)

	_, err = f.svc.Registry.ReviewApplication(f.ctx, applicant, form.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	pending := models.ApplicationPending
	listed, err := f.svc.Registry.ListApplications(f.ctx, eng.clubLeader, eng.community.ID, &pending)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	reviewed, err := f.svc.Registry.ReviewApplication(f.ctx, eng.clubLeader, form.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, eng.clubLeader.ID, *reviewed.ReviewedBy)

	_, err = f.svc.Registry.ReviewApplication(f.ctx, eng.clubLeader, form.ID, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.repos.MemberRepository.Get(f.ctx, eng.community.ID, applicant.ID)
	require.NoError(t, err)

	_, err = f.svc.Registry.SubmitApplication(f.ctx, applicant.ID, eng.community.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)

	require.NoError(t, f.svc.Registry.LeaveCommunity(f.ctx, eng.community.ID, applicant.ID))
	_, err = f.svc.Registry.JoinCommunity(f.ctx, eng.community.ID, applicant.ID)
	require.NoError(t, err)
	_, err = f.svc.Registry.JoinCommunity(f.ctx, eng.community.ID, applicant.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)
}

func TestRoleAssignmentRules(t *testing.T) {
	f := newFixture(t)
	eng := f.college("ENG")

	_, err := f.svc.Registry.CreateUser(f.ctx, &dto.CreateUserRequest{
		Email: "dean@eng.edu", FirstName: "No", LastName: "College", Role: models.RoleDeanOfFaculty,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.Registry.CreateUser(f.ctx, &dto.CreateUserRequest{
		Email: "x@eng.edu", FirstName: "Bad", LastName: "Role", Role: models.Role("PRINCIPAL"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	user := f.user("Someone@ENG.edu", models.RoleStudent, nil)
	assert.Equal(t, "someone@eng.edu", user.Email)

	_, err = f.svc.Registry.CreateUser(f.ctx, &dto.CreateUserRequest{
		Email: "someone@eng.edu", FirstName: "Same", LastName: "Email", Role: models.RoleStudent,
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	// the deanship is campus-wide, so a college is dropped on assignment
	promoted, err := f.svc.Registry.AssignRole(f.ctx, user.ID, models.RoleDeanshipOfStudentAffairs, &eng.ID)
	require.NoError(t, err)
	assert.Nil(t, promoted.CollegeID)

	found, err := f.svc.Registry.FindApprover(f.ctx, models.RoleDeanshipOfStudentAffairs, &eng.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	require.NoError(t, f.svc.Registry.DeactivateUser(f.ctx, user.ID))
	found, err = f.svc.Registry.FindApprover(f.ctx, models.RoleDeanshipOfStudentAffairs, nil)
	require.NoError(t, err)
	assert.Nil(t, found)

	_, err = f.svc.Registry.FindApprover(f.ctx, models.RoleFacultyLeader, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestLinkCommunityToCollegeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	eng := f.college("ENG")
	sci := f.college("SCI")
	creator := f.user("creator@campus.edu", models.RoleStudent, nil)
	community := f.community("Astronomy", nil, creator, nil)

	_, err := f.svc.Directory.ResolveCollegeForCommunity(f.ctx, community.ID)
	assert.ErrorIs(t, err, apperrors.ErrCollegeNotAssigned)

	first, err := f.svc.Directory.LinkCommunityToCollege(f.ctx, community.ID, eng.ID)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Nil(t, first.PreviousCollegeID)

	again, err := f.svc.Directory.LinkCommunityToCollege(f.ctx, community.ID, eng.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)

	moved, err := f.svc.Directory.LinkCommunityToCollege(f.ctx, community.ID, sci.ID)
	require.NoError(t, err)
	assert.True(t, moved.Changed)
	require.NotNil(t, moved.PreviousCollegeID)
	assert.Equal(t, eng.ID, *moved.PreviousCollegeID)

	college, err := f.svc.Directory.ResolveCollegeForCommunity(f.ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, sci.ID, college.ID)

	_, err = f.svc.Directory.LinkCommunityToCollege(f.ctx, community.ID, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Directory.CreateCollege(f.ctx, &dto.CreateCollegeRequest{Code: "ENG", Name: "Again"})
	assert.ErrorIs(t, err, apperrors.ErrCollegeAlreadyExists)
}

func TestMembershipChangesNeedAnActor(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	_, err := f.svc.Registry.JoinCommunity(f.ctx, eng.community.ID, eng.student.ID)
	require.NoError(t, err)

	err = f.svc.Registry.RemoveMember(f.ctx, nil, eng.community.ID, eng.student.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.svc.Registry.AddMember(f.ctx, nil, eng.community.ID, &dto.AddMemberRequest{UserID: eng.dean.ID})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	require.NoError(t, f.svc.Registry.RemoveMember(f.ctx, eng.student, eng.community.ID, eng.student.ID))
}
