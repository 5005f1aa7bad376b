package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/messaging"
)

func TestCommunityEventWalksFullChain(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	deanship, _ := f.globals()

	event := f.event(eng.student, &eng.community.ID, nil)
	require.NotNil(t, event.CollegeID)
	assert.Equal(t, eng.college.ID, *event.CollegeID)
	assert.Equal(t, models.EventDraft, event.Status)

	event, err := f.svc.Events.Submit(f.ctx, event.ID, eng.student)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingClubLeader, event.Status)

	chain, err := f.svc.Events.ResolveChain(f.ctx, event.ID)
	require.NoError(t, err)
	roles := make([]models.Role, len(chain.Stages))
	for i, st := range chain.Stages {
		roles[i] = st.Role
		require.NotNil(t, st.ApproverID, "stage %s", st.Role)
	}
	assert.Equal(t, []models.Role{
		models.RoleClubLeader, models.RoleFacultyLeader, models.RoleDeanOfFaculty, models.RoleDeanshipOfStudentAffairs,
	}, roles)
	assert.True(t, chain.Stages[0].Current)

	steps := []struct {
		approver *models.User
		want     models.EventStatus
	}{
		{eng.clubLeader, models.EventPendingFacultyLeader},
		{eng.facultyLeader, models.EventPendingDean},
		{eng.dean, models.EventPendingDeanship},
		{deanship, models.EventApproved},
	}
	for _, step := range steps {
		current, err := f.svc.Events.CurrentApprover(f.ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, step.approver.ID, current.Approver.ID)

		event, err = f.svc.Events.Approve(f.ctx, event.ID, step.approver)
		require.NoError(t, err)
		assert.Equal(t, step.want, event.Status)
	}

	approvals, err := f.svc.Events.ListApprovals(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 4)
	for i, a := range approvals {
		assert.Equal(t, roles[i], a.Stage)
		assert.Equal(t, steps[i].approver.ID, a.ApproverID)
		assert.Equal(t, models.DecisionApproved, a.Decision)
	}

	// submit plus four approvals
	assert.Len(t, f.notifier.onTopic(messaging.TopicEventLifecycle), 5)

	_, err = f.svc.Events.Cancel(f.ctx, event.ID, eng.student)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCollegeEventSkipsClubLeaderStage(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	f.globals()

	event := f.event(eng.facultyLeader, nil, &eng.college.ID)
	event, err := f.svc.Events.Submit(f.ctx, event.ID, eng.facultyLeader)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingFacultyLeader, event.Status)

	chain, err := f.svc.Events.ResolveChain(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, chain.Stages, 3)
	assert.Equal(t, models.RoleFacultyLeader, chain.Stages[0].Role)
}

func TestApproverIdentityIsScopedToCollege(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	sci := f.campus("SCI")
	_, admin := f.globals()

	event := f.event(eng.student, &eng.community.ID, nil)
	_, err := f.svc.Events.Submit(f.ctx, event.ID, eng.student)
	require.NoError(t, err)
	_, err = f.svc.Events.Approve(f.ctx, event.ID, eng.clubLeader)
	require.NoError(t, err)

	for _, actor := range []*models.User{sci.facultyLeader, eng.dean, admin, eng.student} {
		_, err = f.svc.Events.Approve(f.ctx, event.ID, actor)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRole, "actor %s", actor.Email)
	}

	stored, err := f.svc.Events.GetEvent(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingFacultyLeader, stored.Status)

	approvals, err := f.svc.Events.ListApprovals(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, approvals, 1)
}

func TestMissingDeanBlocksAtDeanStage(t *testing.T) {
	f := newFixture(t)
	college := f.college("LAW")
	leader := f.user("leader@law.edu", models.RoleClubLeader, nil)
	faculty := f.user("faculty@law.edu", models.RoleFacultyLeader, &college.ID)
	student := f.user("student@law.edu", models.RoleStudent, &college.ID)
	community := f.community("Debate Club", &college.ID, student, leader)
	f.globals()

	event := f.event(student, &community.ID, nil)
	_, err := f.svc.Events.Submit(f.ctx, event.ID, student)
	require.NoError(t, err)
	_, err = f.svc.Events.Approve(f.ctx, event.ID, leader)
	require.NoError(t, err)
	event, err = f.svc.Events.Approve(f.ctx, event.ID, faculty)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingDean, event.Status)

	_, err = f.svc.Events.CurrentApprover(f.ctx, event.ID)
	assert.ErrorIs(t, err, apperrors.ErrStageBlocked)

	_, err = f.svc.Events.Approve(f.ctx, event.ID, faculty)
	assert.ErrorIs(t, err, apperrors.ErrStageBlocked)

	chain, err := f.svc.Events.ResolveChain(f.ctx, event.ID)
	require.NoError(t, err)
	var dean *dto.ChainStageResponse
	for i := range chain.Stages {
		if chain.Stages[i].Role == models.RoleDeanOfFaculty {
			dean = &chain.Stages[i]
		}
	}
	require.NotNil(t, dean)
	assert.True(t, dean.Current)
	assert.Nil(t, dean.ApproverID)
	assert.NotEmpty(t, dean.Problem)

	// the event waits at the stage until a dean is assigned
	newDean, err := f.svc.Registry.AssignRole(f.ctx, faculty.ID, models.RoleDeanOfFaculty, &college.ID)
	require.NoError(t, err)
	event, err = f.svc.Events.Approve(f.ctx, event.ID, newDean)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingDeanship, event.Status)
}

func TestAmbiguousApproverIsReported(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	second := f.user("faculty2@eng.edu", models.RoleFacultyLeader, &eng.college.ID)

	event := f.event(eng.student, &eng.community.ID, nil)
	_, err := f.svc.Events.Submit(f.ctx, event.ID, eng.student)
	require.NoError(t, err)
	_, err = f.svc.Events.Approve(f.ctx, event.ID, eng.clubLeader)
	require.NoError(t, err)

	for _, actor := range []*models.User{eng.facultyLeader, second} {
		_, err = f.svc.Events.Approve(f.ctx, event.ID, actor)
		assert.ErrorIs(t, err, apperrors.ErrAmbiguousApprover)
	}

	require.NoError(t, f.svc.Registry.DeactivateUser(f.ctx, second.ID))
	event, err = f.svc.Events.Approve(f.ctx, event.ID, eng.facultyLeader)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingDean, event.Status)
}

func TestSubmitRequiresResolvableCollege(t *testing.T) {
	f := newFixture(t)
	student := f.user("student@campus.edu", models.RoleStudent, nil)
	orphan := f.community("Chess Club", nil, student, nil)

	withCommunity := f.event(student, &orphan.ID, nil)
	assert.Nil(t, withCommunity.CollegeID)
	_, err := f.svc.Events.Submit(f.ctx, withCommunity.ID, student)
	assert.ErrorIs(t, err, apperrors.ErrUnresolvedCollege)

	standalone := f.event(student, nil, nil)
	_, err = f.svc.Events.Submit(f.ctx, standalone.ID, student)
	assert.ErrorIs(t, err, apperrors.ErrUnresolvedCollege)

	stored, err := f.svc.Events.GetEvent(f.ctx, withCommunity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventDraft, stored.Status)
}

func TestSubmitIsLimitedToCreatorAndAdmin(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	_, admin := f.globals()

	event := f.event(eng.student, &eng.community.ID, nil)
	_, err := f.svc.Events.Submit(f.ctx, event.ID, eng.dean)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.svc.Events.Submit(f.ctx, event.ID, admin)
	require.NoError(t, err)

	_, err = f.svc.Events.Submit(f.ctx, event.ID, eng.student)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestStaleWriteLoses(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")

	event := f.event(eng.student, &eng.community.ID, nil)
	loaded, err := f.repos.EventRepository.GetByID(f.ctx, event.ID)
	require.NoError(t, err)

	_, err = f.svc.Events.Submit(f.ctx, event.ID, eng.student)
	require.NoError(t, err)

	loaded.Status = models.EventCancelled
	err = f.repos.EventRepository.UpdateState(f.ctx, loaded, loaded.Version, nil)
	assert.ErrorIs(t, err, apperrors.ErrStaleState)

	stored, err := f.svc.Events.GetEvent(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingClubLeader, stored.Status)
}

func TestRejectAndResubmit(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")

	event := f.event(eng.student, &eng.community.ID, nil)
	_, err := f.svc.Events.Submit(f.ctx, event.ID, eng.student)
	require.NoError(t, err)

	_, err = f.svc.Events.Reject(f.ctx, event.ID, eng.clubLeader, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	rejected, err := f.svc.Events.Reject(f.ctx, event.ID, eng.clubLeader, " Venue unavailable ")
	require.NoError(t, err)
	assert.Equal(t, models.EventRejectedClubLeader, rejected.Status)
	require.NotNil(t, rejected.ClubLeaderRejectionReason)
	assert.Equal(t, "Venue unavailable", *rejected.ClubLeaderRejectionReason)

	_, err = f.svc.Events.Approve(f.ctx, event.ID, eng.clubLeader)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	approvals, err := f.svc.Events.ListApprovals(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, models.DecisionRejected, approvals[0].Decision)

	_, err = f.svc.Events.Resubmit(f.ctx, event.ID, eng.clubLeader)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	draft, err := f.svc.Events.Resubmit(f.ctx, event.ID, eng.student)
	require.NoError(t, err)
	assert.NotEqual(t, event.ID, draft.ID)
	assert.Equal(t, models.EventDraft, draft.Status)
	assert.Equal(t, event.Title, draft.Title)
	assert.Equal(t, *event.Capacity, *draft.Capacity)
	assert.Nil(t, draft.ClubLeaderRejectionReason)

	original, err := f.svc.Events.GetEvent(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventRejectedClubLeader, original.Status)
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	other := f.user("other@eng.edu", models.RoleStudent, &eng.college.ID)

	draft := f.event(eng.student, &eng.community.ID, nil)
	cancelled, err := f.svc.Events.Cancel(f.ctx, draft.ID, eng.student)
	require.NoError(t, err)
	assert.Equal(t, models.EventCancelled, cancelled.Status)
	approvals, err := f.svc.Events.ListApprovals(f.ctx, draft.ID)
	require.NoError(t, err)
	assert.Empty(t, approvals)

	_, err = f.svc.Events.Cancel(f.ctx, draft.ID, eng.student)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	pending := f.event(eng.student, &eng.community.ID, nil)
	_, err = f.svc.Events.Submit(f.ctx, pending.ID, eng.student)
	require.NoError(t, err)

	_, err = f.svc.Events.Cancel(f.ctx, pending.ID, other)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// rank alone is not enough across colleges
	sci := f.campus("SCI")
	_, err = f.svc.Events.Cancel(f.ctx, pending.ID, sci.facultyLeader)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.svc.Events.Cancel(f.ctx, pending.ID, sci.dean)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// the dean outranks the club leader stage the event waits on
	cancelled, err = f.svc.Events.Cancel(f.ctx, pending.ID, eng.dean)
	require.NoError(t, err)
	assert.Equal(t, models.EventCancelled, cancelled.Status)

	approvals, err = f.svc.Events.ListApprovals(f.ctx, pending.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, models.DecisionCancelled, approvals[0].Decision)
	assert.Equal(t, models.RoleClubLeader, approvals[0].Stage)
	assert.Equal(t, eng.dean.ID, approvals[0].ApproverID)
}

func TestEventCapacityDefaults(t *testing.T) {
	f := newFixture(t)
	withDefault, err := f.svc.Directory.CreateCollege(f.ctx, &dto.CreateCollegeRequest{
		Code: "MED", Name: "Medicine", DefaultEventCapacity: intPtr(150),
	})
	require.NoError(t, err)
	plain := f.college("ART")
	creator := f.user("creator@campus.edu", models.RoleStudent, nil)

	explicit, err := f.svc.Events.CreateEvent(f.ctx, &dto.CreateEventRequest{
		Title: "Talk", CollegeID: &withDefault.ID, Capacity: intPtr(40),
	}, creator)
	require.NoError(t, err)
	assert.Equal(t, 40, *explicit.Capacity)

	fromCollege := f.event(creator, nil, &withDefault.ID)
	assert.Equal(t, 150, *fromCollege.Capacity)

	fromConfig := f.event(creator, nil, &plain.ID)
	assert.Equal(t, DefaultEventCapacity, *fromConfig.Capacity)

	_, err = f.svc.Events.CreateEvent(f.ctx, &dto.CreateEventRequest{Title: "Talk", Capacity: intPtr(0)}, creator)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestCreateEventChecksCollegeAgainstCommunity(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	sci := f.college("SCI")

	_, err := f.svc.Events.CreateEvent(f.ctx, &dto.CreateEventRequest{
		Title: "Hackathon", CommunityID: &eng.community.ID, CollegeID: &sci.ID,
	}, eng.student)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	matching := f.event(eng.student, &eng.community.ID, &eng.college.ID)
	assert.Equal(t, eng.college.ID, *matching.CollegeID)

	disabled := f.user("gone@eng.edu", models.RoleStudent, nil)
	require.NoError(t, f.svc.Registry.DeactivateUser(f.ctx, disabled.ID))
	disabled.IsActive = false
	_, err = f.svc.Events.CreateEvent(f.ctx, &dto.CreateEventRequest{Title: "Party"}, disabled)
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestReconcileEventColleges(t *testing.T) {
	f := newFixture(t)
	eng := f.campus("ENG")
	sci := f.campus("SCI")

	first := f.event(eng.student, &eng.community.ID, nil)
	_, err := f.svc.Events.Submit(f.ctx, first.ID, eng.student)
	require.NoError(t, err)
	second := f.event(eng.student, &eng.community.ID, nil)
	untouched := f.event(sci.student, &sci.community.ID, nil)

	link, err := f.svc.Directory.LinkCommunityToCollege(f.ctx, eng.community.ID, sci.college.ID)
	require.NoError(t, err)
	assert.True(t, link.Changed)

	// approvals follow the community's current college before reconciliation
	current, err := f.svc.Events.CurrentApprover(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, eng.clubLeader.ID, current.Approver.ID)
	_, err = f.svc.Events.Approve(f.ctx, first.ID, eng.clubLeader)
	require.NoError(t, err)
	_, err = f.svc.Events.Approve(f.ctx, first.ID, eng.facultyLeader)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	report, err := f.svc.Events.ReconcileEventColleges(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 2, report.Corrected)
	assert.Zero(t, report.Skipped)
	require.Len(t, report.Corrections, 2)
	assert.Equal(t, first.ID, report.Corrections[0].EventID)
	assert.Equal(t, eng.college.ID, *report.Corrections[0].From)
	assert.Equal(t, sci.college.ID, *report.Corrections[0].To)

	for _, id := range []int64{first.ID, second.ID, untouched.ID} {
		event, err := f.svc.Events.GetEvent(f.ctx, id)
		require.NoError(t, err)
		community, err := f.svc.Directory.GetCommunity(f.ctx, *event.CommunityID)
		require.NoError(t, err)
		assert.Equal(t, *community.CollegeID, *event.CollegeID, "event %d", id)
	}

	again, err := f.svc.Events.ReconcileEventColleges(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Checked)
	assert.Zero(t, again.Corrected)
	assert.Empty(t, again.Corrections)

	reports := f.notifier.onTopic(messaging.TopicMaintenance)
	require.Len(t, reports, 2)
	assert.Equal(t, []int64{first.ID, second.ID}, reports[0].(messaging.MaintenanceReport).Affected)

	event, err := f.svc.Events.Approve(f.ctx, first.ID, sci.facultyLeader)
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingDean, event.Status)
}
