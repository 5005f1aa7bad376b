package memory

import (
	"context"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/helpers"
)

type eventRepository struct{ s *Store }

func (r *eventRepository) Create(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.state.users[event.CreatorID]; !ok {
		return apperrors.NewNotFoundError("referenced creator, community or college not found")
	}
	if event.CommunityID != nil {
		if _, ok := r.s.state.communities[*event.CommunityID]; !ok {
			return apperrors.NewNotFoundError("referenced creator, community or college not found")
		}
	}
	if event.CollegeID != nil {
		if _, ok := r.s.state.colleges[*event.CollegeID]; !ok {
			return apperrors.NewNotFoundError("referenced creator, community or college not found")
		}
	}
	event.ID = r.s.nextID()
	event.Version = 1
	event.CreatedAt = r.s.timestamp()
	event.UpdatedAt = event.CreatedAt
	r.s.state.events[event.ID] = *cloneEvent(*event)
	return nil
}

func (r *eventRepository) GetByID(_ context.Context, id int64) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.state.events[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *eventRepository) List(_ context.Context, filter models.EventFilter) ([]*models.Event, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := sortedIDs(r.s.state.events)
	matched := []*models.Event{}
	for i := len(ids) - 1; i >= 0; i-- {
		e := r.s.state.events[ids[i]]
		if filter.CommunityID != nil && !sameID(e.CommunityID, filter.CommunityID) {
			continue
		}
		if filter.CollegeID != nil && !sameID(e.CollegeID, filter.CollegeID) {
			continue
		}
		if filter.CreatorID != nil && e.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		matched = append(matched, cloneEvent(e))
	}

	start, end := helpers.SliceWindow(filter.Offset, filter.Limit, len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *eventRepository) UpdateState(_ context.Context, event *models.Event, expectedVersion int64, audit *models.EventApproval) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.state.events[event.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return apperrors.ErrStaleState
	}

	stored.Status = event.Status
	stored.CollegeID = clonePtr(event.CollegeID)
	stored.ClubLeaderRejectionReason = clonePtr(event.ClubLeaderRejectionReason)
	stored.FacultyLeaderRejectionReason = clonePtr(event.FacultyLeaderRejectionReason)
	stored.DeanRejectionReason = clonePtr(event.DeanRejectionReason)
	stored.DeanshipRejectionReason = clonePtr(event.DeanshipRejectionReason)
	stored.Version++
	stored.UpdatedAt = r.s.timestamp()
	r.s.state.events[event.ID] = stored

	event.Version = stored.Version
	event.UpdatedAt = stored.UpdatedAt

	if audit != nil {
		audit.ID = r.s.nextID()
		audit.EventID = event.ID
		audit.DecidedAt = stored.UpdatedAt
		a := *audit
		a.Reason = clonePtr(audit.Reason)
		r.s.state.approvals[a.ID] = a
	}
	return nil
}

func (r *eventRepository) ListCollegeMismatches(_ context.Context) ([]models.CollegeMismatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.CollegeMismatch{}
	for _, id := range sortedIDs(r.s.state.events) {
		e := r.s.state.events[id]
		if e.CommunityID == nil {
			continue
		}
		c, ok := r.s.state.communities[*e.CommunityID]
		if !ok || sameID(e.CollegeID, c.CollegeID) {
			continue
		}
		out = append(out, models.CollegeMismatch{
			EventID:          e.ID,
			EventCollegeID:   clonePtr(e.CollegeID),
			CommunityCollege: clonePtr(c.CollegeID),
		})
	}
	return out, nil
}

func (r *eventRepository) SwapCollege(_ context.Context, eventID int64, expected, next *int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.state.events[eventID]
	if !ok || !sameID(e.CollegeID, expected) {
		return false, nil
	}
	e.CollegeID = clonePtr(next)
	e.Version++
	e.UpdatedAt = r.s.timestamp()
	r.s.state.events[eventID] = e
	return true, nil
}

func (r *eventRepository) ListApprovals(_ context.Context, eventID int64) ([]*models.EventApproval, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.EventApproval{}
	for _, id := range sortedIDs(r.s.state.approvals) {
		a := r.s.state.approvals[id]
		if a.EventID == eventID {
			a.Reason = clonePtr(a.Reason)
			out = append(out, &a)
		}
	}
	return out, nil
}
