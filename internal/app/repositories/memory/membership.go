package memory

import (
	"context"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

type memberRepository struct{ s *Store }

// findMember must be called with mu held
func (r *memberRepository) findMember(communityID, userID int64) (models.CommunityMember, bool) {
	for _, m := range r.s.state.members {
		if m.CommunityID == communityID && m.UserID == userID {
			return m, true
		}
	}
	return models.CommunityMember{}, false
}

func (r *memberRepository) checkRefs(communityID, userID int64) error {
	if _, ok := r.s.state.communities[communityID]; !ok {
		return apperrors.ErrNotFound
	}
	if _, ok := r.s.state.users[userID]; !ok {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *memberRepository) Add(_ context.Context, member *models.CommunityMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefs(member.CommunityID, member.UserID); err != nil {
		return err
	}
	if _, ok := r.findMember(member.CommunityID, member.UserID); ok {
		return apperrors.ErrAlreadyMember
	}
	member.ID = r.s.nextID()
	member.JoinDate = r.s.timestamp()
	r.s.state.members[member.ID] = *member
	return nil
}

func (r *memberRepository) Upsert(_ context.Context, member *models.CommunityMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefs(member.CommunityID, member.UserID); err != nil {
		return err
	}
	if existing, ok := r.findMember(member.CommunityID, member.UserID); ok {
		existing.Role = member.Role
		r.s.state.members[existing.ID] = existing
		*member = existing
		return nil
	}
	member.ID = r.s.nextID()
	member.JoinDate = r.s.timestamp()
	r.s.state.members[member.ID] = *member
	return nil
}

func (r *memberRepository) Get(_ context.Context, communityID, userID int64) (*models.CommunityMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.findMember(communityID, userID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &m, nil
}

func (r *memberRepository) Remove(_ context.Context, communityID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.findMember(communityID, userID)
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.state.members, m.ID)
	return nil
}

func (r *memberRepository) ListByCommunity(_ context.Context, communityID int64) ([]*models.CommunityMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.CommunityMember{}
	for _, id := range sortedIDs(r.s.state.members) {
		m := r.s.state.members[id]
		if m.CommunityID == communityID {
			out = append(out, &m)
		}
	}
	return out, nil
}

type applicationRepository struct{ s *Store }

func (r *applicationRepository) Create(_ context.Context, form *models.ApplicationForm) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.state.communities[form.CommunityID]; !ok {
		return apperrors.ErrNotFound
	}
	if _, ok := r.s.state.users[form.UserID]; !ok {
		return apperrors.ErrNotFound
	}
	for _, a := range r.s.state.applications {
		if a.UserID == form.UserID && a.CommunityID == form.CommunityID && a.Status == models.ApplicationPending {
			return apperrors.ErrDuplicateApplication
		}
	}
	form.ID = r.s.nextID()
	form.Status = models.ApplicationPending
	form.CreatedAt = r.s.timestamp()
	form.UpdatedAt = form.CreatedAt
	r.s.state.applications[form.ID] = *cloneApplication(*form)
	return nil
}

func (r *applicationRepository) GetByID(_ context.Context, id int64) (*models.ApplicationForm, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.state.applications[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneApplication(a), nil
}

func (r *applicationRepository) Decide(_ context.Context, id int64, status models.ApplicationStatus, reviewerID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.state.applications[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if a.Status != models.ApplicationPending {
		return apperrors.ErrStaleState
	}
	a.Status = status
	a.ReviewedBy = &reviewerID
	a.UpdatedAt = r.s.timestamp()
	r.s.state.applications[id] = a
	return nil
}

func (r *applicationRepository) ListByCommunity(_ context.Context, communityID int64, status *models.ApplicationStatus) ([]*models.ApplicationForm, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := sortedIDs(r.s.state.applications)
	out := []*models.ApplicationForm{}
	for i := len(ids) - 1; i >= 0; i-- {
		a := r.s.state.applications[ids[i]]
		if a.CommunityID != communityID || (status != nil && a.Status != *status) {
			continue
		}
		out = append(out, cloneApplication(a))
	}
	return out, nil
}
