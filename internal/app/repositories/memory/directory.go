package memory

import (
	"context"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

type collegeRepository struct{ s *Store }

func (r *collegeRepository) Create(_ context.Context, college *models.College) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.state.colleges {
		if c.Code == college.Code {
			return apperrors.ErrCollegeAlreadyExists
		}
	}
	college.ID = r.s.nextID()
	college.CreatedAt = r.s.timestamp()
	college.UpdatedAt = college.CreatedAt
	r.s.state.colleges[college.ID] = *cloneCollege(*college)
	return nil
}

func (r *collegeRepository) GetByID(_ context.Context, id int64) (*models.College, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.state.colleges[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneCollege(c), nil
}

func (r *collegeRepository) GetByCode(_ context.Context, code string) (*models.College, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.state.colleges {
		if c.Code == code {
			return cloneCollege(c), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *collegeRepository) List(_ context.Context) ([]*models.College, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.College{}
	for _, id := range sortedIDs(r.s.state.colleges) {
		out = append(out, cloneCollege(r.s.state.colleges[id]))
	}
	return out, nil
}

func (r *collegeRepository) Rename(_ context.Context, id int64, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.state.colleges[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.Name = name
	c.UpdatedAt = r.s.timestamp()
	r.s.state.colleges[id] = c
	return nil
}

type userRepository struct{ s *Store }

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.state.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	if user.CollegeID != nil {
		if _, ok := r.s.state.colleges[*user.CollegeID]; !ok {
			return apperrors.NewNotFoundError("college not found")
		}
	}
	user.ID = r.s.nextID()
	user.CreatedAt = r.s.timestamp()
	user.UpdatedAt = user.CreatedAt
	r.s.state.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.state.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.state.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *userRepository) FindActiveByRole(_ context.Context, role models.Role, collegeID *int64) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.User{}
	for _, id := range sortedIDs(r.s.state.users) {
		u := r.s.state.users[id]
		if !u.IsActive || u.Role != role {
			continue
		}
		if collegeID != nil && !sameID(u.CollegeID, collegeID) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *userRepository) UpdateRole(_ context.Context, id int64, role models.Role, collegeID *int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.state.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if collegeID != nil {
		if _, ok := r.s.state.colleges[*collegeID]; !ok {
			return apperrors.NewNotFoundError("college not found")
		}
	}
	u.Role = role
	u.CollegeID = clonePtr(collegeID)
	u.UpdatedAt = r.s.timestamp()
	r.s.state.users[id] = u
	return nil
}

func (r *userRepository) SetActive(_ context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.state.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = r.s.timestamp()
	r.s.state.users[id] = u
	return nil
}

type communityRepository struct{ s *Store }

func (r *communityRepository) Create(_ context.Context, community *models.Community) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.state.communities {
		if c.Name == community.Name {
			return apperrors.ErrCommunityNameTaken
		}
	}
	if community.CollegeID != nil {
		if _, ok := r.s.state.colleges[*community.CollegeID]; !ok {
			return apperrors.NewNotFoundError("referenced college or user not found")
		}
	}
	if _, ok := r.s.state.users[community.CreatedBy]; !ok {
		return apperrors.NewNotFoundError("referenced college or user not found")
	}
	community.ID = r.s.nextID()
	community.CreatedAt = r.s.timestamp()
	community.UpdatedAt = community.CreatedAt
	r.s.state.communities[community.ID] = *cloneCommunity(*community)
	return nil
}

func (r *communityRepository) GetByID(_ context.Context, id int64) (*models.Community, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.state.communities[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneCommunity(c), nil
}

func (r *communityRepository) List(_ context.Context, collegeID *int64) ([]*models.Community, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.Community{}
	for _, id := range sortedIDs(r.s.state.communities) {
		c := r.s.state.communities[id]
		if collegeID != nil && !sameID(c.CollegeID, collegeID) {
			continue
		}
		out = append(out, cloneCommunity(c))
	}
	return out, nil
}

func (r *communityRepository) SetCollege(_ context.Context, id, collegeID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.state.communities[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if _, ok := r.s.state.colleges[collegeID]; !ok {
		return apperrors.ErrNotFound
	}
	c.CollegeID = &collegeID
	c.UpdatedAt = r.s.timestamp()
	r.s.state.communities[id] = c
	return nil
}

func (r *communityRepository) SetClubLeader(_ context.Context, id, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.state.communities[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if _, ok := r.s.state.users[userID]; !ok {
		return apperrors.ErrNotFound
	}
	c.ClubLeaderID = &userID
	c.UpdatedAt = r.s.timestamp()
	r.s.state.communities[id] = c
	return nil
}
