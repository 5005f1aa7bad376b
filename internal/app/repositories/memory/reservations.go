package memory

import (
	"context"
	"time"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

type studySpaceRepository struct{ s *Store }

func (r *studySpaceRepository) Create(_ context.Context, space *models.StudySpace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sp := range r.s.state.spaces {
		if sp.Name == space.Name {
			return apperrors.ErrStudySpaceNameTaken
		}
	}
	if space.CollegeID != nil {
		if _, ok := r.s.state.colleges[*space.CollegeID]; !ok {
			return apperrors.NewNotFoundError("college not found")
		}
	}
	space.ID = r.s.nextID()
	space.CreatedAt = r.s.timestamp()
	r.s.state.spaces[space.ID] = *cloneStudySpace(*space)
	return nil
}

func (r *studySpaceRepository) GetByID(_ context.Context, id int64) (*models.StudySpace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sp, ok := r.s.state.spaces[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneStudySpace(sp), nil
}

func (r *studySpaceRepository) List(_ context.Context) ([]*models.StudySpace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.StudySpace{}
	for _, id := range sortedIDs(r.s.state.spaces) {
		out = append(out, cloneStudySpace(r.s.state.spaces[id]))
	}
	return out, nil
}

type reservationRepository struct{ s *Store }

func (r *reservationRepository) CreateWithinCapacity(_ context.Context, reservation *models.StudySpaceReservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	space, ok := r.s.state.spaces[reservation.SpaceID]
	if !ok {
		return apperrors.NewNotFoundError("study space not found")
	}
	if _, ok := r.s.state.users[reservation.StudentID]; !ok {
		return apperrors.NewNotFoundError("student not found")
	}

	active := 0
	for _, res := range r.s.state.reservations {
		if res.SpaceID != reservation.SpaceID || !res.Date.Equal(reservation.Date) || res.Status != models.ReservationActive {
			continue
		}
		if res.StudentID == reservation.StudentID {
			return apperrors.ErrDuplicateReservation
		}
		active++
	}
	if active >= space.Capacity {
		return apperrors.ErrCapacityExceeded
	}

	reservation.ID = r.s.nextID()
	reservation.Status = models.ReservationActive
	reservation.CreatedAt = r.s.timestamp()
	reservation.UpdatedAt = reservation.CreatedAt
	r.s.state.reservations[reservation.ID] = *reservation
	return nil
}

func (r *reservationRepository) GetByID(_ context.Context, id int64) (*models.StudySpaceReservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.state.reservations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &res, nil
}

func (r *reservationRepository) Cancel(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.state.reservations[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if res.Status != models.ReservationActive {
		return apperrors.ErrInvalidTransition
	}
	res.Status = models.ReservationCancelled
	res.UpdatedAt = r.s.timestamp()
	r.s.state.reservations[id] = res
	return nil
}

func (r *reservationRepository) ExpireBefore(_ context.Context, day time.Time) ([]*models.StudySpaceReservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.timestamp()
	expired := []*models.StudySpaceReservation{}
	for _, id := range sortedIDs(r.s.state.reservations) {
		res := r.s.state.reservations[id]
		if res.Status != models.ReservationActive || !res.Date.Before(day) {
			continue
		}
		res.Status = models.ReservationCompleted
		res.UpdatedAt = now
		r.s.state.reservations[id] = res
		expired = append(expired, &res)
	}
	return expired, nil
}

func (r *reservationRepository) ListBySpaceAndDate(_ context.Context, spaceID int64, day time.Time) ([]*models.StudySpaceReservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.StudySpaceReservation{}
	for _, id := range sortedIDs(r.s.state.reservations) {
		res := r.s.state.reservations[id]
		if res.SpaceID == spaceID && res.Date.Equal(day) {
			out = append(out, &res)
		}
	}
	return out, nil
}
