package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/campushub/internal/app/auth"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/helpers"
	"github.com/yigit/campushub/internal/pkg/messaging"
	"github.com/yigit/campushub/internal/pkg/metrics"
)

// ReservationService defines study space booking operations
type ReservationService interface {
	CreateStudySpace(ctx context.Context, req *dto.CreateStudySpaceRequest) (*models.StudySpace, error)
	GetStudySpace(ctx context.Context, id int64) (*models.StudySpace, error)
	ListStudySpaces(ctx context.Context) ([]*models.StudySpace, error)

	// CreateReservation books one seat for studentID on the given day. The
	// capacity and duplicate checks are atomic with the insert.
	CreateReservation(ctx context.Context, studentID, spaceID int64, date time.Time) (*models.StudySpaceReservation, error)
	CancelReservation(ctx context.Context, actor *models.User, reservationID int64) (*models.StudySpaceReservation, error)
	ListReservations(ctx context.Context, spaceID int64, date time.Time) ([]*models.StudySpaceReservation, error)

	// ExpireStale completes every ACTIVE reservation dated before today
	ExpireStale(ctx context.Context, today time.Time) (*ExpiryReport, error)
}

// ExpiryReport is the audit output of an expiry pass
type ExpiryReport struct {
	Day      time.Time `json:"day"`
	Count    int       `json:"count"`
	Affected []int64   `json:"affected"`
}

// reservationServiceImpl implements ReservationService
type reservationServiceImpl struct {
	spaceRepo       repositories.StudySpaceRepository
	reservationRepo repositories.ReservationRepository
	notifier        Notifier
	metrics         *metrics.Metrics
	now             func() time.Time
	logger          zerolog.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	spaceRepo repositories.StudySpaceRepository,
	reservationRepo repositories.ReservationRepository,
	notifier Notifier,
	m *metrics.Metrics,
	now func() time.Time,
	logger zerolog.Logger,
) ReservationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &reservationServiceImpl{
		spaceRepo:       spaceRepo,
		reservationRepo: reservationRepo,
		notifier:        notifier,
		metrics:         m,
		now:             now,
		logger:          logger,
	}
}

// CreateStudySpace creates a bookable space
func (s *reservationServiceImpl) CreateStudySpace(ctx context.Context, req *dto.CreateStudySpaceRequest) (*models.StudySpace, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", apperrors.ErrValidationFailed)
	}

	space := &models.StudySpace{Name: name, CollegeID: req.CollegeID, Capacity: req.Capacity}
	if err := s.spaceRepo.Create(ctx, space); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("spaceID", space.ID).Int("capacity", space.Capacity).Msg("Study space created")
	return space, nil
}

// GetStudySpace retrieves a space by ID
func (s *reservationServiceImpl) GetStudySpace(ctx context.Context, id int64) (*models.StudySpace, error) {
	return s.spaceRepo.GetByID(ctx, id)
}

// ListStudySpaces lists all spaces
func (s *reservationServiceImpl) ListStudySpaces(ctx context.Context) ([]*models.StudySpace, error) {
	return s.spaceRepo.List(ctx)
}

// CreateReservation books a seat
func (s *reservationServiceImpl) CreateReservation(ctx context.Context, studentID, spaceID int64, date time.Time) (*models.StudySpaceReservation, error) {
	day := helpers.TruncateToDay(date)
	if day.Before(helpers.TruncateToDay(s.now())) {
		return nil, apperrors.NewValidationError("reservations cannot be made for past dates")
	}

	reservation := &models.StudySpaceReservation{StudentID: studentID, SpaceID: spaceID, Date: day}
	err := s.reservationRepo.CreateWithinCapacity(ctx, reservation)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		s.metrics.ReservationRejected("capacity")
		return nil, err
	case errors.Is(err, apperrors.ErrDuplicateReservation):
		s.metrics.ReservationRejected("duplicate")
		return nil, err
	default:
		return nil, err
	}

	s.metrics.ReservationCreated()
	s.logger.Info().
		Int64("reservationID", reservation.ID).
		Int64("spaceID", spaceID).
		Int64("studentID", studentID).
		Str("date", day.Format(time.DateOnly)).
		Msg("Study space reserved")
	return reservation, nil
}

// CancelReservation releases a seat. Only the owner or an ADMIN may cancel.
func (s *reservationServiceImpl) CancelReservation(ctx context.Context, actor *models.User, reservationID int64) (*models.StudySpaceReservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !auth.CanActOnBehalfOf(actor, reservation.StudentID) {
		return nil, apperrors.NewForbiddenError("only the reserving student can cancel this reservation")
	}
	if err := s.reservationRepo.Cancel(ctx, reservationID); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("reservationID", reservationID).Int64("actorID", actor.ID).Msg("Reservation cancelled")
	return s.reservationRepo.GetByID(ctx, reservationID)
}

// ListReservations lists reservations of a space on one day
func (s *reservationServiceImpl) ListReservations(ctx context.Context, spaceID int64, date time.Time) ([]*models.StudySpaceReservation, error) {
	if _, err := s.spaceRepo.GetByID(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.reservationRepo.ListBySpaceAndDate(ctx, spaceID, helpers.TruncateToDay(date))
}

// ExpireStale marks yesterday's and older ACTIVE reservations COMPLETED
func (s *reservationServiceImpl) ExpireStale(ctx context.Context, today time.Time) (*ExpiryReport, error) {
	day := helpers.TruncateToDay(today)
	expired, err := s.reservationRepo.ExpireBefore(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("error expiring reservations: %w", err)
	}

	report := &ExpiryReport{Day: day, Count: len(expired), Affected: make([]int64, 0, len(expired))}
	for _, r := range expired {
		report.Affected = append(report.Affected, r.ID)
	}

	s.metrics.ReservationsExpired(report.Count)
	s.logger.Info().Str("before", day.Format(time.DateOnly)).Int("count", report.Count).Msg("Stale reservations expired")

	if err := s.notifier.Publish(ctx, messaging.TopicMaintenance, messaging.MaintenanceReport{
		Job:      "expire_reservations",
		Checked:  report.Count,
		Changed:  report.Count,
		Affected: report.Affected,
		RanAt:    s.now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("topic", messaging.TopicMaintenance).Msg("Failed to publish notification")
	}
	return report, nil
}
