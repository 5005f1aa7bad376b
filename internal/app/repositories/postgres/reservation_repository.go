package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/db"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/dberrors"
	"github.com/yigit/campushub/internal/pkg/logger"
)

var reservationColumns = []string{"id", "student_id", "space_id", "date", "status", "created_at", "updated_at"}

// ReservationRepository handles study space reservations
type ReservationRepository struct {
	pg *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(pg *db.PostgresDB) *ReservationRepository {
	return &ReservationRepository{pg: pg, sb: statementBuilder()}
}

func scanReservation(row rowScanner) (*models.StudySpaceReservation, error) {
	r := &models.StudySpaceReservation{}
	err := row.Scan(&r.ID, &r.StudentID, &r.SpaceID, &r.Date, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// CreateWithinCapacity locks the space row, then checks duplicates and the
// active count before inserting, so concurrent requests serialize per space
func (r *ReservationRepository) CreateWithinCapacity(ctx context.Context, reservation *models.StudySpaceReservation) error {
	return r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var capacity int
		err := tx.QueryRow(ctx, "SELECT capacity FROM study_spaces WHERE id = $1 FOR UPDATE", reservation.SpaceID).Scan(&capacity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFoundError("study space not found")
			}
			return fmt.Errorf("error locking study space: %w", err)
		}

		active := squirrel.Eq{
			"space_id": reservation.SpaceID,
			"date":     reservation.Date,
			"status":   models.ReservationActive,
		}

		sql, args, err := r.sb.Select("COUNT(*)").
			Column(squirrel.Expr("COUNT(*) FILTER (WHERE student_id = ?)", reservation.StudentID)).
			From("study_space_reservations").
			Where(active).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build count reservations query: %w", err)
		}

		var total, mine int
		if err := tx.QueryRow(ctx, sql, args...).Scan(&total, &mine); err != nil {
			return fmt.Errorf("error counting reservations: %w", err)
		}
		if mine > 0 {
			return apperrors.ErrDuplicateReservation
		}
		if total >= capacity {
			return apperrors.ErrCapacityExceeded
		}

		reservation.Status = models.ReservationActive
		sql, args, err = r.sb.Insert("study_space_reservations").
			Columns("student_id", "space_id", "date", "status").
			Values(reservation.StudentID, reservation.SpaceID, reservation.Date, reservation.Status).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create reservation query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt); err != nil {
			switch {
			case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintActiveReservationUser):
				return apperrors.ErrDuplicateReservation
			case dberrors.IsForeignKeyError(err):
				return apperrors.NewNotFoundError("student not found")
			}
			logger.Error().Err(err).Int64("spaceID", reservation.SpaceID).Msg("Error creating reservation")
			return fmt.Errorf("error creating reservation: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a reservation by ID
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.StudySpaceReservation, error) {
	sql, args, err := r.sb.Select(reservationColumns...).From("study_space_reservations").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get reservation query: %w", err)
	}

	reservation, err := scanReservation(r.pg.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error getting reservation: %w", err)
	}
	return reservation, nil
}

// Cancel moves an ACTIVE reservation to CANCELLED
func (r *ReservationRepository) Cancel(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("study_space_reservations").
		Set("status", models.ReservationCancelled).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": models.ReservationActive}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cancel reservation query: %w", err)
	}

	tag, err := r.pg.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("reservationID", id).Msg("Error cancelling reservation")
		return fmt.Errorf("error cancelling reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// ExpireBefore completes every ACTIVE reservation dated before day in one statement
func (r *ReservationRepository) ExpireBefore(ctx context.Context, day time.Time) ([]*models.StudySpaceReservation, error) {
	sql, args, err := r.sb.Update("study_space_reservations").
		Set("status", models.ReservationCompleted).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": models.ReservationActive}).
		Where(squirrel.Lt{"date": day}).
		Suffix("RETURNING " + strings.Join(reservationColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build expire reservations query: %w", err)
	}

	rows, err := r.pg.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Time("before", day).Msg("Error expiring reservations")
		return nil, fmt.Errorf("error expiring reservations: %w", err)
	}
	defer rows.Close()

	expired := []*models.StudySpaceReservation{}
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning expired reservation: %w", err)
		}
		expired = append(expired, reservation)
	}
	return expired, rows.Err()
}

// ListBySpaceAndDate returns all reservations of a space for one day
func (r *ReservationRepository) ListBySpaceAndDate(ctx context.Context, spaceID int64, day time.Time) ([]*models.StudySpaceReservation, error) {
	sql, args, err := r.sb.Select(reservationColumns...).
		From("study_space_reservations").
		Where(squirrel.Eq{"space_id": spaceID, "date": day}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list reservations query: %w", err)
	}

	rows, err := r.pg.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations: %w", err)
	}
	defer rows.Close()

	reservations := []*models.StudySpaceReservation{}
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reservation row: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}
