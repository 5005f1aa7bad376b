package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/db"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/dberrors"
	"github.com/yigit/campushub/internal/pkg/logger"
)

var eventColumns = []string{
	"id", "title", "description", "creator_id", "community_id", "college_id", "capacity", "status", "starts_at",
	"club_leader_rejection_reason", "faculty_leader_rejection_reason", "dean_rejection_reason", "deanship_rejection_reason",
	"version", "created_at", "updated_at",
}

// EventRepository handles events and the event_approvals audit trail
type EventRepository struct {
	pg *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(pg *db.PostgresDB) *EventRepository {
	return &EventRepository{pg: pg, sb: statementBuilder()}
}

func eventScanTargets(e *models.Event) []any {
	return []any{
		&e.ID, &e.Title, &e.Description, &e.CreatorID, &e.CommunityID, &e.CollegeID, &e.Capacity, &e.Status, &e.StartsAt,
		&e.ClubLeaderRejectionReason, &e.FacultyLeaderRejectionReason, &e.DeanRejectionReason, &e.DeanshipRejectionReason,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	}
}

// Create inserts an event with version 1
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	sql, args, err := r.sb.Insert("events").
		Columns("title", "description", "creator_id", "community_id", "college_id", "capacity", "status", "starts_at").
		Values(event.Title, event.Description, event.CreatorID, event.CommunityID, event.CollegeID, event.Capacity, event.Status, event.StartsAt).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create event query: %w", err)
	}

	err = r.pg.Pool.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.Version, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.NewNotFoundError("referenced creator, community or college not found")
		}
		logger.Error().Err(err).Str("title", event.Title).Msg("Error creating event")
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	sql, args, err := r.sb.Select(eventColumns...).From("events").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}

	event := &models.Event{}
	if err := r.pg.Pool.QueryRow(ctx, sql, args...).Scan(eventScanTargets(event)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		logger.Error().Err(err).Int64("eventID", id).Msg("Error scanning event row")
		return nil, fmt.Errorf("error getting event: %w", err)
	}
	return event, nil
}

// List retrieves events matching filter together with the total match count
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]*models.Event, int64, error) {
	query := r.sb.Select(eventColumns...).
		Column("COUNT(*) OVER() AS total_count").
		From("events").
		OrderBy("created_at DESC", "id DESC")

	if filter.CommunityID != nil {
		query = query.Where(squirrel.Eq{"community_id": *filter.CommunityID})
	}
	if filter.CollegeID != nil {
		query = query.Where(squirrel.Eq{"college_id": *filter.CollegeID})
	}
	if filter.CreatorID != nil {
		query = query.Where(squirrel.Eq{"creator_id": *filter.CreatorID})
	}
	if filter.Status != nil {
		query = query.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit)).Offset(filter.Offset)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list events query: %w", err)
	}

	rows, err := r.pg.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list events query")
		return nil, 0, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	var total int64
	events := []*models.Event{}
	for rows.Next() {
		event := &models.Event{}
		if err := rows.Scan(append(eventScanTargets(event), &total)...); err != nil {
			return nil, 0, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, total, nil
}

// UpdateState writes the mutable state of event guarded by its version and
// appends the audit record in the same transaction
func (r *EventRepository) UpdateState(ctx context.Context, event *models.Event, expectedVersion int64, audit *models.EventApproval) error {
	return r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Update("events").
			Set("status", event.Status).
			Set("college_id", event.CollegeID).
			Set("club_leader_rejection_reason", event.ClubLeaderRejectionReason).
			Set("faculty_leader_rejection_reason", event.FacultyLeaderRejectionReason).
			Set("dean_rejection_reason", event.DeanRejectionReason).
			Set("deanship_rejection_reason", event.DeanshipRejectionReason).
			Set("version", squirrel.Expr("version + 1")).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": event.ID, "version": expectedVersion}).
			Suffix("RETURNING version, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update event state query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&event.Version, &event.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.missingOrStale(ctx, tx, event.ID)
			}
			logger.Error().Err(err).Int64("eventID", event.ID).Msg("Error updating event state")
			return fmt.Errorf("error updating event state: %w", err)
		}

		if audit == nil {
			return nil
		}
		audit.EventID = event.ID
		sql, args, err = r.sb.Insert("event_approvals").
			Columns("event_id", "stage", "approver_id", "decision", "reason").
			Values(audit.EventID, audit.Stage, audit.ApproverID, audit.Decision, audit.Reason).
			Suffix("RETURNING id, decided_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert approval query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&audit.ID, &audit.DecidedAt); err != nil {
			return fmt.Errorf("error inserting event approval: %w", err)
		}
		return nil
	})
}

func (r *EventRepository) missingOrStale(ctx context.Context, tx pgx.Tx, id int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("error checking event existence: %w", err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrStaleState
}

// ListCollegeMismatches returns community events whose college copy differs
// from the community's current college
func (r *EventRepository) ListCollegeMismatches(ctx context.Context) ([]models.CollegeMismatch, error) {
	sql, args, err := r.sb.Select("e.id", "e.college_id", "c.college_id").
		From("events e").
		Join("communities c ON c.id = e.community_id").
		Where("e.college_id IS DISTINCT FROM c.college_id").
		OrderBy("e.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build college mismatch query: %w", err)
	}

	rows, err := r.pg.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying event college mismatches")
		return nil, fmt.Errorf("error querying college mismatches: %w", err)
	}
	defer rows.Close()

	mismatches := []models.CollegeMismatch{}
	for rows.Next() {
		var m models.CollegeMismatch
		if err := rows.Scan(&m.EventID, &m.EventCollegeID, &m.CommunityCollege); err != nil {
			return nil, fmt.Errorf("error scanning college mismatch row: %w", err)
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, rows.Err()
}

// SwapCollege sets the event college to next only while it still equals expected
func (r *EventRepository) SwapCollege(ctx context.Context, eventID int64, expected, next *int64) (bool, error) {
	sql, args, err := r.sb.Update("events").
		Set("college_id", next).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": eventID}).
		Where("college_id IS NOT DISTINCT FROM ?::BIGINT", expected).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build swap college query: %w", err)
	}

	tag, err := r.pg.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", eventID).Msg("Error swapping event college")
		return false, fmt.Errorf("error updating event college: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListApprovals returns the decisions recorded for an event in order
func (r *EventRepository) ListApprovals(ctx context.Context, eventID int64) ([]*models.EventApproval, error) {
	sql, args, err := r.sb.Select("id", "event_id", "stage", "approver_id", "decision", "reason", "decided_at").
		From("event_approvals").
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("decided_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list approvals query: %w", err)
	}

	rows, err := r.pg.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying event approvals: %w", err)
	}
	defer rows.Close()

	approvals := []*models.EventApproval{}
	for rows.Next() {
		a := &models.EventApproval{}
		if err := rows.Scan(&a.ID, &a.EventID, &a.Stage, &a.ApproverID, &a.Decision, &a.Reason, &a.DecidedAt); err != nil {
			return nil, fmt.Errorf("error scanning approval row: %w", err)
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}
