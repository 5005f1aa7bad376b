package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/dberrors"
	"github.com/yigit/campushub/internal/pkg/logger"
)

var applicationColumns = []string{"id", "user_id", "community_id", "motivation", "status", "reviewed_by", "created_at", "updated_at"}

// ApplicationRepository handles community application forms
type ApplicationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{db: db, sb: statementBuilder()}
}

func scanApplication(row rowScanner) (*models.ApplicationForm, error) {
	a := &models.ApplicationForm{}
	err := row.Scan(&a.ID, &a.UserID, &a.CommunityID, &a.Motivation, &a.Status, &a.ReviewedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts a PENDING application
func (r *ApplicationRepository) Create(ctx context.Context, form *models.ApplicationForm) error {
	form.Status = models.ApplicationPending
	sql, args, err := r.sb.Insert("application_forms").
		Columns("user_id", "community_id", "motivation", "status").
		Values(form.UserID, form.CommunityID, form.Motivation, form.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&form.ID, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintPendingApplication):
			return apperrors.ErrDuplicateApplication
		case dberrors.IsForeignKeyError(err):
			return apperrors.ErrNotFound
		}
		logger.Error().Err(err).Int64("userID", form.UserID).Int64("communityID", form.CommunityID).Msg("Error creating application")
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.ApplicationForm, error) {
	sql, args, err := r.sb.Select(applicationColumns...).From("application_forms").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	form, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error getting application: %w", err)
	}
	return form, nil
}

// Decide moves a PENDING application to status
func (r *ApplicationRepository) Decide(ctx context.Context, id int64, status models.ApplicationStatus, reviewerID int64) error {
	sql, args, err := r.sb.Update("application_forms").
		Set("status", status).
		Set("reviewed_by", reviewerID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": models.ApplicationPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build decide application query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error deciding application")
		return fmt.Errorf("error deciding application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrStaleState
	}
	return nil
}

// ListByCommunity returns applications for a community, newest first
func (r *ApplicationRepository) ListByCommunity(ctx context.Context, communityID int64, status *models.ApplicationStatus) ([]*models.ApplicationForm, error) {
	query := r.sb.Select(applicationColumns...).
		From("application_forms").
		Where(squirrel.Eq{"community_id": communityID}).
		OrderBy("created_at DESC", "id DESC")
	if status != nil {
		query = query.Where(squirrel.Eq{"status": *status})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying applications: %w", err)
	}
	defer rows.Close()

	forms := []*models.ApplicationForm{}
	for rows.Next() {
		form, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning application row: %w", err)
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}
