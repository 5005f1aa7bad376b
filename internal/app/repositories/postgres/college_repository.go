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

var collegeColumns = []string{"id", "code", "name", "default_event_capacity", "created_at", "updated_at"}

// CollegeRepository handles college database operations
type CollegeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCollegeRepository creates a new CollegeRepository
func NewCollegeRepository(db *pgxpool.Pool) *CollegeRepository {
	return &CollegeRepository{db: db, sb: statementBuilder()}
}

func scanCollege(row rowScanner) (*models.College, error) {
	c := &models.College{}
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.DefaultEventCapacity, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a college and fills its generated fields
func (r *CollegeRepository) Create(ctx context.Context, college *models.College) error {
	sql, args, err := r.sb.Insert("colleges").
		Columns("code", "name", "default_event_capacity").
		Values(college.Code, college.Name, college.DefaultEventCapacity).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create college query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&college.ID, &college.CreatedAt, &college.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintCollegeCode) {
			return apperrors.ErrCollegeAlreadyExists
		}
		logger.Error().Err(err).Str("code", college.Code).Msg("Error creating college")
		return fmt.Errorf("error creating college: %w", err)
	}
	return nil
}

// GetByID retrieves a college by ID
func (r *CollegeRepository) GetByID(ctx context.Context, id int64) (*models.College, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByCode retrieves a college by its unique code
func (r *CollegeRepository) GetByCode(ctx context.Context, code string) (*models.College, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code})
}

func (r *CollegeRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.College, error) {
	sql, args, err := r.sb.Select(collegeColumns...).From("colleges").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get college query: %w", err)
	}

	college, err := scanCollege(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		logger.Error().Err(err).Interface("where", where).Msg("Error scanning college row")
		return nil, fmt.Errorf("error getting college: %w", err)
	}
	return college, nil
}

// List retrieves all colleges ordered by code
func (r *CollegeRepository) List(ctx context.Context) ([]*models.College, error) {
	sql, args, err := r.sb.Select(collegeColumns...).From("colleges").OrderBy("code ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list colleges query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list colleges query")
		return nil, fmt.Errorf("error querying colleges: %w", err)
	}
	defer rows.Close()

	colleges := []*models.College{}
	for rows.Next() {
		college, err := scanCollege(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning college row: %w", err)
		}
		colleges = append(colleges, college)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating college rows: %w", err)
	}
	return colleges, nil
}

// Rename changes the display name of a college. The code is immutable.
func (r *CollegeRepository) Rename(ctx context.Context, id int64, name string) error {
	sql, args, err := r.sb.Update("colleges").
		Set("name", name).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build rename college query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("collegeID", id).Msg("Error renaming college")
		return fmt.Errorf("error renaming college: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
