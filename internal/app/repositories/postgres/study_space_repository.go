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

var studySpaceColumns = []string{"id", "name", "college_id", "capacity", "created_at"}

// StudySpaceRepository handles study space rows
type StudySpaceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudySpaceRepository creates a new StudySpaceRepository
func NewStudySpaceRepository(db *pgxpool.Pool) *StudySpaceRepository {
	return &StudySpaceRepository{db: db, sb: statementBuilder()}
}

func scanStudySpace(row rowScanner) (*models.StudySpace, error) {
	s := &models.StudySpace{}
	err := row.Scan(&s.ID, &s.Name, &s.CollegeID, &s.Capacity, &s.CreatedAt)
	return s, err
}

// Create inserts a study space
func (r *StudySpaceRepository) Create(ctx context.Context, space *models.StudySpace) error {
	sql, args, err := r.sb.Insert("study_spaces").
		Columns("name", "college_id", "capacity").
		Values(space.Name, space.CollegeID, space.Capacity).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create study space query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&space.ID, &space.CreatedAt); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudySpaceName):
			return apperrors.ErrStudySpaceNameTaken
		case dberrors.IsForeignKeyError(err):
			return apperrors.NewNotFoundError("college not found")
		}
		logger.Error().Err(err).Str("name", space.Name).Msg("Error creating study space")
		return fmt.Errorf("error creating study space: %w", err)
	}
	return nil
}

// GetByID retrieves a study space by ID
func (r *StudySpaceRepository) GetByID(ctx context.Context, id int64) (*models.StudySpace, error) {
	sql, args, err := r.sb.Select(studySpaceColumns...).From("study_spaces").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get study space query: %w", err)
	}

	space, err := scanStudySpace(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error getting study space: %w", err)
	}
	return space, nil
}

// List returns all study spaces ordered by name
func (r *StudySpaceRepository) List(ctx context.Context) ([]*models.StudySpace, error) {
	sql, args, err := r.sb.Select(studySpaceColumns...).From("study_spaces").OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list study spaces query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying study spaces: %w", err)
	}
	defer rows.Close()

	spaces := []*models.StudySpace{}
	for rows.Next() {
		space, err := scanStudySpace(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning study space row: %w", err)
		}
		spaces = append(spaces, space)
	}
	return spaces, rows.Err()
}
