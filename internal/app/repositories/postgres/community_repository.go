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

var communityColumns = []string{"id", "name", "abbreviation", "college_id", "club_leader_id", "created_by", "created_at", "updated_at"}

// CommunityRepository handles database operations for communities
type CommunityRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCommunityRepository creates a new CommunityRepository
func NewCommunityRepository(db *pgxpool.Pool) *CommunityRepository {
	return &CommunityRepository{db: db, sb: statementBuilder()}
}

func scanCommunity(row rowScanner) (*models.Community, error) {
	c := &models.Community{}
	err := row.Scan(&c.ID, &c.Name, &c.Abbreviation, &c.CollegeID, &c.ClubLeaderID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a community
func (r *CommunityRepository) Create(ctx context.Context, community *models.Community) error {
	sql, args, err := r.sb.Insert("communities").
		Columns("name", "abbreviation", "college_id", "club_leader_id", "created_by").
		Values(community.Name, community.Abbreviation, community.CollegeID, community.ClubLeaderID, community.CreatedBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create community query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&community.ID, &community.CreatedAt, &community.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintCommunityName):
			return apperrors.ErrCommunityNameTaken
		case dberrors.IsForeignKeyError(err):
			return apperrors.NewNotFoundError("referenced college or user not found")
		}
		logger.Error().Err(err).Str("name", community.Name).Msg("Error creating community")
		return fmt.Errorf("error creating community: %w", err)
	}
	return nil
}

// GetByID retrieves a community by ID
func (r *CommunityRepository) GetByID(ctx context.Context, id int64) (*models.Community, error) {
	sql, args, err := r.sb.Select(communityColumns...).From("communities").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get community query: %w", err)
	}

	community, err := scanCommunity(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		logger.Error().Err(err).Int64("communityID", id).Msg("Error scanning community row")
		return nil, fmt.Errorf("error getting community: %w", err)
	}
	return community, nil
}

// List retrieves communities, optionally only those of one college
func (r *CommunityRepository) List(ctx context.Context, collegeID *int64) ([]*models.Community, error) {
	query := r.sb.Select(communityColumns...).From("communities").OrderBy("name ASC")
	if collegeID != nil {
		query = query.Where(squirrel.Eq{"college_id": *collegeID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list communities query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list communities query")
		return nil, fmt.Errorf("error querying communities: %w", err)
	}
	defer rows.Close()

	communities := []*models.Community{}
	for rows.Next() {
		community, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning community row: %w", err)
		}
		communities = append(communities, community)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating community rows: %w", err)
	}
	return communities, nil
}

// SetCollege links a community to a college
func (r *CommunityRepository) SetCollege(ctx context.Context, id, collegeID int64) error {
	return r.update(ctx, id, "college_id", collegeID)
}

// SetClubLeader replaces the club leader. created_by is never written here.
func (r *CommunityRepository) SetClubLeader(ctx context.Context, id, userID int64) error {
	return r.update(ctx, id, "club_leader_id", userID)
}

func (r *CommunityRepository) update(ctx context.Context, id int64, column string, value any) error {
	sql, args, err := r.sb.Update("communities").
		Set(column, value).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update community query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrNotFound
		}
		logger.Error().Err(err).Int64("communityID", id).Str("column", column).Msg("Error updating community")
		return fmt.Errorf("error updating community: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
