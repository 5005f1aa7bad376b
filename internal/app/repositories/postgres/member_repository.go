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

var memberColumns = []string{"id", "community_id", "user_id", "role", "join_date"}

// MemberRepository handles community membership rows
type MemberRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db, sb: statementBuilder()}
}

func scanMember(row rowScanner) (*models.CommunityMember, error) {
	m := &models.CommunityMember{}
	err := row.Scan(&m.ID, &m.CommunityID, &m.UserID, &m.Role, &m.JoinDate)
	return m, err
}

// Add inserts a membership, ErrAlreadyMember if the pair exists
func (r *MemberRepository) Add(ctx context.Context, member *models.CommunityMember) error {
	sql, args, err := r.sb.Insert("community_members").
		Columns("community_id", "user_id", "role").
		Values(member.CommunityID, member.UserID, member.Role).
		Suffix("RETURNING id, join_date").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add member query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&member.ID, &member.JoinDate)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintMemberUnique):
			return apperrors.ErrAlreadyMember
		case dberrors.IsForeignKeyError(err):
			return apperrors.ErrNotFound
		}
		logger.Error().Err(err).Int64("communityID", member.CommunityID).Int64("userID", member.UserID).Msg("Error adding member")
		return fmt.Errorf("error adding community member: %w", err)
	}
	return nil
}

// Upsert inserts the membership or updates the role of an existing one
func (r *MemberRepository) Upsert(ctx context.Context, member *models.CommunityMember) error {
	sql, args, err := r.sb.Insert("community_members").
		Columns("community_id", "user_id", "role").
		Values(member.CommunityID, member.UserID, member.Role).
		Suffix("ON CONFLICT ON CONSTRAINT " + dberrors.ConstraintMemberUnique + " DO UPDATE SET role = EXCLUDED.role RETURNING id, join_date").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert member query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&member.ID, &member.JoinDate); err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrNotFound
		}
		logger.Error().Err(err).Int64("communityID", member.CommunityID).Int64("userID", member.UserID).Msg("Error upserting member")
		return fmt.Errorf("error upserting community member: %w", err)
	}
	return nil
}

// Get retrieves the membership of a user in a community
func (r *MemberRepository) Get(ctx context.Context, communityID, userID int64) (*models.CommunityMember, error) {
	sql, args, err := r.sb.Select(memberColumns...).
		From("community_members").
		Where(squirrel.Eq{"community_id": communityID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get member query: %w", err)
	}

	member, err := scanMember(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error getting community member: %w", err)
	}
	return member, nil
}

// Remove deletes a membership
func (r *MemberRepository) Remove(ctx context.Context, communityID, userID int64) error {
	sql, args, err := r.sb.Delete("community_members").
		Where(squirrel.Eq{"community_id": communityID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build remove member query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("communityID", communityID).Int64("userID", userID).Msg("Error removing member")
		return fmt.Errorf("error removing community member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListByCommunity returns the members of a community in join order
func (r *MemberRepository) ListByCommunity(ctx context.Context, communityID int64) ([]*models.CommunityMember, error) {
	sql, args, err := r.sb.Select(memberColumns...).
		From("community_members").
		Where(squirrel.Eq{"community_id": communityID}).
		OrderBy("join_date ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list members query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying community members: %w", err)
	}
	defer rows.Close()

	members := []*models.CommunityMember{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning member row: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
