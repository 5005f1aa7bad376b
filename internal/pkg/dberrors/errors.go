package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Constraint names declared in migrations/001_init.sql.
const (
	ConstraintCollegeCode           = "colleges_code_key"
	ConstraintUserEmail             = "users_email_key"
	ConstraintCommunityName         = "communities_name_key"
	ConstraintMemberUnique          = "community_members_user_community_key"
	ConstraintPendingApplication    = "application_forms_pending_key"
	ConstraintStudySpaceName        = "study_spaces_name_key"
	ConstraintActiveReservationUser = "reservations_active_student_key"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}

// IsForeignKeyError reports a foreign key violation, i.e. a referenced id that does not exist.
func IsForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
