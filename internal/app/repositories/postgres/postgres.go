// Package postgres implements the repository interfaces on PostgreSQL using
// pgx for the connection pool and squirrel for query building.
package postgres

import (
	"github.com/Masterminds/squirrel"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/db"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// NewRepositories initializes all repositories
func NewRepositories(pg *db.PostgresDB) *repositories.Repositories {
	return &repositories.Repositories{
		CollegeRepository:     NewCollegeRepository(pg.Pool),
		UserRepository:        NewUserRepository(pg.Pool),
		CommunityRepository:   NewCommunityRepository(pg.Pool),
		MemberRepository:      NewMemberRepository(pg.Pool),
		ApplicationRepository: NewApplicationRepository(pg.Pool),
		EventRepository:       NewEventRepository(pg),
		StudySpaceRepository:  NewStudySpaceRepository(pg.Pool),
		ReservationRepository: NewReservationRepository(pg),
	}
}

var (
	_ repositories.CollegeRepository     = (*CollegeRepository)(nil)
	_ repositories.UserRepository        = (*UserRepository)(nil)
	_ repositories.CommunityRepository   = (*CommunityRepository)(nil)
	_ repositories.MemberRepository      = (*MemberRepository)(nil)
	_ repositories.ApplicationRepository = (*ApplicationRepository)(nil)
	_ repositories.EventRepository       = (*EventRepository)(nil)
	_ repositories.StudySpaceRepository  = (*StudySpaceRepository)(nil)
	_ repositories.ReservationRepository = (*ReservationRepository)(nil)
)
