package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

// AdminEmail is the email of the default administrator
const AdminEmail = "admin@campushub.edu"

var defaultColleges = []models.College{
	{Code: "ENG", Name: "College of Engineering"},
	{Code: "SCI", Name: "College of Science"},
}

// CreateDefaultData creates the default colleges, an administrator and the
// deanship of student affairs if they don't exist. Safe to run on every start.
func CreateDefaultData(ctx context.Context, repos *repositories.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (colleges, administrator, deanship)...")
	var finalErr error // To collect potential errors without stopping the process

	for _, c := range defaultColleges {
		college := c
		_, err := repos.CollegeRepository.GetByCode(ctx, college.Code)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, apperrors.ErrNotFound):
			lgr.Error().Err(err).Str("code", college.Code).Msg("Error looking up college")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		if err := repos.CollegeRepository.Create(ctx, &college); err != nil {
			lgr.Error().Err(err).Str("code", college.Code).Msg("Error creating college")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Int64("collegeID", college.ID).Str("code", college.Code).Msg("Default college created")
	}

	users := []*models.User{
		{Email: AdminEmail, FirstName: "System", LastName: "Administrator", Role: models.RoleAdmin, IsActive: true},
		{Email: "deanship@campushub.edu", FirstName: "Student", LastName: "Affairs", Role: models.RoleDeanshipOfStudentAffairs, IsActive: true},
	}
	for _, user := range users {
		_, err := repos.UserRepository.GetByEmail(ctx, user.Email)
		switch {
		case err == nil:
			lgr.Debug().Str("email", user.Email).Msg("Default user already exists, skipping creation")
			continue
		case !errors.Is(err, apperrors.ErrNotFound):
			lgr.Error().Err(err).Str("email", user.Email).Msg("Error checking if default user exists")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		if err := repos.UserRepository.Create(ctx, user); err != nil {
			lgr.Error().Err(err).Str("email", user.Email).Msg("Error creating default user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("Default user created")
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
