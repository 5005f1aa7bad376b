package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/campushub/internal/app/approval"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/logger"
)

// AuthorizationService answers "may this actor do that" questions that depend
// on stored data. Approval decisions are not handled here: they require an
// exact approver identity match, which the event lifecycle checks itself.
type AuthorizationService struct {
	communityRepo repositories.CommunityRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(communityRepo repositories.CommunityRepository) *AuthorizationService {
	return &AuthorizationService{communityRepo: communityRepo}
}

// IsAdmin reports whether the actor is an active ADMIN
func IsAdmin(actor *models.User) bool {
	return actor != nil && actor.IsActive && actor.Role == models.RoleAdmin
}

// ValidateAdmin returns ErrPermissionDenied unless the actor is an ADMIN
func (s *AuthorizationService) ValidateAdmin(actor *models.User) error {
	if !IsAdmin(actor) {
		return apperrors.NewForbiddenError("administrator role required")
	}
	return nil
}

// CanManageCommunity checks if the actor leads the community or is an ADMIN
func (s *AuthorizationService) CanManageCommunity(ctx context.Context, actor *models.User, communityID int64) (bool, error) {
	if actor == nil || !actor.IsActive {
		return false, nil
	}
	if IsAdmin(actor) {
		return true, nil
	}

	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, err
		}
		logger.Error().Err(err).Int64("communityID", communityID).Msg("Error getting community in CanManageCommunity")
		return false, fmt.Errorf("error getting community: %w", err)
	}

	return community.ClubLeaderID != nil && *community.ClubLeaderID == actor.ID, nil
}

// ValidateCommunityManager validates that the actor may manage the community or returns an error
func (s *AuthorizationService) ValidateCommunityManager(ctx context.Context, actor *models.User, communityID int64) error {
	ok, err := s.CanManageCommunity(ctx, actor, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("only the club leader or an administrator can manage this community")
	}
	return nil
}

// CanCancelEvent allows the creator, or anyone whose role outranks the stage the
// event is waiting on. ADMIN outranks every stage. College-bound roles only
// outrank stages of events governed by their own college; collegeID is that
// governing college, nil when none resolves.
func CanCancelEvent(actor *models.User, event *models.Event, collegeID *int64) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	if actor.ID == event.CreatorID {
		return true
	}
	if IsAdmin(actor) {
		return true
	}
	stage, ok := approval.StageForStatus(event.Status)
	if !ok {
		return false
	}
	if !actor.Role.Outranks(stage.Role()) {
		return false
	}
	if actor.Role.RequiresCollege() {
		return collegeID != nil && actor.CollegeID != nil && *actor.CollegeID == *collegeID
	}
	return true
}

// CanActOnBehalfOf allows users to act on their own records; ADMIN may act for anyone
func CanActOnBehalfOf(actor *models.User, ownerID int64) bool {
	return actor != nil && (actor.ID == ownerID || IsAdmin(actor))
}
