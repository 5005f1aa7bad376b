package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/campushub/internal/app/auth"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

// RegistryService defines the interface for users, roles and memberships
type RegistryService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	AssignRole(ctx context.Context, userID int64, role models.Role, collegeID *int64) (*models.User, error)
	DeactivateUser(ctx context.Context, userID int64) error

	// FindApprover returns the unique active holder of an approval role. nil when
	// nobody holds it, ErrAmbiguousApprover when several do.
	FindApprover(ctx context.Context, role models.Role, collegeID *int64) (*models.User, error)
	SetClubLeader(ctx context.Context, communityID, userID int64) (*models.Community, error)

	JoinCommunity(ctx context.Context, communityID, userID int64) (*models.CommunityMember, error)
	LeaveCommunity(ctx context.Context, communityID, userID int64) error
	AddMember(ctx context.Context, actor *models.User, communityID int64, req *dto.AddMemberRequest) (*models.CommunityMember, error)
	RemoveMember(ctx context.Context, actor *models.User, communityID, userID int64) error
	ListMembers(ctx context.Context, communityID int64) ([]*models.CommunityMember, error)

	SubmitApplication(ctx context.Context, userID, communityID int64, motivation string) (*models.ApplicationForm, error)
	ReviewApplication(ctx context.Context, actor *models.User, applicationID int64, approve bool) (*models.ApplicationForm, error)
	ListApplications(ctx context.Context, actor *models.User, communityID int64, status *models.ApplicationStatus) ([]*models.ApplicationForm, error)
}

// registryServiceImpl implements RegistryService
type registryServiceImpl struct {
	userRepo        repositories.UserRepository
	communityRepo   repositories.CommunityRepository
	memberRepo      repositories.MemberRepository
	applicationRepo repositories.ApplicationRepository
	authzService    *auth.AuthorizationService
	logger          zerolog.Logger
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(
	userRepo repositories.UserRepository,
	communityRepo repositories.CommunityRepository,
	memberRepo repositories.MemberRepository,
	applicationRepo repositories.ApplicationRepository,
	authzService *auth.AuthorizationService,
	logger zerolog.Logger,
) RegistryService {
	return &registryServiceImpl{
		userRepo:        userRepo,
		communityRepo:   communityRepo,
		memberRepo:      memberRepo,
		applicationRepo: applicationRepo,
		authzService:    authzService,
		logger:          logger,
	}
}

// isApproverRole reports whether a role decides an approval stage found through the registry
func isApproverRole(role models.Role) bool {
	switch role {
	case models.RoleFacultyLeader, models.RoleDeanOfFaculty, models.RoleDeanshipOfStudentAffairs:
		return true
	}
	return false
}

func validateRoleAssignment(role models.Role, collegeID *int64) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, role)
	}
	if role.RequiresCollege() && collegeID == nil {
		return apperrors.NewValidationError(fmt.Sprintf("role %s requires a college", role))
	}
	return nil
}

// CreateUser registers a user in the directory
func (s *registryServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	if err := validateRoleAssignment(req.Role, req.CollegeID); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidationFailed)
	}

	user := &models.User{
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		CollegeID: req.CollegeID,
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User created")
	s.warnOnDuplicateApprover(ctx, user.Role, user.CollegeID)
	return user, nil
}

// GetUser retrieves a user by ID
func (s *registryServiceImpl) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid user ID", apperrors.ErrValidationFailed)
	}
	return s.userRepo.GetByID(ctx, id)
}

// AssignRole changes the role and college of a user
func (s *registryServiceImpl) AssignRole(ctx context.Context, userID int64, role models.Role, collegeID *int64) (*models.User, error) {
	if err := validateRoleAssignment(role, collegeID); err != nil {
		return nil, err
	}
	if role == models.RoleDeanshipOfStudentAffairs || role == models.RoleAdmin {
		collegeID = nil
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role, collegeID); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", userID).Str("role", string(role)).Msg("User role assigned")
	s.warnOnDuplicateApprover(ctx, role, collegeID)
	return s.userRepo.GetByID(ctx, userID)
}

// warnOnDuplicateApprover flags a second holder of a scoped approval role.
// The write is kept; routing reports ErrAmbiguousApprover until it is fixed.
func (s *registryServiceImpl) warnOnDuplicateApprover(ctx context.Context, role models.Role, collegeID *int64) {
	if !isApproverRole(role) {
		return
	}
	if role == models.RoleDeanshipOfStudentAffairs {
		collegeID = nil
	}
	holders, err := s.userRepo.FindActiveByRole(ctx, role, collegeID)
	if err != nil || len(holders) < 2 {
		return
	}
	ids := make([]int64, len(holders))
	for i, u := range holders {
		ids[i] = u.ID
	}
	s.logger.Warn().Str("role", string(role)).Ints64("holders", ids).
		Msg("More than one active user holds an approval role; approvals for this scope are blocked until resolved")
}

// DeactivateUser disables a user. Inactive users never resolve as approvers.
func (s *registryServiceImpl) DeactivateUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.SetActive(ctx, userID, false); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", userID).Msg("User deactivated")
	return nil
}

// FindApprover returns the single active user holding role in scope
func (s *registryServiceImpl) FindApprover(ctx context.Context, role models.Role, collegeID *int64) (*models.User, error) {
	switch role {
	case models.RoleFacultyLeader, models.RoleDeanOfFaculty:
		if collegeID == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("role %s is scoped to a college", role))
		}
	case models.RoleDeanshipOfStudentAffairs:
		collegeID = nil
	default:
		return nil, fmt.Errorf("%w: %s is not an approval role", apperrors.ErrInvalidRole, role)
	}

	holders, err := s.userRepo.FindActiveByRole(ctx, role, collegeID)
	if err != nil {
		return nil, fmt.Errorf("error finding approver: %w", err)
	}

	switch len(holders) {
	case 0:
		return nil, nil
	case 1:
		return holders[0], nil
	}

	ids := make([]int64, len(holders))
	for i, u := range holders {
		ids[i] = u.ID
	}
	details := map[string]interface{}{"role": role, "userIds": ids}
	if collegeID != nil {
		details["collegeId"] = *collegeID
	}
	s.logger.Error().Str("role", string(role)).Ints64("holders", ids).Msg("Ambiguous approver")
	return nil, apperrors.NewCustomError(apperrors.ErrAmbiguousApprover,
		fmt.Sprintf("%d active users hold %s for this scope", len(holders), role)).WithDetails(details)
}

// SetClubLeader replaces a community's club leader, keeping its creator
func (s *registryServiceImpl) SetClubLeader(ctx context.Context, communityID, userID int64) (*models.Community, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleClubLeader || !user.IsActive {
		return nil, fmt.Errorf("user %d cannot lead a community: %w", userID, apperrors.ErrInvalidRole)
	}

	if err := s.communityRepo.SetClubLeader(ctx, communityID, userID); err != nil {
		return nil, err
	}
	if err := s.memberRepo.Upsert(ctx, &models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.MemberRoleAdmin,
	}); err != nil {
		return nil, fmt.Errorf("error recording club leader membership: %w", err)
	}

	s.logger.Info().Int64("communityID", communityID).Int64("userID", userID).Msg("Club leader set")
	return s.communityRepo.GetByID(ctx, communityID)
}

// JoinCommunity adds the user as a plain member
func (s *registryServiceImpl) JoinCommunity(ctx context.Context, communityID, userID int64) (*models.CommunityMember, error) {
	member := &models.CommunityMember{CommunityID: communityID, UserID: userID, Role: models.MemberRoleMember}
	if err := s.memberRepo.Add(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// LeaveCommunity removes the user's own membership
func (s *registryServiceImpl) LeaveCommunity(ctx context.Context, communityID, userID int64) error {
	return s.memberRepo.Remove(ctx, communityID, userID)
}

// AddMember lets a community manager add a user with a given member role
func (s *registryServiceImpl) AddMember(ctx context.Context, actor *models.User, communityID int64, req *dto.AddMemberRequest) (*models.CommunityMember, error) {
	if err := s.authzService.ValidateCommunityManager(ctx, actor, communityID); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.MemberRoleMember
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown member role %q", apperrors.ErrValidationFailed, role)
	}

	member := &models.CommunityMember{CommunityID: communityID, UserID: req.UserID, Role: role}
	if err := s.memberRepo.Add(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember removes a membership; users may remove themselves
func (s *registryServiceImpl) RemoveMember(ctx context.Context, actor *models.User, communityID, userID int64) error {
	if actor == nil || actor.ID != userID {
		if err := s.authzService.ValidateCommunityManager(ctx, actor, communityID); err != nil {
			return err
		}
	}
	return s.memberRepo.Remove(ctx, communityID, userID)
}

// ListMembers lists the members of a community
func (s *registryServiceImpl) ListMembers(ctx context.Context, communityID int64) ([]*models.CommunityMember, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListByCommunity(ctx, communityID)
}

// SubmitApplication files a join request
func (s *registryServiceImpl) SubmitApplication(ctx context.Context, userID, communityID int64, motivation string) (*models.ApplicationForm, error) {
	_, err := s.memberRepo.Get(ctx, communityID, userID)
	switch {
	case err == nil:
		return nil, apperrors.ErrAlreadyMember
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	form := &models.ApplicationForm{
		UserID:      userID,
		CommunityID: communityID,
		Motivation:  strings.TrimSpace(motivation),
	}
	if err := s.applicationRepo.Create(ctx, form); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("applicationID", form.ID).Int64("communityID", communityID).Msg("Application submitted")
	return form, nil
}

// ReviewApplication approves or rejects a pending join request
func (s *registryServiceImpl) ReviewApplication(ctx context.Context, actor *models.User, applicationID int64, approve bool) (*models.ApplicationForm, error) {
	form, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateCommunityManager(ctx, actor, form.CommunityID); err != nil {
		return nil, err
	}
	if form.Status != models.ApplicationPending {
		return nil, fmt.Errorf("application already %s: %w", strings.ToLower(string(form.Status)), apperrors.ErrInvalidTransition)
	}

	status := models.ApplicationRejected
	if approve {
		status = models.ApplicationApproved
	}
	if err := s.applicationRepo.Decide(ctx, applicationID, status, actor.ID); err != nil {
		return nil, err
	}

	if approve {
		_, err := s.JoinCommunity(ctx, form.CommunityID, form.UserID)
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyMember) {
			return nil, fmt.Errorf("error adding approved applicant: %w", err)
		}
	}

	s.logger.Info().Int64("applicationID", applicationID).Str("status", string(status)).Int64("reviewerID", actor.ID).Msg("Application reviewed")
	return s.applicationRepo.GetByID(ctx, applicationID)
}

// ListApplications lists join requests for a community manager
func (s *registryServiceImpl) ListApplications(ctx context.Context, actor *models.User, communityID int64, status *models.ApplicationStatus) ([]*models.ApplicationForm, error) {
	if err := s.authzService.ValidateCommunityManager(ctx, actor, communityID); err != nil {
		return nil, err
	}
	return s.applicationRepo.ListByCommunity(ctx, communityID, status)
}
