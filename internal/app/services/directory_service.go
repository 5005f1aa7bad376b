package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

// DirectoryService defines the interface for the organizational directory
type DirectoryService interface {
	CreateCollege(ctx context.Context, req *dto.CreateCollegeRequest) (*models.College, error)
	GetCollege(ctx context.Context, id int64) (*models.College, error)
	ListColleges(ctx context.Context) ([]*models.College, error)
	RenameCollege(ctx context.Context, id int64, name string) (*models.College, error)

	CreateCommunity(ctx context.Context, req *dto.CreateCommunityRequest, creatorID int64) (*models.Community, error)
	GetCommunity(ctx context.Context, id int64) (*models.Community, error)
	ListCommunities(ctx context.Context, collegeID *int64) ([]*models.Community, error)

	// ResolveCollegeForCommunity returns the community's college, ErrCollegeNotAssigned if it has none
	ResolveCollegeForCommunity(ctx context.Context, communityID int64) (*models.College, error)
	// LinkCommunityToCollege is idempotent and never touches existing events
	LinkCommunityToCollege(ctx context.Context, communityID, collegeID int64) (*dto.LinkCollegeResponse, error)
}

// directoryServiceImpl implements the DirectoryService interface
type directoryServiceImpl struct {
	collegeRepo   repositories.CollegeRepository
	communityRepo repositories.CommunityRepository
	logger        zerolog.Logger
}

// NewDirectoryService creates a new directory service instance
func NewDirectoryService(collegeRepo repositories.CollegeRepository, communityRepo repositories.CommunityRepository, logger zerolog.Logger) DirectoryService {
	return &directoryServiceImpl{
		collegeRepo:   collegeRepo,
		communityRepo: communityRepo,
		logger:        logger,
	}
}

// CreateCollege creates a new college
func (s *directoryServiceImpl) CreateCollege(ctx context.Context, req *dto.CreateCollegeRequest) (*models.College, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: code and name are required", apperrors.ErrValidationFailed)
	}
	if code != strings.ToUpper(code) {
		return nil, fmt.Errorf("%w: code must be uppercase", apperrors.ErrValidationFailed)
	}

	college := &models.College{Code: code, Name: name, DefaultEventCapacity: req.DefaultEventCapacity}
	if err := s.collegeRepo.Create(ctx, college); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("collegeID", college.ID).Str("code", college.Code).Msg("College created")
	return college, nil
}

// GetCollege retrieves a college by ID
func (s *directoryServiceImpl) GetCollege(ctx context.Context, id int64) (*models.College, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid college ID", apperrors.ErrValidationFailed)
	}
	return s.collegeRepo.GetByID(ctx, id)
}

// ListColleges retrieves all colleges
func (s *directoryServiceImpl) ListColleges(ctx context.Context) ([]*models.College, error) {
	return s.collegeRepo.List(ctx)
}

// RenameCollege changes the name of a college; the code never changes
func (s *directoryServiceImpl) RenameCollege(ctx context.Context, id int64, name string) (*models.College, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if err := s.collegeRepo.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.collegeRepo.GetByID(ctx, id)
}

// CreateCommunity creates a community owned by creatorID
func (s *directoryServiceImpl) CreateCommunity(ctx context.Context, req *dto.CreateCommunityRequest, creatorID int64) (*models.Community, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if req.CollegeID != nil {
		if _, err := s.collegeRepo.GetByID(ctx, *req.CollegeID); err != nil {
			return nil, err
		}
	}

	community := &models.Community{
		Name:         name,
		Abbreviation: strings.TrimSpace(req.Abbreviation),
		CollegeID:    req.CollegeID,
		CreatedBy:    creatorID,
	}
	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if community.CollegeID == nil {
		// allowed, but the community cannot route approvals until it is linked
		level = zerolog.WarnLevel
	}
	s.logger.WithLevel(level).Int64("communityID", community.ID).Str("name", community.Name).Msg("Community created")
	return community, nil
}

// GetCommunity retrieves a community by ID
func (s *directoryServiceImpl) GetCommunity(ctx context.Context, id int64) (*models.Community, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid community ID", apperrors.ErrValidationFailed)
	}
	return s.communityRepo.GetByID(ctx, id)
}

// ListCommunities retrieves communities, optionally filtered by college
func (s *directoryServiceImpl) ListCommunities(ctx context.Context, collegeID *int64) ([]*models.Community, error) {
	return s.communityRepo.List(ctx, collegeID)
}

// ResolveCollegeForCommunity returns the college a community belongs to
func (s *directoryServiceImpl) ResolveCollegeForCommunity(ctx context.Context, communityID int64) (*models.College, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community.CollegeID == nil {
		return nil, fmt.Errorf("community %d: %w", communityID, apperrors.ErrCollegeNotAssigned)
	}
	return s.collegeRepo.GetByID(ctx, *community.CollegeID)
}

// LinkCommunityToCollege sets the community's college
func (s *directoryServiceImpl) LinkCommunityToCollege(ctx context.Context, communityID, collegeID int64) (*dto.LinkCollegeResponse, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.collegeRepo.GetByID(ctx, collegeID); err != nil {
		return nil, err
	}

	result := &dto.LinkCollegeResponse{
		CommunityID:       communityID,
		CollegeID:         collegeID,
		PreviousCollegeID: community.CollegeID,
	}
	if community.CollegeID != nil && *community.CollegeID == collegeID {
		s.logger.Info().Int64("communityID", communityID).Int64("collegeID", collegeID).Msg("Community college link verified")
		return result, nil
	}

	if err := s.communityRepo.SetCollege(ctx, communityID, collegeID); err != nil {
		return nil, err
	}
	result.Changed = true

	logEvent := s.logger.Info().Int64("communityID", communityID).Int64("collegeID", collegeID)
	if community.CollegeID != nil {
		logEvent = logEvent.Int64("previousCollegeID", *community.CollegeID)
	}
	logEvent.Msg("Community college link changed")
	return result, nil
}
