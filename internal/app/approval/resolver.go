package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

// Registry is the part of the role registry the resolver reads
type Registry interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindApprover(ctx context.Context, role models.Role, collegeID *int64) (*models.User, error)
}

// Resolver computes approval chains and their approvers
type Resolver struct {
	communities repositories.CommunityRepository
	registry    Registry
}

// NewResolver creates a new Resolver
func NewResolver(communities repositories.CommunityRepository, registry Registry) *Resolver {
	return &Resolver{communities: communities, registry: registry}
}

// ResolveCollege returns the college that governs an event: the community's
// college when the event belongs to a community, the event's own college otherwise.
func (r *Resolver) ResolveCollege(ctx context.Context, event *models.Event) (int64, error) {
	if event.CommunityID != nil {
		community, err := r.communities.GetByID(ctx, *event.CommunityID)
		if err != nil {
			return 0, fmt.Errorf("resolving community %d: %w", *event.CommunityID, err)
		}
		if community.CollegeID == nil {
			return 0, fmt.Errorf("community %d has no college: %w", community.ID, apperrors.ErrUnresolvedCollege)
		}
		return *community.CollegeID, nil
	}
	if event.CollegeID == nil {
		return 0, apperrors.ErrUnresolvedCollege
	}
	return *event.CollegeID, nil
}

// ResolveChain returns the ordered stages an event must pass
func (r *Resolver) ResolveChain(ctx context.Context, event *models.Event) (*Chain, error) {
	collegeID, err := r.ResolveCollege(ctx, event)
	if err != nil {
		return nil, err
	}

	chain := &Chain{CollegeID: collegeID}
	for _, st := range allStages {
		if st.scope == ScopeCommunity && event.CommunityID == nil {
			continue
		}
		chain.Stages = append(chain.Stages, st)
	}
	return chain, nil
}

// ResolveApprover returns the one user who must decide stage for event.
// ErrStageBlocked when nobody can, ErrAmbiguousApprover when more than one could.
func (r *Resolver) ResolveApprover(ctx context.Context, event *models.Event, chain *Chain, stage Stage) (*models.User, error) {
	if !chain.Contains(stage) {
		return nil, fmt.Errorf("stage %s is not part of the chain: %w", stage, apperrors.ErrInvalidTransition)
	}

	var (
		approver *models.User
		err      error
	)
	switch stage.scope {
	case ScopeCommunity:
		approver, err = r.clubLeader(ctx, *event.CommunityID)
	case ScopeCollege:
		collegeID := chain.CollegeID
		approver, err = r.registry.FindApprover(ctx, stage.role, &collegeID)
	case ScopeGlobal:
		approver, err = r.registry.FindApprover(ctx, stage.role, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}
	if approver == nil {
		return nil, fmt.Errorf("stage %s: %w", stage, apperrors.ErrStageBlocked)
	}
	return approver, nil
}

// clubLeader returns the community's leader if they still hold the role
func (r *Resolver) clubLeader(ctx context.Context, communityID int64) (*models.User, error) {
	community, err := r.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community.ClubLeaderID == nil {
		return nil, nil
	}
	leader, err := r.registry.GetUser(ctx, *community.ClubLeaderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !leader.IsActive || leader.Role != models.RoleClubLeader {
		return nil, nil
	}
	return leader, nil
}
