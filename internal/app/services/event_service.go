package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/campushub/internal/app/approval"
	"github.com/yigit/campushub/internal/app/auth"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/messaging"
	"github.com/yigit/campushub/internal/pkg/metrics"
)

// EventService defines the event approval lifecycle
type EventService interface {
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest, creator *models.User) (*models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, int64, error)

	Submit(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error)
	Approve(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error)
	Reject(ctx context.Context, eventID int64, actor *models.User, reason string) (*models.Event, error)
	Cancel(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error)
	// Resubmit copies a rejected event into a new DRAFT; the rejected one stays terminal
	Resubmit(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error)

	ResolveChain(ctx context.Context, eventID int64) (*dto.ChainResponse, error)
	CurrentApprover(ctx context.Context, eventID int64) (*dto.CurrentApproverResponse, error)
	ListApprovals(ctx context.Context, eventID int64) ([]*models.EventApproval, error)

	// ReconcileEventColleges re-copies the community college onto every event
	// whose copy drifted. Safe to run repeatedly.
	ReconcileEventColleges(ctx context.Context) (*ReconcileReport, error)
}

// CollegeCorrection is one event whose college copy was rewritten
type CollegeCorrection struct {
	EventID int64  `json:"eventId"`
	From    *int64 `json:"from"`
	To      *int64 `json:"to"`
}

// ReconcileReport is the audit output of a reconciliation pass
type ReconcileReport struct {
	Checked     int                 `json:"checked"`
	Corrected   int                 `json:"corrected"`
	Skipped     int                 `json:"skipped"`
	Corrections []CollegeCorrection `json:"corrections"`
	RanAt       time.Time           `json:"ranAt"`
}

// EventServiceConfig holds the dependencies of the event service
type EventServiceConfig struct {
	Events          repositories.EventRepository
	Colleges        repositories.CollegeRepository
	Communities     repositories.CommunityRepository
	Resolver        *approval.Resolver
	Notifier        Notifier
	Metrics         *metrics.Metrics
	DefaultCapacity int
	Now             func() time.Time
	Logger          zerolog.Logger
}

// eventServiceImpl implements EventService
type eventServiceImpl struct {
	eventRepo       repositories.EventRepository
	collegeRepo     repositories.CollegeRepository
	communityRepo   repositories.CommunityRepository
	resolver        *approval.Resolver
	notifier        Notifier
	metrics         *metrics.Metrics
	defaultCapacity int
	now             func() time.Time
	logger          zerolog.Logger
}

// NewEventService creates a new EventService
func NewEventService(cfg EventServiceConfig) EventService {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = DefaultEventCapacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &eventServiceImpl{
		eventRepo:       cfg.Events,
		collegeRepo:     cfg.Colleges,
		communityRepo:   cfg.Communities,
		resolver:        cfg.Resolver,
		notifier:        cfg.Notifier,
		metrics:         cfg.Metrics,
		defaultCapacity: cfg.DefaultCapacity,
		now:             cfg.Now,
		logger:          cfg.Logger,
	}
}

// CreateEvent creates a DRAFT event owned by creator
func (s *eventServiceImpl) CreateEvent(ctx context.Context, req *dto.CreateEventRequest, creator *models.User) (*models.Event, error) {
	if creator == nil || !creator.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return s.create(ctx, req, creator.ID)
}

func (s *eventServiceImpl) create(ctx context.Context, req *dto.CreateEventRequest, creatorID int64) (*models.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed)
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", apperrors.ErrValidationFailed)
	}

	var collegeID *int64
	switch {
	case req.CommunityID != nil:
		community, err := s.communityRepo.GetByID(ctx, *req.CommunityID)
		if err != nil {
			return nil, err
		}
		if req.CollegeID != nil && (community.CollegeID == nil || *community.CollegeID != *req.CollegeID) {
			return nil, apperrors.NewValidationError("collegeId must match the community's college")
		}
		collegeID = community.CollegeID
	case req.CollegeID != nil:
		collegeID = req.CollegeID
	}

	capacity, err := s.defaultCapacityFor(ctx, req.Capacity, collegeID)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CreatorID:   creatorID,
		CommunityID: req.CommunityID,
		CollegeID:   collegeID,
		Capacity:    &capacity,
		Status:      models.EventDraft,
		StartsAt:    req.StartsAt,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("eventID", event.ID).Int64("creatorID", creatorID).Int("capacity", capacity).Msg("Event created")
	return event, nil
}

// defaultCapacityFor applies the capacity default once, at creation
func (s *eventServiceImpl) defaultCapacityFor(ctx context.Context, explicit *int, collegeID *int64) (int, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if collegeID != nil {
		college, err := s.collegeRepo.GetByID(ctx, *collegeID)
		if err != nil {
			return 0, err
		}
		if college.DefaultEventCapacity != nil {
			return *college.DefaultEventCapacity, nil
		}
	}
	return s.defaultCapacity, nil
}

// GetEvent retrieves an event by ID
func (s *eventServiceImpl) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid event ID", apperrors.ErrValidationFailed)
	}
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents lists events matching filter
func (s *eventServiceImpl) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, int64, error) {
	return s.eventRepo.List(ctx, filter)
}

// Submit moves a DRAFT into the first stage of its chain
func (s *eventServiceImpl) Submit(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !auth.CanActOnBehalfOf(actor, event.CreatorID) {
		return nil, apperrors.NewForbiddenError("only the creator can submit this event")
	}
	if event.Status != models.EventDraft {
		return nil, fmt.Errorf("cannot submit event in status %s: %w", event.Status, apperrors.ErrInvalidTransition)
	}

	chain, err := s.resolver.ResolveChain(ctx, event)
	if err != nil {
		return nil, err
	}

	from, expected := event.Status, event.Version
	collegeID := chain.CollegeID
	event.CollegeID = &collegeID
	event.Status = chain.First().PendingStatus()
	if err := s.eventRepo.UpdateState(ctx, event, expected, nil); err != nil {
		return nil, err
	}

	s.transitioned(ctx, event, from, actor.ID, "")
	return event, nil
}

// Approve records the current stage approver's consent and advances the event
func (s *eventServiceImpl) Approve(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error) {
	event, chain, stage, err := s.decisionContext(ctx, eventID, actor)
	if err != nil {
		return nil, err
	}

	from, expected := event.Status, event.Version
	if next, ok := chain.Next(stage); ok {
		event.Status = next.PendingStatus()
	} else {
		event.Status = models.EventApproved
	}

	audit := &models.EventApproval{
		Stage:      stage.Role(),
		ApproverID: actor.ID,
		Decision:   models.DecisionApproved,
	}
	if err := s.eventRepo.UpdateState(ctx, event, expected, audit); err != nil {
		return nil, err
	}

	s.transitioned(ctx, event, from, actor.ID, "")
	return event, nil
}

// Reject ends the chain at the current stage with a reason
func (s *eventServiceImpl) Reject(ctx context.Context, eventID int64, actor *models.User, reason string) (*models.Event, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("a rejection reason is required")
	}

	event, _, stage, err := s.decisionContext(ctx, eventID, actor)
	if err != nil {
		return nil, err
	}

	from, expected := event.Status, event.Version
	event.Status = stage.RejectedStatus()
	event.SetRejectionReason(event.Status, reason)

	audit := &models.EventApproval{
		Stage:      stage.Role(),
		ApproverID: actor.ID,
		Decision:   models.DecisionRejected,
		Reason:     &reason,
	}
	if err := s.eventRepo.UpdateState(ctx, event, expected, audit); err != nil {
		return nil, err
	}

	s.transitioned(ctx, event, from, actor.ID, reason)
	return event, nil
}

// decisionContext loads a pending event and checks that actor is exactly the
// approver resolved for its current stage
func (s *eventServiceImpl) decisionContext(ctx context.Context, eventID int64, actor *models.User) (*models.Event, *approval.Chain, approval.Stage, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, approval.Stage{}, err
	}
	stage, ok := approval.StageForStatus(event.Status)
	if !ok {
		return nil, nil, approval.Stage{}, fmt.Errorf("event %d is %s, not awaiting approval: %w", eventID, event.Status, apperrors.ErrInvalidTransition)
	}

	chain, err := s.resolver.ResolveChain(ctx, event)
	if err != nil {
		return nil, nil, approval.Stage{}, err
	}
	approver, err := s.resolver.ResolveApprover(ctx, event, chain, stage)
	if err != nil {
		return nil, nil, approval.Stage{}, err
	}
	if actor == nil || actor.ID != approver.ID {
		return nil, nil, approval.Stage{}, apperrors.NewCustomError(apperrors.ErrInvalidRole,
			fmt.Sprintf("only the resolved %s approver may decide this stage", stage)).
			WithDetails(map[string]interface{}{"stage": stage.Role(), "collegeId": chain.CollegeID})
	}
	return event, chain, stage, nil
}

// Cancel ends a non-terminal event immediately
func (s *eventServiceImpl) Cancel(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status.IsTerminal() {
		return nil, fmt.Errorf("cannot cancel event in status %s: %w", event.Status, apperrors.ErrInvalidTransition)
	}
	var collegeID *int64
	if _, pending := approval.StageForStatus(event.Status); pending {
		if collegeID, err = s.governingCollege(ctx, event); err != nil {
			return nil, err
		}
	}
	if !auth.CanCancelEvent(actor, event, collegeID) {
		return nil, apperrors.NewForbiddenError("only the creator or a higher authority than the current stage can cancel")
	}

	var audit *models.EventApproval
	if stage, ok := approval.StageForStatus(event.Status); ok {
		audit = &models.EventApproval{
			Stage:      stage.Role(),
			ApproverID: actor.ID,
			Decision:   models.DecisionCancelled,
		}
	}

	from, expected := event.Status, event.Version
	event.Status = models.EventCancelled
	if err := s.eventRepo.UpdateState(ctx, event, expected, audit); err != nil {
		return nil, err
	}

	s.transitioned(ctx, event, from, actor.ID, "")
	return event, nil
}

// governingCollege is the college the event's approvals route through, nil if none resolves
func (s *eventServiceImpl) governingCollege(ctx context.Context, event *models.Event) (*int64, error) {
	chain, err := s.resolver.ResolveChain(ctx, event)
	switch {
	case errors.Is(err, apperrors.ErrUnresolvedCollege):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &chain.CollegeID, nil
}

// Resubmit creates a fresh DRAFT from a rejected event
func (s *eventServiceImpl) Resubmit(ctx context.Context, eventID int64, actor *models.User) (*models.Event, error) {
	original, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !original.Status.IsRejected() {
		return nil, fmt.Errorf("only rejected events can be resubmitted: %w", apperrors.ErrInvalidTransition)
	}
	if !auth.CanActOnBehalfOf(actor, original.CreatorID) {
		return nil, apperrors.NewForbiddenError("only the creator can resubmit this event")
	}

	req := &dto.CreateEventRequest{
		Title:       original.Title,
		Description: original.Description,
		CommunityID: original.CommunityID,
		Capacity:    original.Capacity,
		StartsAt:    original.StartsAt,
	}
	if original.CommunityID == nil {
		req.CollegeID = original.CollegeID
	}

	event, err := s.create(ctx, req, original.CreatorID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("eventID", event.ID).Int64("resubmittedFrom", original.ID).Msg("Rejected event copied to new draft")
	return event, nil
}

// ResolveChain describes the chain of an event and who decides each stage
func (s *eventServiceImpl) ResolveChain(ctx context.Context, eventID int64) (*dto.ChainResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	chain, err := s.resolver.ResolveChain(ctx, event)
	if err != nil {
		return nil, err
	}

	resp := &dto.ChainResponse{EventID: event.ID, CollegeID: chain.CollegeID, Status: event.Status}
	for _, stage := range chain.Stages {
		entry := dto.ChainStageResponse{
			Role:          stage.Role(),
			Scope:         stage.Scope().String(),
			PendingStatus: stage.PendingStatus(),
			Current:       stage.PendingStatus() == event.Status,
		}
		approver, err := s.resolver.ResolveApprover(ctx, event, chain, stage)
		switch {
		case err == nil:
			entry.ApproverID = &approver.ID
		case errors.Is(err, apperrors.ErrStageBlocked), errors.Is(err, apperrors.ErrAmbiguousApprover):
			entry.Problem = err.Error()
		default:
			return nil, err
		}
		resp.Stages = append(resp.Stages, entry)
	}
	return resp, nil
}

// CurrentApprover returns the user who must act next on a pending event
func (s *eventServiceImpl) CurrentApprover(ctx context.Context, eventID int64) (*dto.CurrentApproverResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	stage, ok := approval.StageForStatus(event.Status)
	if !ok {
		return nil, fmt.Errorf("event %d is %s, not awaiting approval: %w", eventID, event.Status, apperrors.ErrInvalidTransition)
	}
	chain, err := s.resolver.ResolveChain(ctx, event)
	if err != nil {
		return nil, err
	}
	approver, err := s.resolver.ResolveApprover(ctx, event, chain, stage)
	if err != nil {
		return nil, err
	}
	return &dto.CurrentApproverResponse{EventID: event.ID, Status: event.Status, Role: stage.Role(), Approver: approver}, nil
}

// ListApprovals returns the decision trail of an event
func (s *eventServiceImpl) ListApprovals(ctx context.Context, eventID int64) ([]*models.EventApproval, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListApprovals(ctx, eventID)
}

// ReconcileEventColleges rewrites drifted event college copies one row at a time
func (s *eventServiceImpl) ReconcileEventColleges(ctx context.Context) (*ReconcileReport, error) {
	mismatches, err := s.eventRepo.ListCollegeMismatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing college mismatches: %w", err)
	}

	report := &ReconcileReport{
		Checked:     len(mismatches),
		Corrections: []CollegeCorrection{},
		RanAt:       s.now().UTC(),
	}
	for _, m := range mismatches {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ok, err := s.eventRepo.SwapCollege(ctx, m.EventID, m.EventCollegeID, m.CommunityCollege)
		if err != nil {
			s.logger.Error().Err(err).Int64("eventID", m.EventID).Msg("Failed to correct event college")
			report.Skipped++
			continue
		}
		if !ok {
			// changed since listed; the next pass sees the current value
			s.logger.Debug().Int64("eventID", m.EventID).Msg("Event college changed concurrently, skipped")
			report.Skipped++
			continue
		}

		report.Corrected++
		report.Corrections = append(report.Corrections, CollegeCorrection{EventID: m.EventID, From: m.EventCollegeID, To: m.CommunityCollege})
		s.logger.Info().
			Int64("eventID", m.EventID).
			Interface("fromCollegeID", m.EventCollegeID).
			Interface("toCollegeID", m.CommunityCollege).
			Msg("Event college corrected")
	}

	s.metrics.ReconcileCorrections(report.Corrected)
	s.logger.Info().Int("checked", report.Checked).Int("corrected", report.Corrected).Int("skipped", report.Skipped).
		Msg("Event college reconciliation finished")

	affected := make([]int64, len(report.Corrections))
	for i, c := range report.Corrections {
		affected[i] = c.EventID
	}
	s.publish(ctx, messaging.TopicMaintenance, messaging.MaintenanceReport{
		Job:      "reconcile_event_colleges",
		Checked:  report.Checked,
		Changed:  report.Corrected,
		Affected: affected,
		RanAt:    report.RanAt,
	})
	return report, nil
}

func (s *eventServiceImpl) transitioned(ctx context.Context, event *models.Event, from models.EventStatus, actorID int64, reason string) {
	s.metrics.EventTransition(string(from), string(event.Status))
	s.logger.Info().
		Int64("eventID", event.ID).
		Str("from", string(from)).
		Str("to", string(event.Status)).
		Int64("actorID", actorID).
		Int64("version", event.Version).
		Msg("Event transitioned")

	s.publish(ctx, messaging.TopicEventLifecycle, messaging.EventTransition{
		EventID:   event.ID,
		From:      string(from),
		To:        string(event.Status),
		ActorID:   actorID,
		CollegeID: event.CollegeID,
		Reason:    reason,
		At:        s.now().UTC(),
	})
}

func (s *eventServiceImpl) publish(ctx context.Context, topic string, payload any) {
	if err := s.notifier.Publish(ctx, topic, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to publish notification")
	}
}
