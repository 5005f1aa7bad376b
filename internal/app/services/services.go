package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/campushub/internal/app/approval"
	"github.com/yigit/campushub/internal/app/auth"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/metrics"
)

// Services defined in this package:
// - DirectoryService: colleges, communities and their college link
// - RegistryService: users, roles, club leadership, memberships and applications
// - EventService: the event approval lifecycle and college reconciliation
// - ReservationService: study spaces, capacity-checked reservations and expiry

// DefaultEventCapacity is used when neither the request nor the college sets one
const DefaultEventCapacity = 100

// Notifier publishes domain notifications. Failures are logged by the caller
// and never undo a committed change.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string, any) error { return nil }

// Config carries the dependencies shared by all services
type Config struct {
	Repos           *repositories.Repositories
	Logger          zerolog.Logger
	Notifier        Notifier
	Metrics         *metrics.Metrics
	DefaultCapacity int
	Now             func() time.Time
}

// Services groups every service of the engine
type Services struct {
	Directory    DirectoryService
	Registry     RegistryService
	Events       EventService
	Reservations ReservationService
	Resolver     *approval.Resolver
	Authz        *auth.AuthorizationService
}

// NewServices wires all services on top of the repositories
func NewServices(cfg Config) *Services {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = DefaultEventCapacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	repos := cfg.Repos
	authz := auth.NewAuthorizationService(repos.CommunityRepository)
	directory := NewDirectoryService(repos.CollegeRepository, repos.CommunityRepository, cfg.Logger)
	registry := NewRegistryService(repos.UserRepository, repos.CommunityRepository, repos.MemberRepository,
		repos.ApplicationRepository, authz, cfg.Logger)
	resolver := approval.NewResolver(repos.CommunityRepository, registry)
	events := NewEventService(EventServiceConfig{
		Events:          repos.EventRepository,
		Colleges:        repos.CollegeRepository,
		Communities:     repos.CommunityRepository,
		Resolver:        resolver,
		Notifier:        cfg.Notifier,
		Metrics:         cfg.Metrics,
		DefaultCapacity: cfg.DefaultCapacity,
		Now:             cfg.Now,
		Logger:          cfg.Logger,
	})
	reservations := NewReservationService(repos.StudySpaceRepository, repos.ReservationRepository,
		cfg.Notifier, cfg.Metrics, cfg.Now, cfg.Logger)

	return &Services{
		Directory:    directory,
		Registry:     registry,
		Events:       events,
		Reservations: reservations,
		Resolver:     resolver,
		Authz:        authz,
	}
}
