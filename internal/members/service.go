package members

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// StatsInvalidator drops cached dashboard aggregates after a write. The
// dashboard service implements it; a nil invalidator disables the bump.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service orchestrates member management. Route-level admin enforcement is
// done by the auth middleware; the service only owns the data rules.
type Service struct {
	logger *slog.Logger
	repo   Repository
	stats  StatsInvalidator
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, stats StatsInvalidator) *Service {
	return &Service{logger: logger, repo: repo, stats: stats}
}

// List returns all non-admin members.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.repo.List(ctx)
}

// Counts returns member totals for the admin dashboard.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.Counts(ctx)
}

// Create provisions a new user or client account. Name and email uniqueness is
// case-insensitive; violations surface as Conflict, never Unauthorized.
func (s *Service) Create(ctx context.Context, req CreateMemberRequest) (*Member, error) {
	role, err := authz.ParseRole(req.Role)
	if err != nil || role == authz.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be user or client", shared.ErrValidation)
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	if taken, err := s.repo.NameTaken(ctx, name); err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	} else if taken {
		return nil, fmt.Errorf("%w: name %q already taken", shared.ErrConflict, name)
	}
	if taken, err := s.repo.EmailTaken(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, fmt.Errorf("%w: email %q already registered", shared.ErrConflict, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.Create(ctx, name, email, role, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	if s.stats != nil {
		if err := s.stats.Invalidate(ctx); err != nil {
			s.logger.Warn("dashboard invalidation failed", slog.Any("error", err))
		}
	}
	return &Member{ID: id, Name: name, Email: email, Role: role, IsActive: true}, nil
}
