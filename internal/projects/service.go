package projects

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// StatsInvalidator drops cached dashboard aggregates after a write. The
// dashboard service implements it; a nil invalidator disables the bump.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service owns project business rules. Every mutation goes through the authz
// decision table before touching storage.
type Service struct {
	logger *slog.Logger
	repo   Repository
	stats  StatsInvalidator
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, stats StatsInvalidator) *Service {
	return &Service{logger: logger, repo: repo, stats: stats}
}

// bumpStats invalidates cached dashboards after a successful write. Cache
// trouble must never fail the mutation that already committed.
func (s *Service) bumpStats(ctx context.Context) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx); err != nil {
		s.logger.Warn("dashboard invalidation failed", slog.Any("error", err))
	}
}

// List returns the projects visible to the principal.
func (s *Service) List(ctx context.Context, principal authz.Principal, req ListProjectsRequest) ([]Project, int, error) {
	return s.repo.List(ctx, authz.ProjectScope(principal), req)
}

// Get returns a single project the principal may view.
func (s *Service) Get(ctx context.Context, principal authz.Principal, id int64) (*Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewProject(principal, project.Ref()) {
		return nil, fmt.Errorf("%w: view project", shared.ErrUnauthorized)
	}
	return project, nil
}

// Create inserts a new project. Admin only; the manager must be a non-client
// account and the client, when set, must hold the client role.
func (s *Service) Create(ctx context.Context, principal authz.Principal, req CreateProjectRequest) (*Project, error) {
	if err := authz.CanCreateProject(principal); err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, &req.ManagerID, req.ClientID); err != nil {
		return nil, err
	}
	if taken, err := s.repo.TitleTaken(ctx, req.Title, 0); err != nil {
		return nil, fmt.Errorf("check title: %w", err)
	} else if taken {
		return nil, fmt.Errorf("%w: project title %q already exists", shared.ErrConflict, req.Title)
	}

	status := req.Status
	if status == "" {
		status = StatusInProgress
	}

	project := Project{
		Title:       req.Title,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		ClientID:    req.ClientID,
		Status:      status,
	}
	id, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	project.ID = id
	s.bumpStats(ctx)
	return &project, nil
}

// Update applies the requested changes. Setting status to cancelled cascades
// every task of the project to cancelled inside the same transaction.
func (s *Service) Update(ctx context.Context, principal authz.Principal, id int64, req UpdateProjectRequest) (*Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanUpdateProject(principal, project.Ref()); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Title != nil {
		if taken, err := s.repo.TitleTaken(ctx, *req.Title, id); err != nil {
			return nil, fmt.Errorf("check title: %w", err)
		} else if taken {
			return nil, fmt.Errorf("%w: project title %q already exists", shared.ErrConflict, *req.Title)
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ManagerID != nil || req.ClientID != nil {
		if err := s.checkOwnership(ctx, req.ManagerID, req.ClientID); err != nil {
			return nil, err
		}
		if req.ManagerID != nil {
			updates["manager_id"] = *req.ManagerID
		}
		if req.ClientID != nil {
			updates["client_id"] = *req.ClientID
		}
	}
	cancelling := false
	if req.Status != nil {
		updates["status"] = *req.Status
		cancelling = *req.Status == StatusCancelled && project.Status != StatusCancelled
	}

	if len(updates) == 0 {
		return project, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Update(ctx, id, updates); err != nil {
			return err
		}
		if cancelling {
			return tx.CancelTasks(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	s.bumpStats(ctx)

	return s.repo.Get(ctx, id)
}

// ToggleStar flips the starred flag. Same permission as any other update.
func (s *Service) ToggleStar(ctx context.Context, principal authz.Principal, id int64) (*Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanUpdateProject(principal, project.Ref()); err != nil {
		return nil, err
	}
	if err := s.repo.SetStarred(ctx, id, !project.IsStarred); err != nil {
		return nil, fmt.Errorf("toggle star: %w", err)
	}
	project.IsStarred = !project.IsStarred
	return project, nil
}

// Delete removes a project. Refused while any task still references it.
func (s *Service) Delete(ctx context.Context, principal authz.Principal, id int64) error {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	taskCount, err := s.repo.CountTasks(ctx, id)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if err := authz.CanDeleteProject(principal, project.Ref(), taskCount); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bumpStats(ctx)
	return nil
}

// Stats returns project counts grouped by status within the principal's scope.
func (s *Service) Stats(ctx context.Context, principal authz.Principal) (map[string]int64, error) {
	return s.repo.StatsByStatus(ctx, authz.ProjectScope(principal))
}

// checkOwnership enforces the schema invariant that manager_id references a
// non-client account and client_id references a client account.
func (s *Service) checkOwnership(ctx context.Context, managerID, clientID *int64) error {
	if managerID != nil {
		role, err := s.repo.UserRole(ctx, *managerID)
		if err != nil {
			return fmt.Errorf("resolve manager: %w", err)
		}
		if role == authz.RoleClient {
			return fmt.Errorf("%w: manager must not be a client account", shared.ErrInvariant)
		}
	}
	if clientID != nil {
		role, err := s.repo.UserRole(ctx, *clientID)
		if err != nil {
			return fmt.Errorf("resolve client: %w", err)
		}
		if role != authz.RoleClient {
			return fmt.Errorf("%w: client_id must reference a client account", shared.ErrInvariant)
		}
	}
	return nil
}
