package tasks

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

// Service owns task business rules. Ownership is resolved fresh from storage
// on every call; nothing here trusts role or relation data from the request.
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

// List returns the tasks visible to the principal.
func (s *Service) List(ctx context.Context, principal authz.Principal, req ListTasksRequest) ([]Task, int, error) {
	return s.repo.List(ctx, authz.TaskScope(principal), req)
}

// Get returns a single task the principal may view.
func (s *Service) Get(ctx context.Context, principal authz.Principal, id int64) (*Task, error) {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewTask(principal, task.Ref(), project) {
		return nil, fmt.Errorf("%w: view task", shared.ErrUnauthorized)
	}
	return task, nil
}

// Create inserts a new task. Admins and the project's manager assign freely;
// the project's client may create tasks as well, but the assignment is forced
// to the project manager and the role title to the unassigned placeholder.
func (s *Service) Create(ctx context.Context, principal authz.Principal, req CreateTaskRequest) (*Task, error) {
	project, err := s.repo.ProjectRef(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	grant, err := authz.CanCreateTask(principal, project)
	if err != nil {
		return nil, err
	}

	task := Task{
		Title:       req.Title,
		RoleTitle:   req.RoleTitle,
		Description: req.Description,
		Status:      StatusPending,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		ByID:        principal.ID,
		ToID:        req.ToID,
		ProjectID:   req.ProjectID,
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if grant.ForceAssignment {
		task.ToID = project.ManagerID
		task.RoleTitle = authz.UnassignedRoleTitle
	} else {
		if task.ToID == 0 {
			return nil, fmt.Errorf("%w: to_id is required", shared.ErrValidation)
		}
		if err := s.checkAssignee(ctx, task.ToID); err != nil {
			return nil, err
		}
	}
	if task.RoleTitle == "" {
		task.RoleTitle = authz.UnassignedRoleTitle
	}

	if taken, err := s.repo.TitleTaken(ctx, req.ProjectID, req.Title, 0); err != nil {
		return nil, fmt.Errorf("check title: %w", err)
	} else if taken {
		return nil, fmt.Errorf("%w: task title %q already exists in this project", shared.ErrConflict, req.Title)
	}

	id, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	task.ID = id
	s.bumpStats(ctx)
	return &task, nil
}

// Update applies the requested changes. The assignee may only move status;
// admins and the project manager may change anything.
func (s *Service) Update(ctx context.Context, principal authz.Principal, id int64, req UpdateTaskRequest) (*Task, error) {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.RoleTitle != nil {
		updates["role_title"] = *req.RoleTitle
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.ToID != nil {
		updates["to_id"] = *req.ToID
	}

	fields := make([]string, 0, len(updates))
	for f := range updates {
		fields = append(fields, f)
	}
	if err := authz.CanUpdateTask(principal, task.Ref(), project, fields); err != nil {
		return nil, err
	}

	if len(updates) == 0 {
		return task, nil
	}

	if req.Title != nil {
		if taken, err := s.repo.TitleTaken(ctx, task.ProjectID, *req.Title, id); err != nil {
			return nil, fmt.Errorf("check title: %w", err)
		} else if taken {
			return nil, fmt.Errorf("%w: task title %q already exists in this project", shared.ErrConflict, *req.Title)
		}
	}
	if req.ToID != nil {
		if err := s.checkAssignee(ctx, *req.ToID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.bumpStats(ctx)
	return s.repo.Get(ctx, id)
}

// Delete removes a task. Admin or project manager only.
func (s *Service) Delete(ctx context.Context, principal authz.Principal, id int64) error {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanDeleteTask(principal, task.Ref(), project); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bumpStats(ctx)
	return nil
}

// Stats returns task counts grouped by status within the principal's scope.
func (s *Service) Stats(ctx context.Context, principal authz.Principal) (map[string]int64, error) {
	return s.repo.StatsByStatus(ctx, authz.TaskScope(principal))
}

func (s *Service) load(ctx context.Context, id int64) (*Task, authz.ProjectRef, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, authz.ProjectRef{}, err
	}
	project, err := s.repo.ProjectRef(ctx, task.ProjectID)
	if err != nil {
		return nil, authz.ProjectRef{}, fmt.Errorf("resolve project: %w", err)
	}
	return task, project, nil
}

func (s *Service) checkAssignee(ctx context.Context, userID int64) error {
	ok, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve assignee: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: assignee %d does not exist or is inactive", shared.ErrInvariant, userID)
	}
	return nil
}
