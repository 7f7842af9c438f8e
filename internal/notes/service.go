package notes

import (
	"context"
	"fmt"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Service owns note business rules. Both reads and writes require the
// principal to be a participant of the annotated target.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the notes of a target the principal participates in.
func (s *Service) List(ctx context.Context, principal authz.Principal, req ListNotesRequest) ([]Note, error) {
	if err := s.checkParticipant(ctx, principal, req.TargetKind, req.TargetID); err != nil {
		return nil, err
	}
	return s.repo.ListByTarget(ctx, req.TargetKind, req.TargetID)
}

// Create attaches a note to a project or task.
func (s *Service) Create(ctx context.Context, principal authz.Principal, req CreateNoteRequest) (*Note, error) {
	if err := s.checkParticipant(ctx, principal, req.TargetKind, req.TargetID); err != nil {
		return nil, err
	}

	note := Note{
		Content:    req.Content,
		TargetKind: req.TargetKind,
		TargetID:   req.TargetID,
		MemberID:   principal.ID,
		Type:       req.Type,
	}
	if note.Type == "" {
		note.Type = TypeNote
	}

	id, err := s.repo.Create(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	note.ID = id
	return &note, nil
}

// checkParticipant resolves the target's ownership rows and applies the
// annotation rules: project participants for projects, task participants
// (including the creator) for tasks.
func (s *Service) checkParticipant(ctx context.Context, principal authz.Principal, kind string, targetID int64) error {
	switch kind {
	case TargetProject:
		project, err := s.repo.ProjectRef(ctx, targetID)
		if err != nil {
			return fmt.Errorf("resolve project: %w", err)
		}
		return authz.CanAnnotateProject(principal, project)
	case TargetTask:
		task, err := s.repo.TaskRef(ctx, targetID)
		if err != nil {
			return fmt.Errorf("resolve task: %w", err)
		}
		project, err := s.repo.ProjectRef(ctx, task.ProjectID)
		if err != nil {
			return fmt.Errorf("resolve project: %w", err)
		}
		return authz.CanAnnotateTask(principal, task, project)
	default:
		return fmt.Errorf("%w: unknown target kind %q", shared.ErrValidation, kind)
	}
}
