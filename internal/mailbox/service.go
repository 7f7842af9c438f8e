package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Notifier delivers out-of-band notifications for urgent messages. The
// background job client implements it; a nil notifier disables delivery.
type Notifier interface {
	NotifyUrgent(ctx context.Context, messageID int64, toUserID *int64, subject string) error
}

// Service owns mailbox business rules.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	notifier Notifier
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, notifier Notifier) *Service {
	return &Service{logger: logger, repo: repo, notifier: notifier}
}

// List returns the principal's mailbox with viewer-relative display names.
func (s *Service) List(ctx context.Context, principal authz.Principal) ([]Message, error) {
	messages, err := s.repo.ListFor(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("list mailbox: %w", err)
	}
	for i := range messages {
		s.decorate(&messages[i], principal)
	}
	return messages, nil
}

// Send creates a message. Local messages resolve the recipient by account
// name; global ones carry no recipient. Urgent messages enqueue a
// notification job after the row is written.
func (s *Service) Send(ctx context.Context, principal authz.Principal, req SendMessageRequest) (*Message, error) {
	m := Message{
		FromUserID: principal.ID,
		Subject:    req.Subject,
		Content:    req.Content,
		Type:       req.Type,
		Scope:      req.Scope,
	}
	if m.Type == "" {
		m.Type = TypeNormal
	}
	if m.Scope == "" {
		m.Scope = ScopeLocal
	}

	if m.Scope == ScopeLocal {
		name := strings.TrimSpace(req.ToName)
		if name == "" {
			return nil, fmt.Errorf("%w: to_name is required for local messages", shared.ErrValidation)
		}
		toID, err := s.repo.FindUserIDByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve recipient %q: %w", name, err)
		}
		m.ToUserID = &toID
	}

	id, err := s.repo.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	m.ID = id

	if m.Type == TypeUrgent && s.notifier != nil {
		// The message is already delivered to the mailbox; notification
		// failure must not fail the send.
		if err := s.notifier.NotifyUrgent(ctx, m.ID, m.ToUserID, m.Subject); err != nil {
			s.logger.Warn("urgent notification failed",
				slog.Int64("message_id", m.ID), slog.Any("error", err))
		}
	}
	return &m, nil
}

// Update edits a sent message. Sender only.
func (s *Service) Update(ctx context.Context, principal authz.Principal, id int64, req UpdateMessageRequest) (*Message, error) {
	m, err := s.viewable(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanEditMessage(principal, m.Ref()); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if len(updates) == 0 {
		return m, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// MarkRead flags a message as read. Sender, recipient, or anyone for
// broadcasts.
func (s *Service) MarkRead(ctx context.Context, principal authz.Principal, id int64) error {
	m, err := s.viewable(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := authz.CanFlagMessage(principal, m.Ref()); err != nil {
		return err
	}
	return s.repo.SetRead(ctx, id, true)
}

// ToggleStar flips the starred flag. Same permission as MarkRead.
func (s *Service) ToggleStar(ctx context.Context, principal authz.Principal, id int64) (*Message, error) {
	m, err := s.viewable(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanFlagMessage(principal, m.Ref()); err != nil {
		return nil, err
	}
	if err := s.repo.SetStarred(ctx, id, !m.IsStarred); err != nil {
		return nil, fmt.Errorf("toggle star: %w", err)
	}
	m.IsStarred = !m.IsStarred
	return m, nil
}

// Delete removes a message. Sender only.
func (s *Service) Delete(ctx context.Context, principal authz.Principal, id int64) error {
	m, err := s.viewable(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := authz.CanEditMessage(principal, m.Ref()); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// viewable loads a message and hides it entirely from accounts outside its
// audience. Non-viewers get NotFound rather than Unauthorized so the mailbox
// leaks nothing about other people's mail.
func (s *Service) viewable(ctx context.Context, principal authz.Principal, id int64) (*Message, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewMessage(principal, m.Ref()) {
		return nil, shared.ErrNotFound
	}
	return m, nil
}

// decorate rewrites the name labels relative to the viewer.
func (s *Service) decorate(m *Message, principal authz.Principal) {
	if m.FromUserID == principal.ID {
		m.FromName = "Me"
	}
	switch {
	case m.Scope == ScopeGlobal:
		m.ToName = "Global"
	case m.ToUserID != nil && *m.ToUserID == principal.ID:
		m.ToName = "Me"
	}
}
