package mailbox

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

type mockRepository struct {
	messages map[int64]*Message
	users    map[string]int64
	names    map[int64]string
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		messages: make(map[int64]*Message),
		users:    make(map[string]int64),
		names:    make(map[int64]string),
		nextID:   1,
	}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

func (m *mockRepository) ListFor(ctx context.Context, userID int64) ([]Message, error) {
	var out []Message
	for _, msg := range m.messages {
		if (msg.ToUserID != nil && *msg.ToUserID == userID) || msg.Scope == ScopeGlobal || msg.FromUserID == userID {
			cp := *msg
			cp.FromName = m.names[cp.FromUserID]
			if cp.ToUserID != nil {
				cp.ToName = m.names[*cp.ToUserID]
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, msg Message) (int64, error) {
	id := m.nextID
	m.nextID++
	msg.ID = id
	m.messages[id] = &msg
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	msg, ok := m.messages[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["subject"]; ok {
		msg.Subject = v.(string)
	}
	if v, ok := updates["content"]; ok {
		msg.Content = v.(string)
	}
	if v, ok := updates["type"]; ok {
		msg.Type = v.(string)
	}
	return nil
}

func (m *mockRepository) SetRead(ctx context.Context, id int64, read bool) error {
	msg, ok := m.messages[id]
	if !ok {
		return shared.ErrNotFound
	}
	msg.IsRead = read
	return nil
}

func (m *mockRepository) SetStarred(ctx context.Context, id int64, starred bool) error {
	msg, ok := m.messages[id]
	if !ok {
		return shared.ErrNotFound
	}
	msg.IsStarred = starred
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.messages[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.messages, id)
	return nil
}

func (m *mockRepository) FindUserIDByName(ctx context.Context, name string) (int64, error) {
	id, ok := m.users[strings.ToLower(name)]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return id, nil
}

type mockNotifier struct {
	notified []int64
	err      error
}

func (n *mockNotifier) NotifyUrgent(ctx context.Context, messageID int64, toUserID *int64, subject string) error {
	n.notified = append(n.notified, messageID)
	return n.err
}

var (
	bobP      = authz.Principal{ID: 2, Role: authz.RoleUser}
	danaP     = authz.Principal{ID: 3, Role: authz.RoleUser}
	carolP    = authz.Principal{ID: 4, Role: authz.RoleClient}
	strangerP = authz.Principal{ID: 5, Role: authz.RoleUser}
)

func seededService() (*Service, *mockRepository, *mockNotifier) {
	repo := newMockRepository()
	for name, id := range map[string]int64{"bob": 2, "dana": 3, "carol": 4, "stranger": 5} {
		repo.users[name] = id
		repo.names[id] = strings.ToUpper(name[:1]) + name[1:]
	}
	notifier := &mockNotifier{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewService(logger, repo, notifier), repo, notifier
}

func TestSendLocalResolvesRecipientByName(t *testing.T) {
	svc, _, notifier := seededService()

	msg, err := svc.Send(context.Background(), bobP, SendMessageRequest{
		ToName: "Dana", Subject: "standup", Content: "10am",
	})
	require.NoError(t, err)
	require.NotNil(t, msg.ToUserID)
	assert.Equal(t, int64(3), *msg.ToUserID, "recipient resolved case-insensitively")
	assert.Equal(t, TypeNormal, msg.Type)
	assert.Equal(t, ScopeLocal, msg.Scope)
	assert.Empty(t, notifier.notified, "normal messages do not notify")

	_, err = svc.Send(context.Background(), bobP, SendMessageRequest{
		ToName: "nobody", Subject: "hi", Content: "x",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Send(context.Background(), bobP, SendMessageRequest{Subject: "hi", Content: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation, "local messages need a recipient")
}

func TestSendGlobalHasNoRecipient(t *testing.T) {
	svc, _, _ := seededService()

	msg, err := svc.Send(context.Background(), bobP, SendMessageRequest{
		ToName: "Dana", Subject: "maintenance", Content: "tonight", Scope: ScopeGlobal,
	})
	require.NoError(t, err)
	assert.Nil(t, msg.ToUserID, "global messages ignore to_name")
}

func TestSendUrgentNotifies(t *testing.T) {
	svc, _, notifier := seededService()

	msg, err := svc.Send(context.Background(), bobP, SendMessageRequest{
		ToName: "Dana", Subject: "prod down", Content: "now", Type: TypeUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{msg.ID}, notifier.notified)
}

func TestSendUrgentNotifyFailureIsLoggedNotFatal(t *testing.T) {
	repo := newMockRepository()
	repo.users["dana"] = 3
	repo.names[3] = "Dana"
	notifier := &mockNotifier{err: errors.New("queue unavailable")}
	var logs bytes.Buffer
	svc := NewService(slog.New(slog.NewTextHandler(&logs, nil)), repo, notifier)

	msg, err := svc.Send(context.Background(), bobP, SendMessageRequest{
		ToName: "Dana", Subject: "prod down", Content: "now", Type: TypeUrgent,
	})
	require.NoError(t, err, "message delivery must survive a notification failure")
	require.NotNil(t, msg)
	assert.Contains(t, logs.String(), "urgent notification failed")
	assert.Contains(t, logs.String(), "queue unavailable")
}

func TestMailboxVisibility(t *testing.T) {
	svc, _, _ := seededService()
	_, err := svc.Send(context.Background(), bobP, SendMessageRequest{ToName: "Dana", Subject: "a", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), carolP, SendMessageRequest{Subject: "b", Content: "y", Scope: ScopeGlobal})
	require.NoError(t, err)

	// Bob sees his sent message and the broadcast.
	list, err := svc.List(context.Background(), bobP)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Dana sees the message addressed to her and the broadcast.
	list, err = svc.List(context.Background(), danaP)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Stranger sees only the broadcast.
	list, err = svc.List(context.Background(), strangerP)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Subject)
}

func TestDisplayNamesRelativeToViewer(t *testing.T) {
	svc, _, _ := seededService()
	_, err := svc.Send(context.Background(), bobP, SendMessageRequest{ToName: "Dana", Subject: "a", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), bobP, SendMessageRequest{Subject: "b", Content: "y", Scope: ScopeGlobal})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), danaP)
	require.NoError(t, err)
	for _, m := range list {
		assert.Equal(t, "Bob", m.FromName)
		if m.Scope == ScopeGlobal {
			assert.Equal(t, "Global", m.ToName)
		} else {
			assert.Equal(t, "Me", m.ToName)
		}
	}

	list, err = svc.List(context.Background(), bobP)
	require.NoError(t, err)
	for _, m := range list {
		assert.Equal(t, "Me", m.FromName)
	}
}

func TestOnlySenderEditsAndDeletes(t *testing.T) {
	svc, repo, _ := seededService()
	msg, err := svc.Send(context.Background(), bobP, SendMessageRequest{ToName: "Dana", Subject: "a", Content: "x"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), danaP, msg.ID, UpdateMessageRequest{Subject: ptr("edited")})
	assert.ErrorIs(t, err, shared.ErrUnauthorized, "recipient cannot edit")

	updated, err := svc.Update(context.Background(), bobP, msg.ID, UpdateMessageRequest{Subject: ptr("edited")})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Subject)

	err = svc.Delete(context.Background(), danaP, msg.ID)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	require.NoError(t, svc.Delete(context.Background(), bobP, msg.ID))
	assert.NotContains(t, repo.messages, msg.ID)
}

func TestFlagsByAudience(t *testing.T) {
	svc, repo, _ := seededService()
	msg, err := svc.Send(context.Background(), bobP, SendMessageRequest{ToName: "Dana", Subject: "a", Content: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), danaP, msg.ID))
	assert.True(t, repo.messages[msg.ID].IsRead)

	starred, err := svc.ToggleStar(context.Background(), danaP, msg.ID)
	require.NoError(t, err)
	assert.True(t, starred.IsStarred)

	// Outside the audience the message does not exist.
	err = svc.MarkRead(context.Background(), strangerP, msg.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
