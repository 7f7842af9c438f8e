package members

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

type mockRepository struct {
	members map[int64]Member
	hashes  map[int64]string
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		members: make(map[int64]Member),
		hashes:  make(map[int64]string),
		nextID:  1,
	}
}

func (m *mockRepository) List(ctx context.Context) ([]Member, error) {
	var out []Member
	for _, member := range m.members {
		if member.Role != authz.RoleAdmin {
			out = append(out, member)
		}
	}
	return out, nil
}

func (m *mockRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, member := range m.members {
		switch member.Role {
		case authz.RoleUser:
			c.Users++
		case authz.RoleClient:
			c.Clients++
		}
	}
	return c, nil
}

func (m *mockRepository) NameTaken(ctx context.Context, name string) (bool, error) {
	for _, member := range m.members {
		if strings.EqualFold(member.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	for _, member := range m.members {
		if strings.EqualFold(member.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Create(ctx context.Context, name, email string, role authz.Role, passwordHash string) (int64, error) {
	id := m.nextID
	m.nextID++
	m.members[id] = Member{ID: id, Name: name, Email: email, Role: role, IsActive: true}
	m.hashes[id] = passwordHash
	return id, nil
}

func TestCreateMember(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(testLogger(), repo, nil)

	member, err := svc.Create(context.Background(), CreateMemberRequest{
		Name: "  Bob  ", Email: "bob@test.local", Role: "user", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob", member.Name, "name is trimmed")
	assert.Equal(t, authz.RoleUser, member.Role)
	assert.True(t, member.IsActive)

	// The stored hash verifies against the original password.
	err = bcrypt.CompareHashAndPassword([]byte(repo.hashes[member.ID]), []byte("secret1"))
	assert.NoError(t, err)
}

func TestCreateMemberRejectsAdminRole(t *testing.T) {
	svc := NewService(testLogger(), newMockRepository(), nil)

	for _, role := range []string{"admin", "manager", "owner"} {
		_, err := svc.Create(context.Background(), CreateMemberRequest{
			Name: "Eve", Email: "eve@test.local", Role: role, Password: "secret1",
		})
		assert.ErrorIs(t, err, shared.ErrValidation, "role %s", role)
	}
}

func TestCreateMemberUniqueness(t *testing.T) {
	svc := NewService(testLogger(), newMockRepository(), nil)

	_, err := svc.Create(context.Background(), CreateMemberRequest{
		Name: "Bob", Email: "bob@test.local", Role: "user", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateMemberRequest{
		Name: "BOB", Email: "other@test.local", Role: "user", Password: "secret1",
	})
	assert.ErrorIs(t, err, shared.ErrConflict, "name uniqueness is case-insensitive")

	_, err = svc.Create(context.Background(), CreateMemberRequest{
		Name: "Robert", Email: "Bob@Test.Local", Role: "client", Password: "secret1",
	})
	assert.ErrorIs(t, err, shared.ErrConflict, "email uniqueness is case-insensitive")
}

func TestListAndCounts(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(testLogger(), repo, nil)
	repo.members[99] = Member{ID: 99, Name: "Root", Role: authz.RoleAdmin}

	_, err := svc.Create(context.Background(), CreateMemberRequest{
		Name: "Bob", Email: "bob@test.local", Role: "user", Password: "secret1",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateMemberRequest{
		Name: "Carol", Email: "carol@test.local", Role: "client", Password: "secret1",
	})
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2, "admins are excluded from the member list")

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Users: 1, Clients: 1}, counts)
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	m.calls++
	return nil
}

func TestCreateMemberInvalidatesDashboards(t *testing.T) {
	stats := &mockInvalidator{}
	svc := NewService(testLogger(), newMockRepository(), stats)

	_, err := svc.Create(context.Background(), CreateMemberRequest{
		Name: "Bob", Email: "bob@test.local", Role: "user", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.calls, "member creation bumps the dashboard cache")

	_, err = svc.Create(context.Background(), CreateMemberRequest{
		Name: "Eve", Email: "eve@test.local", Role: "admin", Password: "secret1",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, 1, stats.calls, "rejected creation does not bump")
}
