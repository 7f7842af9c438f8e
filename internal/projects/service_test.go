package projects

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

type mockRepository struct {
	projects  map[int64]*Project
	roles     map[int64]authz.Role
	taskCount map[int64]int64
	nextID    int64

	// records whether Update and CancelTasks shared one WithTx call
	txCancelled []int64
	txUpdates   []map[string]any
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		projects:  make(map[int64]*Project),
		roles:     make(map[int64]authz.Role),
		taskCount: make(map[int64]int64),
		nextID:    1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTxRepo{mock: m})
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, scope authz.ListScope, req ListProjectsRequest) ([]Project, int, error) {
	var out []Project
	for _, p := range m.projects {
		if !scope.All && p.ManagerID != scope.ManagerID && (p.ClientID == nil || *p.ClientID != scope.ClientID) {
			continue
		}
		if req.Status != "" && p.Status != req.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	for _, p := range m.projects {
		if p.ID != excludeID && strings.EqualFold(p.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Create(ctx context.Context, p Project) (int64, error) {
	id := m.nextID
	m.nextID++
	p.ID = id
	m.projects[id] = &p
	return id, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.projects[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *mockRepository) SetStarred(ctx context.Context, id int64, starred bool) error {
	p, ok := m.projects[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsStarred = starred
	return nil
}

func (m *mockRepository) CountTasks(ctx context.Context, projectID int64) (int64, error) {
	return m.taskCount[projectID], nil
}

func (m *mockRepository) UserRole(ctx context.Context, userID int64) (authz.Role, error) {
	role, ok := m.roles[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (m *mockRepository) StatsByStatus(ctx context.Context, scope authz.ListScope) (map[string]int64, error) {
	stats := map[string]int64{"total": 0}
	for _, p := range m.projects {
		if !scope.All && p.ManagerID != scope.ManagerID && (p.ClientID == nil || *p.ClientID != scope.ClientID) {
			continue
		}
		stats[p.Status]++
		stats["total"]++
	}
	return stats, nil
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	p, ok := t.mock.projects[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["title"]; ok {
		p.Title = v.(string)
	}
	if v, ok := updates["status"]; ok {
		p.Status = v.(string)
	}
	if v, ok := updates["manager_id"]; ok {
		p.ManagerID = v.(int64)
	}
	t.mock.txUpdates = append(t.mock.txUpdates, updates)
	return nil
}

func (t *mockTxRepo) CancelTasks(ctx context.Context, projectID int64) error {
	t.mock.txCancelled = append(t.mock.txCancelled, projectID)
	return nil
}

func ptr[T any](v T) *T { return &v }

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	m.calls++
	return nil
}

var (
	adminP  = authz.Principal{ID: 1, Role: authz.RoleAdmin}
	bobP    = authz.Principal{ID: 2, Role: authz.RoleUser}
	carolP  = authz.Principal{ID: 4, Role: authz.RoleClient}
	danaP   = authz.Principal{ID: 3, Role: authz.RoleUser}
)

func seededService() (*Service, *mockRepository) {
	repo := newMockRepository()
	repo.roles[1] = authz.RoleAdmin
	repo.roles[2] = authz.RoleUser
	repo.roles[3] = authz.RoleUser
	repo.roles[4] = authz.RoleClient
	return NewService(testLogger(), repo, nil), repo
}

func TestCreateProject(t *testing.T) {
	svc, _ := seededService()

	project, err := svc.Create(context.Background(), adminP, CreateProjectRequest{
		Title:     "Alpha",
		ManagerID: 2,
		ClientID:  ptr(int64(4)),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, project.Status, "status defaults to in_progress")
	assert.Equal(t, int64(2), project.ManagerID)
}

func TestCreateProjectDeniedForNonAdmin(t *testing.T) {
	svc, _ := seededService()

	for _, p := range []authz.Principal{bobP, carolP} {
		_, err := svc.Create(context.Background(), p, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	}
}

func TestCreateProjectDuplicateTitleIsConflict(t *testing.T) {
	svc, _ := seededService()

	_, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "alpha", ManagerID: 2})
	assert.ErrorIs(t, err, shared.ErrConflict, "title uniqueness is case-insensitive")
	assert.NotErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCreateProjectOwnershipInvariants(t *testing.T) {
	svc, _ := seededService()

	_, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 4})
	assert.ErrorIs(t, err, shared.ErrInvariant, "client account cannot manage")

	_, err = svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Beta", ManagerID: 2, ClientID: ptr(int64(3))})
	assert.ErrorIs(t, err, shared.ErrInvariant, "client_id must reference a client role")
}

func TestUpdateProjectByManager(t *testing.T) {
	svc, _ := seededService()
	created, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), bobP, created.ID, UpdateProjectRequest{Status: ptr(StatusReview)})
	require.NoError(t, err)
	assert.Equal(t, StatusReview, updated.Status)

	_, err = svc.Update(context.Background(), danaP, created.ID, UpdateProjectRequest{Status: ptr(StatusReview)})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCancelCascadesTasksInOneTransaction(t *testing.T) {
	svc, repo := seededService()
	created, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), bobP, created.ID, UpdateProjectRequest{Status: ptr(StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, []int64{created.ID}, repo.txCancelled, "tasks cancelled alongside the project")

	// Re-cancelling an already cancelled project does not cascade again.
	repo.txCancelled = nil
	_, err = svc.Update(context.Background(), bobP, created.ID, UpdateProjectRequest{Status: ptr(StatusCancelled)})
	require.NoError(t, err)
	assert.Empty(t, repo.txCancelled)
}

func TestDeleteProjectWithTasksIsInvariantViolation(t *testing.T) {
	svc, repo := seededService()
	created, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
	require.NoError(t, err)
	repo.taskCount[created.ID] = 2

	err = svc.Delete(context.Background(), bobP, created.ID)
	assert.ErrorIs(t, err, shared.ErrInvariant)
	assert.Contains(t, repo.projects, created.ID, "nothing deleted on refusal")

	repo.taskCount[created.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), bobP, created.ID))
	assert.NotContains(t, repo.projects, created.ID)
}

func TestGetEnforcesVisibility(t *testing.T) {
	svc, _ := seededService()
	created, err := svc.Create(context.Background(), adminP, CreateProjectRequest{
		Title: "Alpha", ManagerID: 2, ClientID: ptr(int64(4)),
	})
	require.NoError(t, err)

	for _, p := range []authz.Principal{adminP, bobP, carolP} {
		_, err := svc.Get(context.Background(), p, created.ID)
		assert.NoError(t, err, "principal %d", p.ID)
	}
	_, err = svc.Get(context.Background(), danaP, created.ID)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestStatsScopedByRole(t *testing.T) {
	svc, _ := seededService()
	_, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Beta", ManagerID: 3})
	require.NoError(t, err)

	all, err := svc.Stats(context.Background(), adminP)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all["total"])

	mine, err := svc.Stats(context.Background(), bobP)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine["total"])
	assert.Equal(t, int64(1), mine[StatusInProgress])
}

func TestToggleStar(t *testing.T) {
	svc, _ := seededService()
	created, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
	require.NoError(t, err)

	starred, err := svc.ToggleStar(context.Background(), bobP, created.ID)
	require.NoError(t, err)
	assert.True(t, starred.IsStarred)

	_, err = svc.ToggleStar(context.Background(), danaP, created.ID)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestMutationsInvalidateDashboards(t *testing.T) {
	repo := newMockRepository()
	repo.roles[1] = authz.RoleAdmin
	repo.roles[2] = authz.RoleUser
	stats := &mockInvalidator{}
	svc := NewService(testLogger(), repo, stats)

	created, err := svc.Create(context.Background(), adminP, CreateProjectRequest{Title: "Alpha", ManagerID: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.calls, "create bumps the dashboard cache")

	_, err = svc.Create(context.Background(), carolP, CreateProjectRequest{Title: "Beta", ManagerID: 2})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Equal(t, 1, stats.calls, "denied mutations do not bump")

	_, err = svc.Update(context.Background(), adminP, created.ID, UpdateProjectRequest{Status: ptr(StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.calls, "update bumps the dashboard cache")

	repo.taskCount[created.ID] = 1
	err = svc.Delete(context.Background(), adminP, created.ID)
	require.ErrorIs(t, err, shared.ErrInvariant)
	assert.Equal(t, 2, stats.calls, "refused delete does not bump")

	repo.taskCount[created.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), adminP, created.ID))
	assert.Equal(t, 3, stats.calls, "delete bumps the dashboard cache")
}
