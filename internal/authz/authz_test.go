package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbthub-com/project-manager/internal/shared"
)

func ptr(v int64) *int64 { return &v }

var (
	admin    = Principal{ID: 1, Role: RoleAdmin}
	bob      = Principal{ID: 2, Role: RoleUser}  // manages project 10
	dana     = Principal{ID: 3, Role: RoleUser}  // assignee of task 100
	carol    = Principal{ID: 4, Role: RoleClient}
	stranger = Principal{ID: 5, Role: RoleUser}

	project = ProjectRef{ID: 10, ManagerID: 2, ClientID: ptr(4)}
	task    = TaskRef{ID: 100, ByID: 2, ToID: 3, ProjectID: 10}
)

func TestProjectRelation(t *testing.T) {
	cases := []struct {
		name string
		p    Principal
		want Relation
	}{
		{"admin", admin, RelationAdmin},
		{"manager", bob, RelationManager},
		{"client", carol, RelationClient},
		{"stranger", stranger, RelationNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ProjectRelation(tc.p, project))
		})
	}
}

func TestProjectRelationNoClient(t *testing.T) {
	pr := ProjectRef{ID: 11, ManagerID: 2}
	assert.Equal(t, RelationNone, ProjectRelation(carol, pr))
}

func TestTaskRelation(t *testing.T) {
	cases := []struct {
		name string
		p    Principal
		want Relation
	}{
		{"admin", admin, RelationAdmin},
		{"project manager", bob, RelationManager},
		{"assignee", dana, RelationAssignee},
		{"project client", carol, RelationClient},
		{"stranger", stranger, RelationNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TaskRelation(tc.p, task, project))
		})
	}
}

func TestProjectVisibilityMatchesOwnership(t *testing.T) {
	// Visible iff admin, manager, or client of the project.
	for _, p := range []Principal{admin, bob, carol} {
		assert.True(t, CanViewProject(p, project), "principal %d", p.ID)
	}
	assert.False(t, CanViewProject(stranger, project))
	assert.False(t, CanViewProject(dana, project), "assignee of a task is not a project relation")
}

func TestProjectScopePerRole(t *testing.T) {
	assert.Equal(t, ListScope{All: true}, ProjectScope(admin))
	assert.Equal(t, ListScope{ManagerID: bob.ID}, ProjectScope(bob))
	assert.Equal(t, ListScope{ClientID: carol.ID}, ProjectScope(carol))
}

func TestTaskScopePerRole(t *testing.T) {
	assert.Equal(t, ListScope{All: true}, TaskScope(admin))
	assert.Equal(t, ListScope{ManagerID: dana.ID, AssigneeID: dana.ID}, TaskScope(dana))
	assert.Equal(t, ListScope{ClientID: carol.ID}, TaskScope(carol))
	assert.False(t, TaskScope(carol).Empty())
}

func TestCanCreateProjectAdminOnly(t *testing.T) {
	require.NoError(t, CanCreateProject(admin))
	for _, p := range []Principal{bob, carol, stranger} {
		err := CanCreateProject(p)
		assert.ErrorIs(t, err, shared.ErrUnauthorized, "principal %d", p.ID)
	}
}

func TestCanUpdateProject(t *testing.T) {
	require.NoError(t, CanUpdateProject(admin, project))
	require.NoError(t, CanUpdateProject(bob, project))
	assert.ErrorIs(t, CanUpdateProject(carol, project), shared.ErrUnauthorized)
	assert.ErrorIs(t, CanUpdateProject(stranger, project), shared.ErrUnauthorized)
}

func TestCanDeleteProject(t *testing.T) {
	require.NoError(t, CanDeleteProject(bob, project, 0))

	err := CanDeleteProject(bob, project, 3)
	assert.ErrorIs(t, err, shared.ErrInvariant)
	assert.NotErrorIs(t, err, shared.ErrUnauthorized)

	// Authorization is checked before the task-count invariant.
	assert.ErrorIs(t, CanDeleteProject(stranger, project, 3), shared.ErrUnauthorized)
}

func TestCanCreateTask(t *testing.T) {
	grant, err := CanCreateTask(bob, project)
	require.NoError(t, err)
	assert.False(t, grant.ForceAssignment)

	grant, err = CanCreateTask(carol, project)
	require.NoError(t, err)
	assert.True(t, grant.ForceAssignment, "client creations are force-assigned to the manager")

	_, err = CanCreateTask(stranger, project)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCanUpdateTaskFieldRestriction(t *testing.T) {
	full := []string{"title", "priority", "deadline", "status"}

	require.NoError(t, CanUpdateTask(admin, task, project, full))
	require.NoError(t, CanUpdateTask(bob, task, project, full))

	// Assignee may touch only the status.
	require.NoError(t, CanUpdateTask(dana, task, project, []string{"status"}))
	err := CanUpdateTask(dana, task, project, []string{"status", "title"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	// Clients and strangers cannot update at all.
	assert.ErrorIs(t, CanUpdateTask(carol, task, project, []string{"status"}), shared.ErrUnauthorized)
	assert.ErrorIs(t, CanUpdateTask(stranger, task, project, nil), shared.ErrUnauthorized)
}

func TestCanDeleteTask(t *testing.T) {
	require.NoError(t, CanDeleteTask(admin, task, project))
	require.NoError(t, CanDeleteTask(bob, task, project))
	assert.ErrorIs(t, CanDeleteTask(dana, task, project), shared.ErrUnauthorized)
	assert.ErrorIs(t, CanDeleteTask(carol, task, project), shared.ErrUnauthorized)
}

func TestCanAnnotate(t *testing.T) {
	for _, p := range []Principal{admin, bob, carol} {
		assert.NoError(t, CanAnnotateProject(p, project), "principal %d", p.ID)
	}
	assert.ErrorIs(t, CanAnnotateProject(dana, project), shared.ErrUnauthorized)

	for _, p := range []Principal{admin, bob, dana, carol} {
		assert.NoError(t, CanAnnotateTask(p, task, project), "principal %d", p.ID)
	}
	assert.ErrorIs(t, CanAnnotateTask(stranger, task, project), shared.ErrUnauthorized)

	// Task creator keeps note access even after handing the project over.
	handedOver := ProjectRef{ID: 10, ManagerID: 9}
	assert.NoError(t, CanAnnotateTask(bob, task, handedOver))
}

func TestMessageRules(t *testing.T) {
	local := MessageRef{ID: 1, FromUserID: bob.ID, ToUserID: ptr(dana.ID)}
	global := MessageRef{ID: 2, FromUserID: bob.ID, Global: true}

	assert.True(t, CanViewMessage(bob, local), "sender sees outbox")
	assert.True(t, CanViewMessage(dana, local))
	assert.False(t, CanViewMessage(carol, local))
	assert.True(t, CanViewMessage(carol, global))

	require.NoError(t, CanEditMessage(bob, local))
	assert.ErrorIs(t, CanEditMessage(dana, local), shared.ErrUnauthorized)

	require.NoError(t, CanFlagMessage(dana, local))
	require.NoError(t, CanFlagMessage(stranger, global))
	assert.ErrorIs(t, CanFlagMessage(stranger, local), shared.ErrUnauthorized)
}

func TestDecisionsAreIdempotent(t *testing.T) {
	// Same inputs, same decision: decisions are pure functions of state.
	first := CanUpdateTask(dana, task, project, []string{"title"})
	second := CanUpdateTask(dana, task, project, []string{"title"})
	require.Error(t, first)
	require.Error(t, second)
	assert.Equal(t, first.Error(), second.Error())
	assert.True(t, errors.Is(first, shared.ErrUnauthorized) && errors.Is(second, shared.ErrUnauthorized))
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "user", "client"} {
		role, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), role)
	}
	_, err := ParseRole("manager")
	assert.Error(t, err, "manager is a relationship, never a stored role")
}
