package authz

import (
	"fmt"

	"github.com/nbthub-com/project-manager/internal/shared"
)

// TaskStatusField is the only task column an assignee may change.
const TaskStatusField = "status"

// UnassignedRoleTitle is forced onto tasks created by a project's client.
const UnassignedRoleTitle = "not-assigned"

func deny(action string) error {
	return fmt.Errorf("%w: %s", shared.ErrUnauthorized, action)
}

// CanCreateProject permits project creation for admins only.
func CanCreateProject(p Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return deny("create project")
}

// CanUpdateProject permits updates by the admin or the project's own manager.
func CanUpdateProject(p Principal, pr ProjectRef) error {
	switch ProjectRelation(p, pr) {
	case RelationAdmin, RelationManager:
		return nil
	}
	return deny("update project")
}

// CanDeleteProject permits deletion by the admin or the project's own manager,
// and refuses while any task still references the project.
func CanDeleteProject(p Principal, pr ProjectRef, taskCount int64) error {
	switch ProjectRelation(p, pr) {
	case RelationAdmin, RelationManager:
	default:
		return deny("delete project")
	}
	if taskCount > 0 {
		return fmt.Errorf("%w: project has %d task(s)", shared.ErrInvariant, taskCount)
	}
	return nil
}

// TaskCreateGrant reports how a permitted task creation is constrained.
type TaskCreateGrant struct {
	// ForceAssignment is set for client creators: the task is assigned to the
	// project's manager and the role title is forced to UnassignedRoleTitle.
	ForceAssignment bool
}

// CanCreateTask permits task creation by the admin, the project's manager, or
// the project's client (with forced assignment).
func CanCreateTask(p Principal, pr ProjectRef) (TaskCreateGrant, error) {
	switch ProjectRelation(p, pr) {
	case RelationAdmin, RelationManager:
		return TaskCreateGrant{}, nil
	case RelationClient:
		return TaskCreateGrant{ForceAssignment: true}, nil
	}
	return TaskCreateGrant{}, deny("create task")
}

// CanUpdateTask authorizes a task update over the proposed field set. Admins
// and the project manager may change any field; the assignee may change only
// the status. A single disallowed field rejects the whole mutation.
func CanUpdateTask(p Principal, t TaskRef, pr ProjectRef, fields []string) error {
	switch TaskRelation(p, t, pr) {
	case RelationAdmin, RelationManager:
		return nil
	case RelationAssignee:
		for _, f := range fields {
			if f != TaskStatusField {
				return fmt.Errorf("%w: assignee may only change %s (got %s)", shared.ErrUnauthorized, TaskStatusField, f)
			}
		}
		return nil
	}
	return deny("update task")
}

// CanDeleteTask permits deletion by the admin or the project's manager.
func CanDeleteTask(p Principal, t TaskRef, pr ProjectRef) error {
	switch TaskRelation(p, t, pr) {
	case RelationAdmin, RelationManager:
		return nil
	}
	return deny("delete task")
}

// CanAnnotateProject permits notes from project participants: the manager,
// the client, or the admin.
func CanAnnotateProject(p Principal, pr ProjectRef) error {
	if ProjectRelation(p, pr) != RelationNone {
		return nil
	}
	return deny("create note on project")
}

// CanAnnotateTask permits notes from task participants: the assignee, the
// task creator, the project manager, the project client, or the admin.
func CanAnnotateTask(p Principal, t TaskRef, pr ProjectRef) error {
	if TaskRelation(p, t, pr) != RelationNone {
		return nil
	}
	if t.ByID == p.ID {
		return nil
	}
	return deny("create note on task")
}

// CanEditMessage permits edits and deletes by the sender only.
func CanEditMessage(p Principal, m MessageRef) error {
	if m.FromUserID == p.ID {
		return nil
	}
	return deny("modify message")
}

// CanFlagMessage permits mark-read and star toggles by the sender, the
// recipient, or anyone for broadcast messages.
func CanFlagMessage(p Principal, m MessageRef) error {
	if CanViewMessage(p, m) {
		return nil
	}
	return deny("flag message")
}
