package authz

// ListScope is the query predicate a principal may list records under.
// Repositories translate it into SQL: when All is false, the set conditions
// are OR-ed together. Zero scope selects nothing.
type ListScope struct {
	All bool
	// ManagerID selects projects managed by this principal, or tasks belonging
	// to projects managed by this principal.
	ManagerID int64
	// AssigneeID selects tasks assigned to this principal.
	AssigneeID int64
	// ClientID selects projects (or tasks of projects) whose client is this
	// principal.
	ClientID int64
}

// Empty reports whether the scope selects no records at all.
func (s ListScope) Empty() bool {
	return !s.All && s.ManagerID == 0 && s.AssigneeID == 0 && s.ClientID == 0
}

// ProjectScope returns the list predicate for projects. Admin sees all,
// clients see projects they are client of, everyone else sees projects they
// manage.
func ProjectScope(p Principal) ListScope {
	switch p.Role {
	case RoleAdmin:
		return ListScope{All: true}
	case RoleClient:
		return ListScope{ClientID: p.ID}
	default:
		return ListScope{ManagerID: p.ID}
	}
}

// TaskScope returns the list predicate for tasks. Client visibility flows only
// through project association, never task authorship.
func TaskScope(p Principal) ListScope {
	switch p.Role {
	case RoleAdmin:
		return ListScope{All: true}
	case RoleClient:
		return ListScope{ClientID: p.ID}
	default:
		return ListScope{ManagerID: p.ID, AssigneeID: p.ID}
	}
}

// CanViewProject reports whether the principal may read a single project.
func CanViewProject(p Principal, pr ProjectRef) bool {
	return ProjectRelation(p, pr) != RelationNone
}

// CanViewTask reports whether the principal may read a single task.
func CanViewTask(p Principal, t TaskRef, pr ProjectRef) bool {
	return TaskRelation(p, t, pr) != RelationNone
}

// MessageRef carries the ownership columns of a mailbox message.
type MessageRef struct {
	ID         int64
	FromUserID int64
	ToUserID   *int64
	Global     bool
}

// CanViewMessage reports whether a message appears in the principal's mailbox:
// addressed to them, broadcast, or sent by them (outbox).
func CanViewMessage(p Principal, m MessageRef) bool {
	if m.Global {
		return true
	}
	if m.ToUserID != nil && *m.ToUserID == p.ID {
		return true
	}
	return m.FromUserID == p.ID
}
