package authz

// Relation classifies how a principal stands to a project or task.
type Relation string

const (
	RelationAdmin    Relation = "admin"
	RelationManager  Relation = "manager"
	RelationAssignee Relation = "assignee"
	RelationClient   Relation = "client"
	RelationNone     Relation = "none"
)

// ProjectRef carries the ownership columns a decision needs; repositories load
// it without the rest of the row.
type ProjectRef struct {
	ID        int64
	ManagerID int64
	ClientID  *int64
}

// TaskRef carries the ownership columns of a task.
type TaskRef struct {
	ID        int64
	ByID      int64
	ToID      int64
	ProjectID int64
}

// ProjectRelation resolves the principal's relationship to a project.
// Admin outranks manager outranks client.
func ProjectRelation(p Principal, pr ProjectRef) Relation {
	switch {
	case p.IsAdmin():
		return RelationAdmin
	case pr.ManagerID == p.ID:
		return RelationManager
	case pr.ClientID != nil && *pr.ClientID == p.ID:
		return RelationClient
	default:
		return RelationNone
	}
}

// TaskRelation resolves the principal's relationship to a task through its
// project. Manager means managing the task's project; client means being the
// client of the task's project.
func TaskRelation(p Principal, t TaskRef, pr ProjectRef) Relation {
	switch {
	case p.IsAdmin():
		return RelationAdmin
	case pr.ManagerID == p.ID:
		return RelationManager
	case t.ToID == p.ID:
		return RelationAssignee
	case pr.ClientID != nil && *pr.ClientID == p.ID:
		return RelationClient
	default:
		return RelationNone
	}
}
