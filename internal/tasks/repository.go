package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Repository provides PostgreSQL backed task persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Task, error)
	ProjectRef(ctx context.Context, projectID int64) (authz.ProjectRef, error)
	List(ctx context.Context, scope authz.ListScope, req ListTasksRequest) ([]Task, int, error)
	TitleTaken(ctx context.Context, projectID int64, title string, excludeID int64) (bool, error)
	Create(ctx context.Context, t Task) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)
	StatsByStatus(ctx context.Context, scope authz.ListScope) (map[string]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const taskColumns = `t.id, t.title, t.role_title, t.description, t.status, t.priority, t.deadline,
	t.by_id, t.to_id, t.pr_id, t.created_at, t.updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.RoleTitle, &t.Description, &t.Status, &t.Priority, &t.Deadline,
		&t.ByID, &t.ToID, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id))
}

func (r *repository) ProjectRef(ctx context.Context, projectID int64) (authz.ProjectRef, error) {
	var ref authz.ProjectRef
	err := r.pool.QueryRow(ctx, `SELECT id, manager_id, client_id FROM projects WHERE id = $1`, projectID).
		Scan(&ref.ID, &ref.ManagerID, &ref.ClientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.ProjectRef{}, shared.ErrNotFound
		}
		return authz.ProjectRef{}, err
	}
	return ref, nil
}

// scopeConditions turns a task list scope into SQL. Task scoping needs the
// project row for manager and client relations, hence the join in List.
func scopeConditions(scope authz.ListScope, args *[]any) []string {
	if scope.All {
		return nil
	}
	var ors []string
	if scope.ManagerID != 0 {
		*args = append(*args, scope.ManagerID)
		ors = append(ors, fmt.Sprintf("p.manager_id = $%d", len(*args)))
	}
	if scope.AssigneeID != 0 {
		*args = append(*args, scope.AssigneeID)
		ors = append(ors, fmt.Sprintf("t.to_id = $%d", len(*args)))
	}
	if scope.ClientID != 0 {
		*args = append(*args, scope.ClientID)
		ors = append(ors, fmt.Sprintf("p.client_id = $%d", len(*args)))
	}
	if len(ors) == 0 {
		return []string{"FALSE"}
	}
	or := ors[0]
	for _, o := range ors[1:] {
		or += " OR " + o
	}
	return []string{"(" + or + ")"}
}

func (r *repository) List(ctx context.Context, scope authz.ListScope, req ListTasksRequest) ([]Task, int, error) {
	var args []any
	conditions := scopeConditions(scope, &args)

	if req.Status != "" {
		args = append(args, req.Status)
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if req.ProjectID != 0 {
		args = append(args, req.ProjectID)
		conditions = append(conditions, fmt.Sprintf("t.pr_id = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		conditions = append(conditions, fmt.Sprintf("t.title ILIKE $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + conditions[0]
		for _, c := range conditions[1:] {
			where += " AND " + c
		}
	}

	from := "FROM tasks t JOIN projects p ON p.id = t.pr_id "

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := req.Limit, req.Offset
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT "+taskColumns+" "+from+"%s ORDER BY t.id LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.RoleTitle, &t.Description, &t.Status, &t.Priority, &t.Deadline,
			&t.ByID, &t.ToID, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repository) TitleTaken(ctx context.Context, projectID int64, title string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE pr_id = $1 AND LOWER(title) = LOWER($2) AND id <> $3)`,
		projectID, title, excludeID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, t Task) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, role_title, description, status, priority, deadline, by_id, to_id, pr_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		t.Title, t.RoleTitle, t.Description, t.Status, t.Priority, t.Deadline, t.ByID, t.ToID, t.ProjectID).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE tasks SET updated_at = NOW()"
	var args []any
	for _, col := range []string{"title", "role_title", "description", "status", "priority", "deadline", "to_id"} {
		if v, ok := updates[col]; ok {
			args = append(args, v)
			query += fmt.Sprintf(", %s = $%d", col, len(args))
		}
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active)`, userID).Scan(&exists)
	return exists, err
}

func (r *repository) StatsByStatus(ctx context.Context, scope authz.ListScope) (map[string]int64, error) {
	var args []any
	conditions := scopeConditions(scope, &args)
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + conditions[0]
	}

	rows, err := r.pool.Query(ctx,
		"SELECT t.status, COUNT(*) FROM tasks t JOIN projects p ON p.id = t.pr_id "+where+" GROUP BY t.status", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int64{"total": 0}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}
