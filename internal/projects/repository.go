package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/platform/db"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Repository provides PostgreSQL backed project persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, scope authz.ListScope, req ListProjectsRequest) ([]Project, int, error)
	TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error)
	Create(ctx context.Context, p Project) (int64, error)
	Delete(ctx context.Context, id int64) error
	SetStarred(ctx context.Context, id int64, starred bool) error
	CountTasks(ctx context.Context, projectID int64) (int64, error)
	UserRole(ctx context.Context, userID int64) (authz.Role, error)
	StatsByStatus(ctx context.Context, scope authz.ListScope) (map[string]int64, error)
}

// TxRepository exposes the writes that must share one transaction, namely the
// project update and the cancel cascade over its tasks.
type TxRepository interface {
	Update(ctx context.Context, id int64, updates map[string]any) error
	CancelTasks(ctx context.Context, projectID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const projectColumns = `p.id, p.title, p.description, p.manager_id, p.client_id, p.status, p.is_starred,
	(SELECT COUNT(*) FROM tasks t WHERE t.pr_id = p.id), p.created_at, p.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`, id)
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ManagerID, &p.ClientID, &p.Status, &p.IsStarred,
		&p.TaskCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scopeConditions(scope authz.ListScope, args *[]any) []string {
	if scope.All {
		return nil
	}
	var ors []string
	if scope.ManagerID != 0 {
		*args = append(*args, scope.ManagerID)
		ors = append(ors, fmt.Sprintf("p.manager_id = $%d", len(*args)))
	}
	if scope.ClientID != 0 {
		*args = append(*args, scope.ClientID)
		ors = append(ors, fmt.Sprintf("p.client_id = $%d", len(*args)))
	}
	if len(ors) == 0 {
		// Empty scope selects nothing.
		return []string{"FALSE"}
	}
	return []string{"(" + joinOr(ors) + ")"}
}

func joinOr(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " OR " + p
	}
	return out
}

func joinAnd(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	out := "WHERE " + parts[0]
	for _, p := range parts[1:] {
		out += " AND " + p
	}
	return out
}

func (r *repository) List(ctx context.Context, scope authz.ListScope, req ListProjectsRequest) ([]Project, int, error) {
	var args []any
	conditions := scopeConditions(scope, &args)

	if req.Status != "" {
		args = append(args, req.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		conditions = append(conditions, fmt.Sprintf("p.title ILIKE $%d", len(args)))
	}

	where := joinAnd(conditions)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM projects p "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := req.Limit, req.Offset
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT "+projectColumns+" FROM projects p %s ORDER BY p.id LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ManagerID, &p.ClientID, &p.Status, &p.IsStarred,
			&p.TaskCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE LOWER(title) = LOWER($1) AND id <> $2)`,
		title, excludeID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, p Project) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (title, description, manager_id, client_id, status, is_starred)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		p.Title, p.Description, p.ManagerID, p.ClientID, p.Status, p.IsStarred).Scan(&id)
	return id, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStarred(ctx context.Context, id int64, starred bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET is_starred = $2, updated_at = NOW() WHERE id = $1`, id, starred)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountTasks(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE pr_id = $1`, projectID).Scan(&count)
	return count, err
}

func (r *repository) UserRole(ctx context.Context, userID int64) (authz.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return authz.ParseRole(role)
}

func (r *repository) StatsByStatus(ctx context.Context, scope authz.ListScope) (map[string]int64, error) {
	var args []any
	where := joinAnd(scopeConditions(scope, &args))

	rows, err := r.pool.Query(ctx, "SELECT p.status, COUNT(*) FROM projects p "+where+" GROUP BY p.status", args...)
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

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE projects SET updated_at = NOW()"
	var args []any
	for _, col := range []string{"title", "description", "manager_id", "client_id", "status"} {
		if v, ok := updates[col]; ok {
			args = append(args, v)
			query += fmt.Sprintf(", %s = $%d", col, len(args))
		}
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	tag, err := r.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) CancelTasks(ctx context.Context, projectID int64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE pr_id = $1 AND status <> $2`,
		projectID, StatusCancelled)
	return err
}
