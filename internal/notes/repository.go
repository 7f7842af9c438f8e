package notes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Repository provides PostgreSQL backed note persistence plus the target
// lookups the service needs for authorization.
type Repository interface {
	ListByTarget(ctx context.Context, kind string, targetID int64) ([]Note, error)
	Create(ctx context.Context, n Note) (int64, error)
	ProjectRef(ctx context.Context, projectID int64) (authz.ProjectRef, error)
	TaskRef(ctx context.Context, taskID int64) (authz.TaskRef, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListByTarget(ctx context.Context, kind string, targetID int64) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT n.id, n.content, n.target_kind, n.target_id, n.member_id, u.name, n.type, n.created_at
		FROM notes n
		JOIN users u ON u.id = n.member_id
		WHERE n.target_kind = $1 AND n.target_id = $2
		ORDER BY n.created_at`, kind, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Content, &n.TargetKind, &n.TargetID, &n.MemberID, &n.MemberName, &n.Type, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, n Note) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notes (content, target_kind, target_id, member_id, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		n.Content, n.TargetKind, n.TargetID, n.MemberID, n.Type).Scan(&id)
	return id, err
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

func (r *repository) TaskRef(ctx context.Context, taskID int64) (authz.TaskRef, error) {
	var ref authz.TaskRef
	err := r.pool.QueryRow(ctx, `SELECT id, by_id, to_id, pr_id FROM tasks WHERE id = $1`, taskID).
		Scan(&ref.ID, &ref.ByID, &ref.ToID, &ref.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.TaskRef{}, shared.ErrNotFound
		}
		return authz.TaskRef{}, err
	}
	return ref, nil
}
