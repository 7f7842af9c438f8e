package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbthub-com/project-manager/internal/authz"
)

// Repository exposes the aggregate queries the dashboard is built from.
type Repository interface {
	ProjectStats(ctx context.Context, scope authz.ListScope) (map[string]int64, error)
	TaskStats(ctx context.Context, scope authz.ListScope) (map[string]int64, error)
	MemberCounts(ctx context.Context) (MemberCounts, error)
	ActivePrincipals(ctx context.Context) ([]authz.Principal, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func orConditions(ors []string) string {
	if len(ors) == 0 {
		return "FALSE"
	}
	out := ors[0]
	for _, o := range ors[1:] {
		out += " OR " + o
	}
	return "(" + out + ")"
}

func (r *repository) ProjectStats(ctx context.Context, scope authz.ListScope) (map[string]int64, error) {
	where := ""
	var args []any
	if !scope.All {
		var ors []string
		if scope.ManagerID != 0 {
			args = append(args, scope.ManagerID)
			ors = append(ors, fmt.Sprintf("manager_id = $%d", len(args)))
		}
		if scope.ClientID != 0 {
			args = append(args, scope.ClientID)
			ors = append(ors, fmt.Sprintf("client_id = $%d", len(args)))
		}
		where = "WHERE " + orConditions(ors)
	}
	return r.groupByStatus(ctx, "SELECT status, COUNT(*) FROM projects "+where+" GROUP BY status", args)
}

func (r *repository) TaskStats(ctx context.Context, scope authz.ListScope) (map[string]int64, error) {
	where := ""
	var args []any
	if !scope.All {
		var ors []string
		if scope.ManagerID != 0 {
			args = append(args, scope.ManagerID)
			ors = append(ors, fmt.Sprintf("p.manager_id = $%d", len(args)))
		}
		if scope.AssigneeID != 0 {
			args = append(args, scope.AssigneeID)
			ors = append(ors, fmt.Sprintf("t.to_id = $%d", len(args)))
		}
		if scope.ClientID != 0 {
			args = append(args, scope.ClientID)
			ors = append(ors, fmt.Sprintf("p.client_id = $%d", len(args)))
		}
		where = "WHERE " + orConditions(ors)
	}
	return r.groupByStatus(ctx,
		"SELECT t.status, COUNT(*) FROM tasks t JOIN projects p ON p.id = t.pr_id "+where+" GROUP BY t.status", args)
}

func (r *repository) groupByStatus(ctx context.Context, query string, args []any) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
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

func (r *repository) MemberCounts(ctx context.Context) (MemberCounts, error) {
	var counts MemberCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE role = 'user'),
			COUNT(*) FILTER (WHERE role = 'client')
		FROM users WHERE is_active`).Scan(&counts.Users, &counts.Clients)
	return counts, err
}

func (r *repository) ActivePrincipals(ctx context.Context) ([]authz.Principal, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, role FROM users WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []authz.Principal
	for rows.Next() {
		var id int64
		var role string
		if err := rows.Scan(&id, &role); err != nil {
			return nil, err
		}
		parsed, err := authz.ParseRole(role)
		if err != nil {
			return nil, err
		}
		out = append(out, authz.Principal{ID: id, Role: parsed})
	}
	return out, rows.Err()
}
