package members

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed member persistence.
type Repository interface {
	List(ctx context.Context) ([]Member, error)
	Counts(ctx context.Context) (Counts, error)
	NameTaken(ctx context.Context, name string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, name, email string, role authz.Role, passwordHash string) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// List returns every non-admin account ordered by id.
func (r *repository) List(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, role, is_active, created_at, updated_at
		FROM users WHERE role <> 'admin' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		var role string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if m.Role, err = authz.ParseRole(role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE role = 'user'),
			COUNT(*) FILTER (WHERE role = 'client')
		FROM users`).Scan(&c.Users, &c.Clients)
	return c, err
}

func (r *repository) NameTaken(ctx context.Context, name string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(name) = LOWER($1))`, name).Scan(&taken)
	return taken, err
}

func (r *repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, name, email string, role authz.Role, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, role, password_hash, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id`, name, email, string(role), passwordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, shared.ErrConflict
		}
		return 0, err
	}
	return id, nil
}
