package mailbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nbthub-com/project-manager/internal/shared"
)

// Repository provides PostgreSQL backed message persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Message, error)
	// ListFor returns every message in the user's mailbox: addressed to them,
	// broadcast, or sent by them. Sender and recipient names come joined.
	ListFor(ctx context.Context, userID int64) ([]Message, error)
	Create(ctx context.Context, m Message) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	SetRead(ctx context.Context, id int64, read bool) error
	SetStarred(ctx context.Context, id int64, starred bool) error
	Delete(ctx context.Context, id int64) error
	FindUserIDByName(ctx context.Context, name string) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const messageColumns = `m.id, m.from_user_id, m.to_user_id, m.subject, m.content, m.type, m.scope,
	m.is_read, m.is_starred, m.created_at`

func (r *repository) Get(ctx context.Context, id int64) (*Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM mailbox m WHERE m.id = $1`, id).
		Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Subject, &m.Content, &m.Type, &m.Scope,
			&m.IsRead, &m.IsStarred, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListFor(ctx context.Context, userID int64) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`, f.name, COALESCE(t.name, '')
		FROM mailbox m
		JOIN users f ON f.id = m.from_user_id
		LEFT JOIN users t ON t.id = m.to_user_id
		WHERE m.to_user_id = $1 OR m.scope = 'global' OR m.from_user_id = $1
		ORDER BY m.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Subject, &m.Content, &m.Type, &m.Scope,
			&m.IsRead, &m.IsStarred, &m.CreatedAt, &m.FromName, &m.ToName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, m Message) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO mailbox (from_user_id, to_user_id, subject, content, type, scope)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		m.FromUserID, m.ToUserID, m.Subject, m.Content, m.Type, m.Scope).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE mailbox SET id = id"
	var args []any
	for _, col := range []string{"subject", "content", "type"} {
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

func (r *repository) SetRead(ctx context.Context, id int64, read bool) error {
	return r.setFlag(ctx, id, "is_read", read)
}

func (r *repository) SetStarred(ctx context.Context, id int64, starred bool) error {
	return r.setFlag(ctx, id, "is_starred", starred)
}

func (r *repository) setFlag(ctx context.Context, id int64, column string, value bool) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`UPDATE mailbox SET %s = $2 WHERE id = $1`, column), id, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mailbox WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) FindUserIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE LOWER(name) = LOWER($1) AND is_active`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}
