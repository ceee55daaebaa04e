package leads

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxDB is the subset of pgxpool.Pool used by the repository.
type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the `leads` table. id, created_at and
// updated_at are assigned by column defaults.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgxDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = `id::text, name, phone, message, source, status, notes, created_at, updated_at`

// Insert appends a row with status new.
func (r *PostgresRepository) Insert(ctx context.Context, in NewLead) (*Lead, error) {
	query := `
		INSERT INTO leads (name, phone, message, source, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at, updated_at
	`
	lead := &Lead{
		Name:    in.Name,
		Phone:   in.Phone,
		Message: in.Message,
		Source:  in.Source,
		Status:  StatusNew,
	}
	if err := r.db.QueryRow(ctx, query,
		in.Name,
		in.Phone,
		in.Message,
		in.Source,
		string(StatusNew),
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return nil, storeErr("insert", err)
	}
	return lead, nil
}

// ListAll returns every lead, most recent first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Lead, error) {
	rows, err := r.db.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		var (
			lead   Lead
			source *string
			status string
		)
		if err := rows.Scan(
			&lead.ID,
			&lead.Name,
			&lead.Phone,
			&lead.Message,
			&source,
			&status,
			&lead.Notes,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		); err != nil {
			return nil, storeErr("list", err)
		}
		lead.Source = DefaultSource
		if source != nil && *source != "" {
			lead.Source = *source
		}
		lead.Status = Status(status)
		out = append(out, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", err)
	}
	return out, nil
}

// UpdateStatus sets status on the matching row. Repeating the same status still
// reports the row as found.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (bool, error) {
	query := `
		UPDATE leads
		SET status = $1, updated_at = now()
		WHERE id = $2
	`
	ct, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		return false, storeErr("update status", err)
	}
	return ct.RowsAffected() > 0, nil
}

// UpdateNotes replaces notes on the matching row; an empty string stores NULL.
func (r *PostgresRepository) UpdateNotes(ctx context.Context, id string, notes string) (bool, error) {
	query := `
		UPDATE leads
		SET notes = NULLIF($1, ''), updated_at = now()
		WHERE id = $2
	`
	ct, err := r.db.Exec(ctx, query, notes, id)
	if err != nil {
		return false, storeErr("update notes", err)
	}
	return ct.RowsAffected() > 0, nil
}

var _ Store = (*PostgresRepository)(nil)
