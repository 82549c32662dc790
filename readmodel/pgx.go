package readmodel

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	es "github.com/userevents/core"
	"github.com/userevents/core/user"
)

// PgxRepository is a PostgreSQL-backed Repository over the read_user table.
type PgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository builds a PgxRepository.
func NewPgxRepository(pool *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

func (r *PgxRepository) Get(ctx context.Context, userID string) (User, bool, error) {
	var u User
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, username, email, first_name, last_name, role, revision, created_at, updated_at, deleted_at
		 FROM read_user WHERE user_id = $1`,
		userID,
	).Scan(&u.UserID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &role, &u.Revision, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return User{}, false, nil
		}
		return User{}, false, &es.StorageError{Op: "readmodel_get", Cause: err}
	}
	u.Role = user.Role(role)
	return u, true, nil
}

func (r *PgxRepository) List(ctx context.Context, params ListParams) (Page, error) {
	where := "WHERE deleted_at IS NULL"
	args := []any{}
	if params.Username != "" {
		args = append(args, params.Username)
		where += " AND username = $" + strconv.Itoa(len(args))
	}
	if params.Email != "" {
		args = append(args, params.Email)
		where += " AND email = $" + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM read_user "+where, args...).Scan(&total); err != nil {
		return Page{}, &es.StorageError{Op: "readmodel_count", Cause: err}
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, username, email, first_name, last_name, role, revision, created_at, updated_at, deleted_at
		 FROM read_user `+where+`
		 ORDER BY user_id ASC
		 LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...,
	)
	if err != nil {
		return Page{}, &es.StorageError{Op: "readmodel_list", Cause: err}
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.UserID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &role, &u.Revision, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
			return Page{}, &es.StorageError{Op: "readmodel_scan", Cause: err}
		}
		u.Role = user.Role(role)
		out = append(out, u)
	}
	return Page{Users: out, Page: params.Page, PageSize: params.PageSize, TotalCount: total}, rows.Err()
}

func (r *PgxRepository) Upsert(ctx context.Context, row User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO read_user (user_id, username, email, first_name, last_name, role, revision, created_at, updated_at, deleted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), $9)
		 ON CONFLICT (user_id) DO UPDATE
		 SET username = EXCLUDED.username,
		     email = EXCLUDED.email,
		     first_name = EXCLUDED.first_name,
		     last_name = EXCLUDED.last_name,
		     role = EXCLUDED.role,
		     revision = EXCLUDED.revision,
		     updated_at = now(),
		     deleted_at = EXCLUDED.deleted_at
		 WHERE read_user.revision < EXCLUDED.revision`,
		row.UserID, row.Username, row.Email, row.FirstName, row.LastName, string(row.Role), row.Revision, row.CreatedAt, row.DeletedAt,
	)
	if err != nil {
		return &es.StorageError{Op: "readmodel_upsert", Cause: err}
	}
	return nil
}

var _ Repository = (*PgxRepository)(nil)
