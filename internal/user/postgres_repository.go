package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

const userColumns = `id, name, email, age, phone, active, created_at, address, metadata`

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository stores users in the users table created by the
// embedded migrations.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, u *User) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate user ID: %w", err)
	}

	address, err := marshalJSONB(u.Address)
	if err != nil {
		return fmt.Errorf("repository: failed to encode address: %w", err)
	}
	metadata, err := marshalJSONB(u.Metadata)
	if err != nil {
		return fmt.Errorf("repository: failed to encode metadata: %w", err)
	}

	query := `
		INSERT INTO users (id, name, email, age, phone, active, created_at, address, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		id.String(),
		u.Name,
		u.Email,
		u.Age,
		nullableString(u.Phone),
		u.Active,
		u.CreatedAt,
		address,
		metadata,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert user: %w", err)
	}

	u.ID = id.String()
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.FromString(id); err != nil {
		return nil, ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by id %s: %w", id, err)
	}

	return u, nil
}

func (r *postgresRepository) List(ctx context.Context, f Filter, p pagination.Params) ([]User, int64, error) {
	where, args := sqlFilter(f)

	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, append(args, p.Limit, p.Skip())...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0, min(total, int64(p.Limit)))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating users: %w", err)
	}

	return users, total, nil
}

func (r *postgresRepository) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := sqlFilter(f)
	return r.count(ctx, where, args)
}

func (r *postgresRepository) count(ctx context.Context, where string, args []any) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository: failed to count users: %w", err)
	}
	return total, nil
}

func (r *postgresRepository) Update(ctx context.Context, id string, p Patch) (*User, error) {
	if _, err := uuid.FromString(id); err != nil {
		return nil, ErrNotFound
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.Age != nil {
		set("age", *p.Age)
	}
	if p.Phone != nil {
		set("phone", nullableString(*p.Phone))
	}
	if p.Active != nil {
		set("active", *p.Active)
	}
	if p.Address != nil {
		address, err := marshalJSONB(p.Address)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to encode address: %w", err)
		}
		set("address", address)
	}
	if p.Metadata != nil {
		metadata, err := marshalJSONB(p.Metadata)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to encode metadata: %w", err)
		}
		set("metadata", metadata)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("repository: failed to update user %s: %w", id, err)
	}

	return u, nil
}

func sqlFilter(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("active = $%d", len(args)))
	}
	if !f.CreatedSince.IsZero() {
		args = append(args, f.CreatedSince)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u        User
		phone    *string
		address  []byte
		metadata []byte
	)

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &phone, &u.Active, &u.CreatedAt, &address, &metadata)
	if err != nil {
		return nil, err
	}

	if phone != nil {
		u.Phone = *phone
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &u.Address); err != nil {
			return nil, fmt.Errorf("decode address: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &u.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	u.CreatedAt = u.CreatedAt.UTC()

	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// marshalJSONB encodes v for a JSONB column, mapping nil to NULL.
func marshalJSONB(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
