package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

const productColumns = `id, name, description, price, category, stock, active, created_at, specifications`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate product ID: %w", err)
	}

	specs, err := marshalJSONB(p.Specifications)
	if err != nil {
		return fmt.Errorf("repository: failed to encode specifications: %w", err)
	}

	query := `
		INSERT INTO products (id, name, description, price, category, stock, active, created_at, specifications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		id.String(),
		p.Name,
		nullableString(p.Description),
		p.Price,
		nullableString(p.Category),
		p.Stock,
		p.Active,
		p.CreatedAt,
		specs,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}

	p.ID = id.String()
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.FromString(id); err != nil {
		return nil, ErrNotFound
	}

	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}

	return p, nil
}

func (r *postgresRepository) List(ctx context.Context, f Filter, pp pagination.Params) ([]Product, int64, error) {
	where, args := sqlFilter(f)

	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, append(args, pp.Limit, pp.Skip())...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, min(total, int64(pp.Limit)))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating products: %w", err)
	}

	return products, total, nil
}

func (r *postgresRepository) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := sqlFilter(f)
	return r.count(ctx, where, args)
}

func (r *postgresRepository) count(ctx context.Context, where string, args []any) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository: failed to count products: %w", err)
	}
	return total, nil
}

func (r *postgresRepository) Update(ctx context.Context, id string, p Patch) (*Product, error) {
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
	if p.Description != nil {
		set("description", nullableString(*p.Description))
	}
	if p.Price != nil {
		set("price", *p.Price)
	}
	if p.Category != nil {
		set("category", nullableString(*p.Category))
	}
	if p.Stock != nil {
		set("stock", *p.Stock)
	}
	if p.Active != nil {
		set("active", *p.Active)
	}
	if p.Specifications != nil {
		specs, err := marshalJSONB(p.Specifications)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to encode specifications: %w", err)
		}
		set("specifications", specs)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), productColumns)

	product, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to update product %s: %w", id, err)
	}

	return product, nil
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
	if f.Category != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Category)+"%")
		conds = append(conds, fmt.Sprintf(`category ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p           Product
		description *string
		category    *string
		specs       []byte
	)

	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &category, &p.Stock, &p.Active, &p.CreatedAt, &specs)
	if err != nil {
		return nil, err
	}

	if description != nil {
		p.Description = *description
	}
	if category != nil {
		p.Category = *category
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specifications); err != nil {
			return nil, fmt.Errorf("decode specifications: %w", err)
		}
	}
	p.CreatedAt = p.CreatedAt.UTC()

	return &p, nil
}

func marshalJSONB(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
