package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/repository"
	"github.com/dougmab/open-vinyl-box-api/pkg/database"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, slug, description, img_url, price_cents, currency, created_at, updated_at`

// Create inserts a new product and its category links in one transaction.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return database.WithinTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO products (name, slug, description, img_url, price_cents, currency, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, query,
			p.Name,
			p.Slug,
			p.Description,
			p.ImageURL,
			p.PriceCents,
			p.Currency,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.AlreadyExists("product", "slug", p.Slug)
			}
			return fmt.Errorf("insert product: %w", err)
		}

		return linkCategories(ctx, tx, p.ID, p.Categories)
	})
}

// GetByID retrieves a product with its categories.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	return r.scanProduct(ctx, query, id)
}

// GetBySlug retrieves a product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE slug = $1`

	return r.scanProduct(ctx, query, slug)
}

// List returns products matching the given filter with the total count.
// Category lists are not loaded here; the detail endpoint loads them.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf(
			"id IN (SELECT product_id FROM product_categories WHERE category_id = $%d)", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price_cents >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price_cents <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d`, productColumns, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Slug,
			&p.Description,
			&p.ImageURL,
			&p.PriceCents,
			&p.Currency,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// Update modifies an existing product and replaces its category links.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return database.WithinTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE products
			SET name = $2, slug = $3, description = $4, img_url = $5,
			    price_cents = $6, currency = $7, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`

		err := tx.QueryRow(ctx, query,
			p.ID,
			p.Name,
			p.Slug,
			p.Description,
			p.ImageURL,
			p.PriceCents,
			p.Currency,
		).Scan(&p.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", p.ID)
		}
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.AlreadyExists("product", "slug", p.Slug)
			}
			return fmt.Errorf("update product: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear category links: %w", err)
		}

		return linkCategories(ctx, tx, p.ID, p.Categories)
	})
}

// Delete removes a product and every dependent row in one transaction:
// discount first, then ratings, statistics, category links, and finally the
// product itself.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return database.WithinTx(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []string{
			`DELETE FROM discounts WHERE product_id = $1`,
			`DELETE FROM ratings WHERE product_id = $1`,
			`DELETE FROM rating_statistics WHERE product_id = $1`,
			`DELETE FROM product_categories WHERE product_id = $1`,
		}
		for _, step := range steps {
			if _, err := tx.Exec(ctx, step, id); err != nil {
				return fmt.Errorf("delete product dependents: %w", err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("product", id)
		}

		return nil
	})
}

func (r *ProductRepository) scanProduct(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.ImageURL,
		&p.PriceCents,
		&p.Currency,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("product", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	categories, err := r.loadCategories(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Categories = categories

	return &p, nil
}

func (r *ProductRepository) loadCategories(ctx context.Context, productID int64) ([]domain.Category, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.created_at, c.updated_at
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = $1
		ORDER BY c.name ASC`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("load product categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, nil
}

func linkCategories(ctx context.Context, tx pgx.Tx, productID int64, categories []domain.Category) error {
	for _, c := range categories {
		_, err := tx.Exec(ctx, `
			INSERT INTO product_categories (product_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, productID, c.ID)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperrors.NotFound("category", c.ID)
			}
			return fmt.Errorf("link category: %w", err)
		}
	}

	return nil
}
