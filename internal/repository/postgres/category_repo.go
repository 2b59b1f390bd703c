// internal/repository/postgres/category_repo.go
package postgres

import (
	"context"
	"fmt"

	"hellofixo-service/internal/domain/catalog"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository struct {
	db *pgxpool.Pool
}

func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListActive returns active categories in display order with their active problems.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]*catalog.ServiceCategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, slug, name, base_inspection_fee, image, translations, sort_order, active, created_at
		FROM service_categories
		WHERE active
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*catalog.ServiceCategory
	byID := make(map[int64]*catalog.ServiceCategory)
	ids := make([]int64, 0)
	for rows.Next() {
		var c catalog.ServiceCategory
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.BaseInspectionFee, &c.Image, &c.Translations, &c.SortOrder, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Problems = []catalog.Problem{}
		categories = append(categories, &c)
		byID[c.ID] = &c
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return categories, nil
	}

	prows, err := r.db.Query(ctx, `
		SELECT id, category_id, name, base_min_fee, estimated_price, image, translations
		FROM problems
		WHERE active AND category_id = ANY($1)
		ORDER BY sort_order, id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var p catalog.Problem
		if err := prows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.BaseMinFee, &p.EstimatedPrice, &p.Image, &p.Translations); err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		if c, ok := byID[p.CategoryID]; ok {
			c.Problems = append(c.Problems, p)
		}
	}
	return categories, prows.Err()
}
