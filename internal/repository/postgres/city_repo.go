// internal/repository/postgres/city_repo.go
package postgres

import (
	"context"
	"fmt"

	"hellofixo-service/internal/domain/location"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CityRepository struct {
	db *pgxpool.Pool
}

func NewCityRepository(db *pgxpool.Pool) *CityRepository {
	return &CityRepository{db: db}
}

const cityColumns = `id, city, state, inspection_multiplier, repair_multiplier, active, created_at`

// FindActiveByName matches the city case-insensitively.
func (r *CityRepository) FindActiveByName(ctx context.Context, name string) (*location.ServiceableCity, error) {
	var c location.ServiceableCity
	err := r.db.QueryRow(ctx,
		`SELECT `+cityColumns+` FROM serviceable_cities WHERE LOWER(city) = LOWER($1) AND active`, name,
	).Scan(&c.ID, &c.City, &c.State, &c.InspectionMultiplier, &c.RepairMultiplier, &c.Active, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "serviceable city")
	}
	return &c, nil
}

func (r *CityRepository) List(ctx context.Context, activeOnly bool) ([]*location.ServiceableCity, error) {
	query := `SELECT ` + cityColumns + ` FROM serviceable_cities`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY city`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	cities := []*location.ServiceableCity{}
	for rows.Next() {
		var c location.ServiceableCity
		if err := rows.Scan(&c.ID, &c.City, &c.State, &c.InspectionMultiplier, &c.RepairMultiplier, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, &c)
	}
	return cities, rows.Err()
}

// Upsert inserts a city or updates the row with the same (case-insensitive) name.
func (r *CityRepository) Upsert(ctx context.Context, c *location.ServiceableCity) error {
	query := `
		INSERT INTO serviceable_cities (city, state, inspection_multiplier, repair_multiplier, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ((LOWER(city))) DO UPDATE SET
			state = EXCLUDED.state,
			inspection_multiplier = EXCLUDED.inspection_multiplier,
			repair_multiplier = EXCLUDED.repair_multiplier,
			active = EXCLUDED.active
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, c.City, c.State, c.InspectionMultiplier, c.RepairMultiplier, c.Active).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert city: %w", err)
	}
	return nil
}

func (r *CityRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM serviceable_cities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete city: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "serviceable city")
	}
	return nil
}
