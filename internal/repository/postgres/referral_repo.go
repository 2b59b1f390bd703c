// internal/repository/postgres/referral_repo.go
package postgres

import (
	"context"
	"fmt"

	"hellofixo-service/internal/domain/referral"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralCodeRepository struct {
	db *pgxpool.Pool
}

func NewReferralCodeRepository(db *pgxpool.Pool) *ReferralCodeRepository {
	return &ReferralCodeRepository{db: db}
}

const referralColumns = `id, code, owner_id, discount, active, uses, created_at`

func scanReferral(row pgx.Row) (*referral.Code, error) {
	var c referral.Code
	if err := row.Scan(&c.ID, &c.Code, &c.OwnerID, &c.Discount, &c.Active, &c.Uses, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ReferralCodeRepository) Create(ctx context.Context, c *referral.Code) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO referral_codes (code, owner_id, discount, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.Code, c.OwnerID, c.Discount, c.Active, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return duplicate(err, "referral code")
	}
	return nil
}

func (r *ReferralCodeRepository) FindByCode(ctx context.Context, code string) (*referral.Code, error) {
	c, err := scanReferral(r.db.QueryRow(ctx, `SELECT `+referralColumns+` FROM referral_codes WHERE code = UPPER($1)`, code))
	if err != nil {
		return nil, notFound(err, "referral code")
	}
	return c, nil
}

// FindByOwner returns the user's most recent active code.
func (r *ReferralCodeRepository) FindByOwner(ctx context.Context, userID string) (*referral.Code, error) {
	c, err := scanReferral(r.db.QueryRow(ctx, `
		SELECT `+referralColumns+` FROM referral_codes
		WHERE owner_id = $1 AND active
		ORDER BY created_at DESC
		LIMIT 1
	`, userID))
	if err != nil {
		return nil, notFound(err, "referral code")
	}
	return c, nil
}

func incrementReferralUses(ctx context.Context, tx pgx.Tx, code string) error {
	if _, err := tx.Exec(ctx, `UPDATE referral_codes SET uses = uses + 1 WHERE code = $1`, code); err != nil {
		return fmt.Errorf("failed to count referral use: %w", err)
	}
	return nil
}
