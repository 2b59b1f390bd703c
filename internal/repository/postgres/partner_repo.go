// internal/repository/postgres/partner_repo.go
package postgres

import (
	"context"
	"fmt"

	"hellofixo-service/internal/domain/auth"
	"hellofixo-service/internal/domain/partner"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

type PartnerRepository struct {
	db *DB
}

func NewPartnerRepository(db *DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

const applicationColumns = `
	id, user_id, step, status, full_name, phone, email, city, pincode, experience_years,
	skills, id_proof_url, id_proof_object, review_note, created_at, updated_at, submitted_at
`

func scanApplication(row pgx.Row) (*partner.Application, error) {
	var a partner.Application
	var skills []string
	err := row.Scan(
		&a.ID, &a.UserID, &a.Step, &a.Status, &a.FullName, &a.Phone, &a.Email, &a.City, &a.Pincode, &a.ExperienceYears,
		&skills, &a.IDProofURL, &a.IDProofObject, &a.ReviewNote, &a.CreatedAt, &a.UpdatedAt, &a.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Skills = pq.StringArray(skills)
	return &a, nil
}

func (r *PartnerRepository) FindByUser(ctx context.Context, userID string) (*partner.Application, error) {
	a, err := scanApplication(r.db.Pool().QueryRow(ctx, `SELECT `+applicationColumns+` FROM partner_applications WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "partner application")
	}
	return a, nil
}

func (r *PartnerRepository) GetByID(ctx context.Context, id string) (*partner.Application, error) {
	a, err := scanApplication(r.db.Pool().QueryRow(ctx, `SELECT `+applicationColumns+` FROM partner_applications WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "partner application")
	}
	return a, nil
}

func (r *PartnerRepository) Create(ctx context.Context, a *partner.Application) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO partner_applications (id, user_id, step, status, email, skills, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.UserID, a.Step, a.Status, a.Email, pq.Array(a.Skills), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return duplicate(err, "partner application")
	}
	return nil
}

func (r *PartnerRepository) Update(ctx context.Context, a *partner.Application) error {
	return updateApplication(ctx, r.db.Pool(), a)
}

func updateApplication(ctx context.Context, db execer, a *partner.Application) error {
	tag, err := db.Exec(ctx, `
		UPDATE partner_applications SET
			step = $2, status = $3, full_name = $4, phone = $5, email = $6, city = $7, pincode = $8,
			experience_years = $9, skills = $10, id_proof_url = $11, id_proof_object = $12,
			review_note = $13, updated_at = $14, submitted_at = $15
		WHERE id = $1
	`, a.ID, a.Step, a.Status, a.FullName, a.Phone, a.Email, a.City, a.Pincode,
		a.ExperienceYears, pq.Array(a.Skills), a.IDProofURL, a.IDProofObject,
		a.ReviewNote, a.UpdatedAt, a.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to update partner application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "partner application")
	}
	return nil
}

// List pages applications, most recently submitted first.
func (r *PartnerRepository) List(ctx context.Context, filters *partner.ApplicationFilters) ([]*partner.Application, int64, error) {
	where := "TRUE"
	args := []interface{}{}
	if filters.Status != "" {
		where = "status = $1"
		args = append(args, filters.Status)
	}

	var total int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM partner_applications WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count partner applications: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM partner_applications WHERE %s
		ORDER BY submitted_at DESC NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d`, applicationColumns, where, n+1, n+2)
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list partner applications: %w", err)
	}
	defer rows.Close()

	out := []*partner.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan partner application: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Review saves the decision and, when promote is set, makes the applicant a partner.
func (r *PartnerRepository) Review(ctx context.Context, a *partner.Application, promote bool) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := updateApplication(ctx, tx, a); err != nil {
			return err
		}
		if !promote {
			return nil
		}
		// admins keep their role
		_, err := tx.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 AND role <> $3`,
			a.UserID, auth.RolePartner, auth.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to promote partner: %w", err)
		}
		return nil
	})
}
