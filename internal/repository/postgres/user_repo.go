// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hellofixo-service/internal/domain/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, phone, role, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`, phone).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, u.ID, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return duplicate(err, "user")
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, time.Now().UTC(), id)
	return err
}

// UpdateProfile changes only the fields set on req.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, req *auth.UpdateProfileRequest) (*auth.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	argPos := 2

	if req.FullName != nil {
		sets = append(sets, fmt.Sprintf("full_name = $%d", argPos))
		args = append(args, *req.FullName)
		argPos++
	}
	if req.Phone != nil {
		sets = append(sets, fmt.Sprintf("phone = NULLIF($%d, '')", argPos))
		args = append(args, *req.Phone)
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, duplicate(err, "phone")
		}
		return nil, notFound(err, "user")
	}
	return u, nil
}
