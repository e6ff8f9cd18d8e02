package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careconnect/careconnect-api/internal/models"
)

// ErrDuplicateEmail reports a registration against an existing email.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository persists user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (id, email, password_hash, full_name, contact_number, role, cc, monthly_income, created_at)
	VALUES (:id, :email, :password_hash, :full_name, :contact_number, :role, :cc, :monthly_income, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by email, or (nil, nil) when unknown.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, contact_number, role, cc, monthly_income, created_at
	FROM users WHERE email = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// UpdateProfile rewrites the caller-editable account fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	const query = `UPDATE users SET full_name = :full_name, contact_number = :contact_number, monthly_income = :monthly_income
	WHERE email = :email`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return guardNamedRows(res, "user no longer exists")
}

// FindManagersByLocation returns the manager accounts of one club.
func (r *UserRepository) FindManagersByLocation(ctx context.Context, location string) ([]models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, contact_number, role, cc, monthly_income, created_at
	FROM users WHERE role = 'MANAGER' AND cc = $1 ORDER BY email`
	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, location); err != nil {
		return nil, fmt.Errorf("find managers: %w", err)
	}
	return users, nil
}
