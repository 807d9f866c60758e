package user

import (
	"context"
	"database/sql"
	"errors"

	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, email, password, role string) (User, error)
	FindByEmail(email string) (User, error)
	GetProfile(ctx context.Context, userID uint) (*Profile, error)
	UpsertProfile(ctx context.Context, userID uint, params UpdateProfileParams) (*Profile, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, email, password, role string) (User, error) {
	log := logger.FromCtx(ctx)

	var u User
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (email, password, role) VALUES ($1, $2, $3) RETURNING id, email, password, role",
		email, password, role,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Role)

	if err != nil {
		log.Error("db: failed to insert user",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return u, err
}

func (r *repository) FindByEmail(email string) (User, error) {
	var u User
	err := r.db.QueryRow(
		"SELECT id, email, password, role FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Role)

	return u, err
}

// GetProfile fetches a user's profile by user ID.
func (r *repository) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetProfile"),
		zap.Uint("user_id", userID),
	)

	query := `
		SELECT user_id, name, phone, address, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, userID)

	var p Profile
	err := row.Scan(&p.UserID, &p.Name, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("profile not found")
			return nil, ErrProfileNotFound
		}
		log.Error("failed to scan profile", zap.Error(err))
		return nil, err
	}

	return &p, nil
}

// UpsertProfile creates the profile row on first save and patches it after.
// COALESCE keeps existing values when an input field is nil.
func (r *repository) UpsertProfile(ctx context.Context, userID uint, params UpdateProfileParams) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpsertProfile"),
		zap.Uint("user_id", userID),
	)

	query := `
		INSERT INTO profiles (user_id, name, phone, address)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET name = COALESCE($2, profiles.name),
			phone = COALESCE($3, profiles.phone),
			address = COALESCE($4, profiles.address),
			updated_at = NOW()
		RETURNING user_id, name, phone, address, created_at, updated_at
	`

	var p Profile
	err := r.db.QueryRowContext(ctx, query,
		userID, params.Name, params.Phone, params.Address,
	).Scan(&p.UserID, &p.Name, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		log.Error("failed to upsert profile", zap.Error(err))
		return nil, err
	}

	log.Info("profile saved")
	return &p, nil
}
