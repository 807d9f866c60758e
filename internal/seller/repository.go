package seller

import (
	"context"
	"database/sql"
	"fmt"

	"milkdirect-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	ListSellers(ctx context.Context) ([]Seller, error)
	GetSeller(ctx context.Context, id int) (*Seller, error)
	UpdateTelemetry(ctx context.Context, id int, t Telemetry) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const sellerColumns = `
	id,
	name,
	distance_km,
	milk_type,
	description,
	price,
	rating,
	tags,
	verified,
	iot_temp_celsius,
	iot_quality,
	iot_updated_at
`

func scanSeller(row interface{ Scan(...any) error }) (*Seller, error) {
	var s Seller
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.DistanceKm,
		&s.MilkType,
		&s.Description,
		&s.Price,
		&s.Rating,
		pq.Array(&s.Tags),
		&s.Verified,
		&s.Telemetry.TempCelsius,
		&s.Telemetry.Quality,
		&s.Telemetry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListSellers(ctx context.Context) ([]Seller, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListSellers"),
	)

	query := `SELECT ` + sellerColumns + ` FROM sellers ORDER BY distance_km`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedListSellers, err)
	}
	defer rows.Close()

	sellers := make([]Seller, 0)
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFailedListSellers, err)
		}
		sellers = append(sellers, *s)
	}

	return sellers, rows.Err()
}

func (r *repository) GetSeller(ctx context.Context, id int) (*Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`

	s, err := scanSeller(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrSellerNotFound
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *repository) UpdateTelemetry(ctx context.Context, id int, t Telemetry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sellers
		SET iot_temp_celsius = $1,
			iot_quality = $2,
			iot_updated_at = $3
		WHERE id = $4
	`, t.TempCelsius, t.Quality, t.UpdatedAt, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSellerNotFound
	}

	return nil
}
