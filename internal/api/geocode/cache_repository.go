package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

var _ CacheRepository = (*PostgresCacheRepository)(nil)

// PGXPool is the slice of pgxpool.Pool the repository uses. Both
// *pgxpool.Pool and pgxmock pools satisfy it.
type PGXPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// CacheRepository persists resolved coordinates so repeated extractions
// of the same itinerary text do not spend provider quota. Lookups are
// keyed by (name, city hint); a nil result with nil error means the pair
// has not been cached.
type CacheRepository interface {
	Lookup(ctx context.Context, name, city string) (*types.GeoPoint, error)
	Save(ctx context.Context, name, city string, point types.GeoPoint) error
}

type PostgresCacheRepository struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresCacheRepository(pgpool PGXPool, logger *slog.Logger) *PostgresCacheRepository {
	return &PostgresCacheRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresCacheRepository) Lookup(ctx context.Context, name, city string) (*types.GeoPoint, error) {
	query := `
        SELECT lat, lng
        FROM geocode_cache
        WHERE place_name = $1 AND city = $2
    `
	var point types.GeoPoint
	if err := r.pgpool.QueryRow(ctx, query, name, city).Scan(&point.Lat, &point.Lng); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up cached place: %w", err)
	}
	return &point, nil
}

func (r *PostgresCacheRepository) Save(ctx context.Context, name, city string, point types.GeoPoint) error {
	query := `
        INSERT INTO geocode_cache (id, place_name, city, lat, lng)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (place_name, city)
        DO UPDATE SET lat = EXCLUDED.lat, lng = EXCLUDED.lng, updated_at = now()
    `
	if _, err := r.pgpool.Exec(ctx, query, uuid.New(), name, city, point.Lat, point.Lng); err != nil {
		return fmt.Errorf("failed to save cached place: %w", err)
	}
	return nil
}
