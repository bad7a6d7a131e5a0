// Package postgres reads governorate boundaries and geotagged posts from PostGIS.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/couchcryptid/spatial-pattern-service/internal/observability"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// DefaultContentLimit caps the number of posts returned by NearbyContent.
const DefaultContentLimit = 500

// Store is the PostGIS-backed governorate source and domain.ContentSource.
type Store struct {
	db           *sqlx.DB
	contentLimit int
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &Store{db: db, contentLimit: DefaultContentLimit, metrics: metrics, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Migrate creates the governorates and posts tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type governorateRow struct {
	Name     string `db:"name"`
	Geometry string `db:"geometry"`
}

// Governorates returns every governorate in insertion order.
func (s *Store) Governorates(ctx context.Context) ([]geo.Governorate, error) {
	const query = `
		SELECT name, ST_AsGeoJSON(geom) AS geometry
		FROM governorates
		ORDER BY id`

	var rows []governorateRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query governorates: %w", err)
	}

	govs := make([]geo.Governorate, 0, len(rows))
	for _, row := range rows {
		gov, err := row.toGovernorate()
		if err != nil {
			return nil, err
		}
		govs = append(govs, gov)
	}
	s.logger.Info("governorates loaded", "source", "postgres", "count", len(govs))
	return govs, nil
}

func (r governorateRow) toGovernorate() (geo.Governorate, error) {
	var g geo.Geometry
	if err := json.Unmarshal([]byte(r.Geometry), &g); err != nil {
		return geo.Governorate{}, fmt.Errorf("decode geometry for %q: %w", r.Name, err)
	}
	return geo.Governorate{Name: r.Name, Geometry: &g}, nil
}

// InsertGovernorate stores a governorate boundary given as a GeoJSON geometry.
func (s *Store) InsertGovernorate(ctx context.Context, gov geo.Governorate) error {
	data, err := json.Marshal(gov.Geometry)
	if err != nil {
		return fmt.Errorf("encode geometry for %q: %w", gov.Name, err)
	}
	const query = `
		INSERT INTO governorates (name, geom)
		VALUES ($1, ST_SetSRID(ST_GeomFromGeoJSON($2), 4326))
		ON CONFLICT (name) DO UPDATE SET geom = EXCLUDED.geom`
	if _, err := s.db.ExecContext(ctx, query, gov.Name, string(data)); err != nil {
		return fmt.Errorf("insert governorate %q: %w", gov.Name, err)
	}
	return nil
}

// InsertPost stores a geotagged post.
func (s *Store) InsertPost(ctx context.Context, content string, p geo.Point) error {
	const query = `
		INSERT INTO posts (content, location)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326))`
	if _, err := s.db.ExecContext(ctx, query, content, p.Lng, p.Lat); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// NearbyContent returns the text of the most recent posts within radiusKm of a point.
func (s *Store) NearbyContent(ctx context.Context, lat, lng, radiusKm float64) ([]string, error) {
	const query = `
		SELECT content
		FROM posts
		WHERE ST_DWithin(
			location::geography,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3)
		ORDER BY published_at DESC
		LIMIT $4`

	var contents []string
	err := s.db.SelectContext(ctx, &contents, query, lng, lat, radiusKm*1000, s.contentLimit)
	if err != nil {
		s.metrics.ContentLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query nearby content: %w", err)
	}
	s.metrics.ContentLookups.WithLabelValues("success").Inc()
	return contents, nil
}
