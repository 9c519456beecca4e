package segments

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL segment repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Load retrieves all persisted segment aggregates.
func (r *PostgresRepository) Load(ctx context.Context) (map[Key]Aggregate, error) {
	query := `
		SELECT route_id, step_index, mean_roughness, sample_count, last_seen, confidence
		FROM segment_aggregates
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[Key]Aggregate)
	for rows.Next() {
		var (
			key Key
			agg Aggregate
		)

		err := rows.Scan(
			&key.RouteID,
			&key.StepIndex,
			&agg.MeanRoughness,
			&agg.SampleCount,
			&agg.LastSeen,
			&agg.Confidence,
		)
		if err != nil {
			return nil, err
		}

		items[key] = agg
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Save upserts the given aggregates in a single transaction.
func (r *PostgresRepository) Save(ctx context.Context, items map[Key]Aggregate) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO segment_aggregates (route_id, step_index, mean_roughness, sample_count, last_seen, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (route_id, step_index) DO UPDATE SET
			mean_roughness = EXCLUDED.mean_roughness,
			sample_count = EXCLUDED.sample_count,
			last_seen = EXCLUDED.last_seen,
			confidence = EXCLUDED.confidence
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for key, agg := range items {
		batch.Queue(query,
			key.RouteID,
			key.StepIndex,
			agg.MeanRoughness,
			agg.SampleCount,
			agg.LastSeen,
			agg.Confidence,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
