// Package repository persists load history for the map variants.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listingmap_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Load is one successful variant load.
type Load struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Variant         string    `db:"variant" json:"variant"`
	ReferenceRows   int       `db:"reference_rows" json:"referenceRows"`
	ComparisonRows  int       `db:"comparison_rows" json:"comparisonRows"`
	ReferenceCount  int       `db:"reference_count" json:"referenceCount"`
	ComparisonCount int       `db:"comparison_count" json:"comparisonCount"`
	Dropped         int       `db:"dropped" json:"dropped"`
	CellCount       int       `db:"cell_count" json:"cellCount"`
	DurationMs      int64     `db:"duration_ms" json:"durationMs"`
	LoadedAt        time.Time `db:"loaded_at" json:"loadedAt"`
	Districts       *int      `db:"districts" json:"districts,omitempty"`
	Unknown         *int      `db:"unknown" json:"unknownDistricts,omitempty"`
}

// Cell is the stored aggregate of one grid cell.
type Cell struct {
	LoadID           uuid.UUID `db:"load_id" json:"loadId"`
	Key              string    `db:"cell_key" json:"key"`
	ReferenceCount   int       `db:"reference_count" json:"referenceCount"`
	ComparisonCount  int       `db:"comparison_count" json:"comparisonCount"`
	AvgOccupancy     float64   `db:"avg_occupancy" json:"avgOccupancy"`
	AvgFee           float64   `db:"avg_fee" json:"avgFee"`
	AvgReferenceRent *float64  `db:"avg_reference_rent" json:"avgReferenceRent,omitempty"`
	AvgProfit        float64   `db:"avg_profit" json:"avgProfit"`
	Tier             string    `db:"tier" json:"tier"`
}

// Repository provides database operations for load history.
type Repository struct {
	pool *pgxpool.Pool
}

const loadNotFoundMsg = "load not found"

// New creates a new load history repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordLoad inserts a load and its cells in one transaction.
func (r *Repository) RecordLoad(ctx context.Context, load Load, cells []Cell) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO listing_loads (
			id, variant, reference_rows, comparison_rows, reference_count, comparison_count,
			dropped, cell_count, duration_ms, loaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		load.ID, load.Variant, load.ReferenceRows, load.ComparisonRows, load.ReferenceCount,
		load.ComparisonCount, load.Dropped, load.CellCount, load.DurationMs, load.LoadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert load: %w", err)
	}

	if len(cells) > 0 {
		batch := &pgx.Batch{}
		for _, c := range cells {
			batch.Queue(`
				INSERT INTO cell_summaries (
					load_id, cell_key, reference_count, comparison_count, avg_occupancy,
					avg_fee, avg_reference_rent, avg_profit, tier
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				load.ID, c.Key, c.ReferenceCount, c.ComparisonCount, c.AvgOccupancy,
				c.AvgFee, c.AvgReferenceRent, c.AvgProfit, c.Tier,
			)
		}
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < len(cells); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert cell %q: %w", cells[i].Key, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to insert cells: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}
	return nil
}

// RecordDistricts stores the outcome of district grouping for a load.
func (r *Repository) RecordDistricts(ctx context.Context, loadID uuid.UUID, districts, unknown int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO district_runs (load_id, districts, unknown)
		VALUES ($1, $2, $3)
		ON CONFLICT (load_id) DO UPDATE SET districts = EXCLUDED.districts, unknown = EXCLUDED.unknown, computed_at = now()`,
		loadID, districts, unknown,
	)
	if err != nil {
		return fmt.Errorf("failed to record district run: %w", err)
	}
	return nil
}

// ListLoads returns the newest loads of a variant first.
func (r *Repository) ListLoads(ctx context.Context, variant string, limit int) ([]Load, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.variant, l.reference_rows, l.comparison_rows, l.reference_count,
			l.comparison_count, l.dropped, l.cell_count, l.duration_ms, l.loaded_at,
			d.districts, d.unknown
		FROM listing_loads l
		LEFT JOIN district_runs d ON d.load_id = l.id
		WHERE l.variant = $1
		ORDER BY l.loaded_at DESC
		LIMIT $2`, variant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer rows.Close()

	loads := make([]Load, 0, limit)
	for rows.Next() {
		var l Load
		if err := rows.Scan(
			&l.ID, &l.Variant, &l.ReferenceRows, &l.ComparisonRows, &l.ReferenceCount,
			&l.ComparisonCount, &l.Dropped, &l.CellCount, &l.DurationMs, &l.LoadedAt,
			&l.Districts, &l.Unknown,
		); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

// GetLoad returns a single load of a variant.
func (r *Repository) GetLoad(ctx context.Context, variant string, id uuid.UUID) (Load, error) {
	var l Load
	err := r.pool.QueryRow(ctx, `
		SELECT l.id, l.variant, l.reference_rows, l.comparison_rows, l.reference_count,
			l.comparison_count, l.dropped, l.cell_count, l.duration_ms, l.loaded_at,
			d.districts, d.unknown
		FROM listing_loads l
		LEFT JOIN district_runs d ON d.load_id = l.id
		WHERE l.variant = $1 AND l.id = $2`, variant, id,
	).Scan(
		&l.ID, &l.Variant, &l.ReferenceRows, &l.ComparisonRows, &l.ReferenceCount,
		&l.ComparisonCount, &l.Dropped, &l.CellCount, &l.DurationMs, &l.LoadedAt,
		&l.Districts, &l.Unknown,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Load{}, apperr.NotFound(loadNotFoundMsg)
	}
	if err != nil {
		return Load{}, fmt.Errorf("failed to get load: %w", err)
	}
	return l, nil
}

// ListCells returns the stored cells of a load, most comparison listings first.
func (r *Repository) ListCells(ctx context.Context, loadID uuid.UUID) ([]Cell, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT load_id, cell_key, reference_count, comparison_count, avg_occupancy,
			avg_fee, avg_reference_rent, avg_profit, tier
		FROM cell_summaries
		WHERE load_id = $1
		ORDER BY comparison_count DESC, cell_key`, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	defer rows.Close()

	cells, err := pgx.CollectRows(rows, pgx.RowToStructByName[Cell])
	if err != nil {
		return nil, fmt.Errorf("failed to scan cells: %w", err)
	}
	return cells, nil
}

// DeleteLoadsBefore removes loads older than before. The newest load of each
// variant is kept. Cells and district runs go with their load.
func (r *Repository) DeleteLoadsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM listing_loads l
		WHERE l.loaded_at < $1
		  AND l.id <> (
			SELECT id FROM listing_loads newest
			WHERE newest.variant = l.variant
			ORDER BY newest.loaded_at DESC
			LIMIT 1
		  )`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old loads: %w", err)
	}
	return tag.RowsAffected(), nil
}
