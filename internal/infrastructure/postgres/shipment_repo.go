package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/domain/shipment"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ShipmentRepository struct {
	db DB
}

func NewShipmentRepository(db DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

const shipmentColumns = `
	id, shipment_id,
	COALESCE(order_id, ''), COALESCE(customer_id, ''),
	COALESCE(address, ''), COALESCE(city, ''), COALESCE(postal_code, ''), COALESCE(service_level, ''),
	requested_at,
	status, received_at, processed_at,
	COALESCE(correlation_id, ''), raw_payload
`

func (r *ShipmentRepository) Exists(ctx context.Context, shipmentID string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM shipments_queue WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, sql, shipmentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check shipment exists: %w", err)
	}
	return exists, nil
}

// Insert writes the record unless a row with the same id is already present.
// It returns true when a row was created.
func (r *ShipmentRepository) Insert(ctx context.Context, rec *shipment.Record) (bool, error) {
	const sql = `
		INSERT INTO shipments_queue (
			id, shipment_id, order_id, customer_id,
			address, city, postal_code, service_level,
			requested_at, status, received_at, processed_at,
			correlation_id, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, sql, recordArgs(rec)...)
	if err != nil {
		return false, fmt.Errorf("insert shipment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ShipmentRepository) Upsert(ctx context.Context, rec *shipment.Record) error {
	const sql = `
		INSERT INTO shipments_queue (
			id, shipment_id, order_id, customer_id,
			address, city, postal_code, service_level,
			requested_at, status, received_at, processed_at,
			correlation_id, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			shipment_id    = EXCLUDED.shipment_id,
			order_id       = EXCLUDED.order_id,
			customer_id    = EXCLUDED.customer_id,
			address        = EXCLUDED.address,
			city           = EXCLUDED.city,
			postal_code    = EXCLUDED.postal_code,
			service_level  = EXCLUDED.service_level,
			requested_at   = EXCLUDED.requested_at,
			status         = EXCLUDED.status,
			received_at    = EXCLUDED.received_at,
			processed_at   = EXCLUDED.processed_at,
			correlation_id = EXCLUDED.correlation_id,
			raw_payload    = EXCLUDED.raw_payload
	`

	if _, err := r.db.Exec(ctx, sql, recordArgs(rec)...); err != nil {
		return fmt.Errorf("upsert shipment: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when the shipment is unknown.
func (r *ShipmentRepository) FindByID(ctx context.Context, shipmentID string) (*shipment.Record, error) {
	sql := `SELECT ` + shipmentColumns + ` FROM shipments_queue WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRow(ctx, sql, shipmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipment by id: %w", err)
	}
	return rec, nil
}

func (r *ShipmentRepository) ListRecent(ctx context.Context, limit int) ([]*shipment.Record, error) {
	sql := `SELECT ` + shipmentColumns + ` FROM shipments_queue ORDER BY received_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent shipments: %w", err)
	}
	defer rows.Close()

	var records []*shipment.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}

	return records, nil
}

func scanRecord(row pgx.Row) (*shipment.Record, error) {
	var (
		rec         shipment.Record
		requestedAt *time.Time
		processedAt *time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.ShipmentID,
		&rec.OrderID, &rec.CustomerID,
		&rec.Address, &rec.City, &rec.PostalCode, &rec.ServiceLevel,
		&requestedAt,
		&rec.Status, &rec.ReceivedAt, &processedAt,
		&rec.CorrelationID, &rec.RawPayload,
	)
	if err != nil {
		return nil, err
	}
	if requestedAt != nil {
		rec.RequestedAt = *requestedAt
	}
	rec.ProcessedAt = processedAt
	return &rec, nil
}

func recordArgs(rec *shipment.Record) []any {
	return []any{
		rec.ID, rec.ShipmentID, nullIfEmpty(rec.OrderID), nullIfEmpty(rec.CustomerID),
		nullIfEmpty(rec.Address), nullIfEmpty(rec.City), nullIfEmpty(rec.PostalCode), nullIfEmpty(rec.ServiceLevel),
		nullIfZeroTime(rec.RequestedAt), rec.Status, rec.ReceivedAt, rec.ProcessedAt,
		nullIfEmpty(rec.CorrelationID), rec.RawPayload,
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
