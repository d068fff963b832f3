package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/order"
)

// PostgresOrderRepository persists orders as one row each, with the line
// items and optional info blocks as jsonb.
type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

func (r *PostgresOrderRepository) Save(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	var reservation, shipment []byte
	if o.Reservation != nil {
		if reservation, err = json.Marshal(o.Reservation); err != nil {
			return err
		}
	}
	if o.Shipment != nil {
		if shipment, err = json.Marshal(o.Shipment); err != nil {
			return err
		}
	}

	_, err = querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO orders (id, status, items, reservation, shipment, scheduled_pickup_time, fulfillment_lead_time_ns, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   items = EXCLUDED.items,
		   reservation = EXCLUDED.reservation,
		   shipment = EXCLUDED.shipment,
		   scheduled_pickup_time = EXCLUDED.scheduled_pickup_time,
		   fulfillment_lead_time_ns = EXCLUDED.fulfillment_lead_time_ns,
		   updated_at = EXCLUDED.updated_at`,
		o.ID, string(o.Status), items, reservation, shipment,
		nullableTime(o.ScheduledPickupTime), int64(o.FulfillmentLeadTime), o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *PostgresOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	row := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, status, items, reservation, shipment, scheduled_pickup_time, fulfillment_lead_time_ns, created_at, updated_at
		 FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	return o, err
}

func (r *PostgresOrderRepository) FindPreFulfillment(ctx context.Context) ([]*order.Order, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT id, status, items, reservation, shipment, scheduled_pickup_time, fulfillment_lead_time_ns, created_at, updated_at
		 FROM orders WHERE status = $1 ORDER BY created_at ASC`,
		string(order.StatusReserved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o           order.Order
		status      string
		items       []byte
		reservation []byte
		shipment    []byte
		pickup      sql.NullTime
		leadTimeNs  int64
	)
	if err := row.Scan(&o.ID, &status, &items, &reservation, &shipment, &pickup, &leadTimeNs, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	if len(reservation) > 0 {
		if err := json.Unmarshal(reservation, &o.Reservation); err != nil {
			return nil, err
		}
	}
	if len(shipment) > 0 {
		if err := json.Unmarshal(shipment, &o.Shipment); err != nil {
			return nil, err
		}
	}
	if pickup.Valid {
		o.ScheduledPickupTime = pickup.Time
	}
	o.FulfillmentLeadTime = time.Duration(leadTimeNs)
	return &o, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
