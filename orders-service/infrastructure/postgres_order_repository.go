package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order in database
type postgresOrder struct {
	ID            string          `db:"id"`
	CustomerID    string          `db:"customer_id"`
	Items         json.RawMessage `db:"items"`
	Currency      string          `db:"currency"`
	Status        string          `db:"status"`
	Address       json.RawMessage `db:"shipping_address"`
	FailureReason sql.NullString  `db:"failure_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	DeletedAt     *time.Time      `db:"deleted_at"`
	Version       int             `db:"version"`
}

// Save inserts a newly created order
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, items, currency, status,
			shipping_address, failure_reason, created_at, updated_at, version
		) VALUES (
			:id, :customer_id, :items, :currency, :status,
			:shipping_address, :failure_reason, :created_at, :updated_at, :version
		)`

	row, err := r.toPostgres(order)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	return nil
}

// Update persists a status transition with optimistic locking. Orders are
// never physically deleted, only terminally statused.
func (r *PostgresOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = :status, failure_reason = :failure_reason,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	res, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             order.ID.String(),
		"status":         string(order.Status),
		"failure_reason": toNullString(order.FailureReason),
		"updated_at":     order.Timestamps.UpdatedAt,
		"version":        order.Version.Value,
		"old_version":    order.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return errors.Errorf("order %s was modified concurrently", order.ID)
	}

	return nil
}

// FindByID finds an order by ID
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	var row postgresOrder
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM orders WHERE id = $1 AND deleted_at IS NULL",
		id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	return r.toDomain(&row)
}

func (r *PostgresOrderRepository) toPostgres(order *domain.Order) (*postgresOrder, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal order items")
	}

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal shipping address")
	}

	return &postgresOrder{
		ID:            order.ID.String(),
		CustomerID:    order.CustomerID.String(),
		Items:         items,
		Currency:      order.Currency,
		Status:        string(order.Status),
		Address:       address,
		FailureReason: toNullString(order.FailureReason),
		CreatedAt:     order.Timestamps.CreatedAt,
		UpdatedAt:     order.Timestamps.UpdatedAt,
		DeletedAt:     order.Timestamps.DeletedAt,
		Version:       order.Version.Value,
	}, nil
}

func (r *PostgresOrderRepository) toDomain(row *postgresOrder) (*domain.Order, error) {
	var items []domain.OrderItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal order items")
	}

	var address domain.ShippingAddress
	if len(row.Address) > 0 {
		if err := json.Unmarshal(row.Address, &address); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal shipping address")
		}
	}

	return &domain.Order{
		ID:              models.ID(row.ID),
		CustomerID:      models.ID(row.CustomerID),
		Items:           items,
		Currency:        row.Currency,
		Status:          domain.OrderStatus(row.Status),
		ShippingAddress: address,
		FailureReason:   row.FailureReason.String,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			DeletedAt: row.DeletedAt,
		},
		Version: models.Version{Value: row.Version},
	}, nil
}
