package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecomflow/order-system/orders-service/saga"
	"github.com/ecomflow/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ saga.Store = (*PostgresSagaStore)(nil)

// PostgresSagaStore implements saga.Store using PostgreSQL. Every mutation is
// a single-row read-modify-write keyed by the correlation id; Update carries
// a version check so concurrently processed duplicates cannot lose updates.
type PostgresSagaStore struct {
	db *sqlx.DB
}

// NewPostgresSagaStore creates a new PostgresSagaStore
func NewPostgresSagaStore(db *sqlx.DB) *PostgresSagaStore {
	return &PostgresSagaStore{db: db}
}

// postgresSagaState represents saga state in database
type postgresSagaState struct {
	CorrelationID string         `db:"correlation_id"`
	CustomerID    string         `db:"customer_id"`
	Amount        int64          `db:"amount"`
	Currency      string         `db:"currency"`
	Step          string         `db:"step"`
	ReservationID sql.NullString `db:"reservation_id"`
	PaymentID     sql.NullString `db:"payment_id"`
	ShipmentID    sql.NullString `db:"shipment_id"`
	FailureReason sql.NullString `db:"failure_reason"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	Version       int            `db:"version"`
}

// Find returns the state for a correlation id
func (s *PostgresSagaStore) Find(ctx context.Context, correlationID models.ID) (*saga.State, error) {
	var row postgresSagaState
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM saga_states WHERE correlation_id = $1",
		correlationID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, saga.ErrStateNotFound
		}
		return nil, errors.Wrap(err, "failed to find saga state")
	}

	return s.toDomain(&row), nil
}

// Create inserts a new state. The primary key on correlation_id enforces
// at most one saga instance per order.
func (s *PostgresSagaStore) Create(ctx context.Context, state *saga.State) error {
	query := `
		INSERT INTO saga_states (
			correlation_id, customer_id, amount, currency, step,
			reservation_id, payment_id, shipment_id, failure_reason,
			created_at, updated_at, version
		) VALUES (
			:correlation_id, :customer_id, :amount, :currency, :step,
			:reservation_id, :payment_id, :shipment_id, :failure_reason,
			:created_at, :updated_at, :version
		)
		ON CONFLICT (correlation_id) DO NOTHING`

	res, err := s.db.NamedExecContext(ctx, query, s.toPostgres(state))
	if err != nil {
		return errors.Wrap(err, "failed to insert saga state")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return saga.ErrStateExists
	}

	return nil
}

// Update writes the state back, guarded by the version the caller read.
func (s *PostgresSagaStore) Update(ctx context.Context, state *saga.State) error {
	query := `
		UPDATE saga_states
		SET step = :step,
			reservation_id = :reservation_id,
			payment_id = :payment_id,
			shipment_id = :shipment_id,
			failure_reason = :failure_reason,
			updated_at = :updated_at,
			version = :version + 1
		WHERE correlation_id = :correlation_id AND version = :version`

	res, err := s.db.NamedExecContext(ctx, query, s.toPostgres(state))
	if err != nil {
		return errors.Wrap(err, "failed to update saga state")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return saga.ErrStateConflict
	}

	state.Version++
	return nil
}

// FindStale returns non-terminal sagas whose last transition is older than
// the given instant
func (s *PostgresSagaStore) FindStale(ctx context.Context, olderThan time.Time) ([]*saga.State, error) {
	var rows []postgresSagaState
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM saga_states
		 WHERE step NOT IN ($1, $2, $3) AND updated_at < $4
		 ORDER BY updated_at`,
		string(saga.StepCompleted), string(saga.StepFailed), string(saga.StepCancelled), olderThan)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select stale saga states")
	}

	states := make([]*saga.State, len(rows))
	for i := range rows {
		states[i] = s.toDomain(&rows[i])
	}
	return states, nil
}

func (s *PostgresSagaStore) toPostgres(state *saga.State) *postgresSagaState {
	return &postgresSagaState{
		CorrelationID: state.CorrelationID.String(),
		CustomerID:    state.CustomerID.String(),
		Amount:        state.Amount.Amount,
		Currency:      state.Amount.Currency,
		Step:          string(state.Step),
		ReservationID: toNullString(state.ReservationID.String()),
		PaymentID:     toNullString(state.PaymentID.String()),
		ShipmentID:    toNullString(state.ShipmentID),
		FailureReason: toNullString(state.FailureReason),
		CreatedAt:     state.CreatedAt,
		UpdatedAt:     state.UpdatedAt,
		Version:       state.Version,
	}
}

func (s *PostgresSagaStore) toDomain(row *postgresSagaState) *saga.State {
	return &saga.State{
		CorrelationID: models.ID(row.CorrelationID),
		CustomerID:    models.ID(row.CustomerID),
		Amount:        models.NewMoney(row.Amount, row.Currency),
		Step:          saga.Step(row.Step),
		ReservationID: models.ID(row.ReservationID.String),
		PaymentID:     models.ID(row.PaymentID.String),
		ShipmentID:    row.ShipmentID.String,
		FailureReason: row.FailureReason.String,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Version:       row.Version,
	}
}

func toNullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
