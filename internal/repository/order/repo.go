// Package order persists orders. Every mutation refreshes updated_at.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// store is the consumer interface for the order repository (ISP).
type store interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo implements usecase/order.Repository.
type Repo struct {
	store store
}

// New creates an order repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

const orderColumns = "id, customer_id, agent_id, catalog_item_id, quantity, status, attributes, created_at, updated_at"

// Create inserts an order with the initial status. The insert is a
// single atomic statement: it either commits fully or fails before
// persistence, and it succeeds independently of any later publish attempt.
func (r *Repo) Create(ctx context.Context, customerID string, agentID, catalogItemID uuid.UUID, quantity int, attributes map[string]any) (domain.Order, error) {
	row := r.store.QueryRow(ctx, `
		INSERT INTO orders (customer_id, agent_id, catalog_item_id, quantity, status, attributes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderColumns,
		customerID, agentID, catalogItemID, quantity, domain.OrderInitial, attributes,
	)
	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// List returns orders newest first, optionally filtered by status.
func (r *Repo) List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	rows, err := r.store.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// Get returns one order by id.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	row := r.store.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1`,
		id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// Update writes only the fields present in the patch and refreshes updated_at.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, p domain.OrderPatch) (domain.Order, error) {
	sql, args := buildUpdate(id, p)

	row := r.store.QueryRow(ctx, sql, args...)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	return o, nil
}

// SetStatus unconditionally overwrites the status. No transition graph is
// enforced: the queue consumer and operators may move an order to any state.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	row := r.store.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		id, status,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("set order %s status: %w", id, err)
	}
	return o, nil
}

// Delete hard-deletes an order.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deletedID uuid.UUID
	err := r.store.QueryRow(ctx, `
		DELETE FROM orders
		WHERE id = $1
		RETURNING id`,
		id,
	).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, domain.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("delete order %s: %w", id, err)
	}
	return deletedID, nil
}

// buildUpdate assembles an UPDATE statement from the present patch fields.
// updated_at is always refreshed. The caller guarantees the patch is non-empty.
func buildUpdate(id uuid.UUID, p domain.OrderPatch) (string, []any) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Quantity != nil {
		add("quantity", *p.Quantity)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Attributes != nil {
		add("attributes", *p.Attributes)
	}

	sql := fmt.Sprintf(
		"UPDATE orders SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "), orderColumns,
	)
	return sql, args
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.AgentID, &o.CatalogItemID,
		&o.Quantity, &o.Status, &o.Attributes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err //nolint:wrapcheck // callers add context
	}
	return o, nil
}
