package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"PagSeguroNotify/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) GetByGUID(ctx context.Context, guid uuid.UUID) (*models.Order, error) {
	return loadOrder(ctx, s.Pool, "guid=$1", guid, false)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return loadOrder(ctx, s.Pool, "id=$1", id, false)
}

func loadOrder(ctx context.Context, q querier, where string, arg any, forUpdate bool) (*models.Order, error) {
	query := `
		SELECT id, guid, customer_email, language, payment_status, status,
			shipping_method, paid_at, created_at, updated_at
		FROM orders WHERE ` + where
	if forUpdate {
		query += " FOR UPDATE"
	}

	var order models.Order
	var paidAt sql.NullTime
	err := q.QueryRow(ctx, query, arg).Scan(
		&order.ID,
		&order.GUID,
		&order.CustomerEmail,
		&order.Language,
		&order.PaymentStatus,
		&order.Status,
		&order.ShippingMethod,
		&paidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if paidAt.Valid {
		order.PaidAt = &paidAt.Time
	}

	if order.Items, err = loadItems(ctx, q, order.ID); err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	if order.Notes, err = loadNotes(ctx, q, order.ID); err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	return &order, nil
}

func loadItems(ctx context.Context, q querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_name, manufacturer_name,
			COALESCE(delivery_date_id, 0), quantity
		FROM order_items WHERE order_id=$1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.ManufacturerName, &it.DeliveryDateID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func loadNotes(ctx context.Context, q querier, orderID int64) ([]models.OrderNote, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, note, visible_to_customer, created_at
		FROM order_notes WHERE order_id=$1 ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.OrderNote
	for rows.Next() {
		var n models.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Text, &n.VisibleToCustomer, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
