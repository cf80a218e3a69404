package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// OrderRepository defines read operations for order data. Orders are
// written by the checkout pipeline, not by this service.
type OrderRepository interface {
	FindByUser(ctx context.Context, userID string) ([]model.RawOrder, error)
	FindByID(ctx context.Context, id string) (*model.RawOrder, error)
	FindAll(ctx context.Context, filters model.AdminOrderFilters) ([]model.RawOrder, error)
	GetStats(ctx context.Context, filters model.AdminOrderFilters) (*model.OrderStats, error)
}

type orderRepository struct {
	db PgxIface
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db PgxIface) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, order_number, status, payment_method, payment_status, items,
            subtotal, tax, shipping, total_amount, shipping_address, razorpay_order_id, razorpay_payment_id, created_at`

func scanRawOrder(row pgx.Row) (*model.RawOrder, error) {
	o := &model.RawOrder{}
	var items, address *string
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.Status, &o.PaymentMethod, &o.PaymentStatus, &items,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.TotalAmount, &address, &o.RazorpayOrderID, &o.RazorpayPaymentID, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if items != nil {
		o.Items = []byte(*items)
	}
	if address != nil {
		o.ShippingAddress = []byte(*address)
	}
	return o, nil
}

// FindByUser retrieves all orders for a user, newest first
func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]model.RawOrder, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders by user: %w", err)
	}
	defer rows.Close()

	var orders []model.RawOrder
	for rows.Next() {
		o, err := scanRawOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

// FindByID retrieves a single order by its ID
func (r *orderRepository) FindByID(ctx context.Context, id string) (*model.RawOrder, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanRawOrder(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return o, nil
}

// FindAll retrieves all orders with optional filters for admin
func (r *orderRepository) FindAll(ctx context.Context, filters model.AdminOrderFilters) ([]model.RawOrder, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + ` FROM orders`)

	args := []interface{}{}
	argCount := 1
	var conditions []string

	if filters.UserID != nil && *filters.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argCount))
		args = append(args, *filters.EndDate)
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query all orders: %w", err)
	}
	defer rows.Close()

	var orders []model.RawOrder
	for rows.Next() {
		o, err := scanRawOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row for admin: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin order rows: %w", err)
	}
	return orders, nil
}

// GetStats calculates aggregated order statistics for admin
func (r *orderRepository) GetStats(ctx context.Context, filters model.AdminOrderFilters) (*model.OrderStats, error) {
	stats := &model.OrderStats{
		CountByStatus:          make(map[string]int64),
		RevenueByPaymentMethod: make(map[string]float64),
	}

	args := []interface{}{}
	argCount := 1
	var conditions []string

	if filters.UserID != nil && *filters.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argCount))
		args = append(args, *filters.EndDate)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	sumQuery := fmt.Sprintf(`SELECT COUNT(id), COALESCE(SUM(total_amount), 0) FROM orders%s`, whereClause)
	err := r.db.QueryRow(ctx, sumQuery, args...).Scan(&stats.OrderCount, &stats.TotalRevenue)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get order totals: %w", err)
	}

	statusQuery := fmt.Sprintf(`SELECT status, COUNT(id) FROM orders%s GROUP BY status`, whereClause)
	rows, err := r.db.Query(ctx, statusQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get counts by status: %w", err)
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan counts by status: %w", err)
		}
		stats.CountByStatus[status] = count
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts by status: %w", err)
	}

	methodQuery := fmt.Sprintf(`SELECT payment_method, COALESCE(SUM(total_amount), 0) FROM orders%s GROUP BY payment_method`, whereClause)
	rows, err = r.db.Query(ctx, methodQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue by payment method: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var method string
		var sum float64
		if err := rows.Scan(&method, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan revenue by payment method: %w", err)
		}
		stats.RevenueByPaymentMethod[method] = sum
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revenue by payment method: %w", err)
	}

	return stats, nil
}
