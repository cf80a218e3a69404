package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func filtersWith(userID, status *string, start *time.Time) model.AdminOrderFilters {
	return model.AdminOrderFilters{UserID: userID, Status: status, StartDate: start}
}

var orderRowColumns = []string{
	"id", "user_id", "order_number", "status", "payment_method", "payment_status", "items",
	"subtotal", "tax", "shipping", "total_amount", "shipping_address", "razorpay_order_id", "razorpay_payment_id", "created_at",
}

func TestOrderRepository_FindByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	created := time.Now()
	rows := pgxmock.NewRows(orderRowColumns).
		AddRow("o1", "u1", strPtr("ORD-1"), "delivered", "razorpay", "paid", strPtr(`[{"id":"a"}]`),
			200.0, 36.0, 0.0, 236.0, strPtr(`{"city":"Pune"}`), strPtr("rzp_o_1"), strPtr("rzp_p_1"), created).
		AddRow("o2", "u1", (*string)(nil), "pending", "cod", "", (*string)(nil),
			0.0, 0.0, 0.0, 50.0, (*string)(nil), (*string)(nil), (*string)(nil), created.Add(-time.Hour))

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(rows)

	orders, err := repo.FindByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, "ORD-1", *orders[0].OrderNumber)
	assert.Equal(t, []byte(`[{"id":"a"}]`), orders[0].Items)
	assert.Equal(t, []byte(`{"city":"Pune"}`), orders[0].ShippingAddress)

	// Null columns stay nil through the scan
	assert.Nil(t, orders[1].OrderNumber)
	assert.Nil(t, orders[1].Items)
	assert.Nil(t, orders[1].ShippingAddress)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(orderRowColumns))

	order, err := repo.FindByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, order)
}

func TestOrderRepository_FindAll_AppliesFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	userID := "u1"
	status := "delivered"
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE user_id = \$1 AND status = \$2 AND created_at >= \$3 ORDER BY created_at DESC`).
		WithArgs(userID, status, start).
		WillReturnRows(pgxmock.NewRows(orderRowColumns))

	orders, err := repo.FindAll(context.Background(), filtersWith(&userID, &status, &start))
	assert.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(id\), COALESCE\(SUM\(total_amount\), 0\) FROM orders`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum"}).AddRow(int64(3), 500.0))
	mock.ExpectQuery(`SELECT status, COUNT\(id\) FROM orders GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("delivered", int64(2)).
			AddRow("pending", int64(1)))
	mock.ExpectQuery(`SELECT payment_method, COALESCE\(SUM\(total_amount\), 0\) FROM orders GROUP BY payment_method`).
		WillReturnRows(pgxmock.NewRows([]string{"payment_method", "sum"}).
			AddRow("razorpay", 450.0).
			AddRow("cod", 50.0))

	stats, err := repo.GetStats(context.Background(), filtersWith(nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.OrderCount)
	assert.Equal(t, 500.0, stats.TotalRevenue)
	assert.Equal(t, int64(2), stats.CountByStatus["delivered"])
	assert.Equal(t, 450.0, stats.RevenueByPaymentMethod["razorpay"])
}
