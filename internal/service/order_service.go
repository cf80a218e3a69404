package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrForbidden     = errors.New("forbidden: user does not have permission for this action")
)

// OrderDetail is the detail view of an order with the derived display
// fields the client renders
type OrderDetail struct {
	model.Order
	CustomerName string `json:"customer_name"`
	AddressLine  string `json:"address_line"`
}

// OrderService exposes the normalized, read-only order history
type OrderService interface {
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)
	GetOrder(ctx context.Context, orderID, userID, userRole string) (*OrderDetail, error)

	// Admin methods
	GetAllOrdersAdmin(ctx context.Context, filters model.AdminOrderFilters) ([]model.Order, error)
	GetStatsAdmin(ctx context.Context, filters model.AdminOrderFilters) (*model.OrderStats, error)
	ExportOrdersCSVAdmin(ctx context.Context, filters model.AdminOrderFilters) (*bytes.Buffer, error)
}

type orderService struct {
	repo repository.OrderRepository
}

// NewOrderService creates a new OrderService
func NewOrderService(repo repository.OrderRepository) OrderService {
	return &orderService{repo: repo}
}

// ListOrders returns the user's normalized order history, newest first.
// A record with undecodable fields comes back with safe defaults rather
// than aborting the batch.
func (s *orderService) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	raws, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user orders from repo: %w", err)
	}

	orders := make([]model.Order, 0, len(raws))
	for _, raw := range raws {
		orders = append(orders, normalizeOrder(raw))
	}
	return orders, nil
}

// GetOrder returns one normalized order with derived display fields.
// Non-admins can only read their own orders.
func (s *orderService) GetOrder(ctx context.Context, orderID, userID, userRole string) (*OrderDetail, error) {
	raw, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	if raw == nil {
		return nil, ErrOrderNotFound
	}
	if userRole != model.RoleAdmin && raw.UserID != userID {
		return nil, ErrForbidden
	}

	order := normalizeOrder(*raw)
	return &OrderDetail{
		Order:        order,
		CustomerName: CustomerName(order.ShippingAddress),
		AddressLine:  AddressLine(order.ShippingAddress),
	}, nil
}

// --- Admin Methods ---

func (s *orderService) GetAllOrdersAdmin(ctx context.Context, filters model.AdminOrderFilters) ([]model.Order, error) {
	raws, err := s.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get all orders for admin: %w", err)
	}
	orders := make([]model.Order, 0, len(raws))
	for _, raw := range raws {
		orders = append(orders, normalizeOrder(raw))
	}
	return orders, nil
}

func (s *orderService) GetStatsAdmin(ctx context.Context, filters model.AdminOrderFilters) (*model.OrderStats, error) {
	stats, err := s.repo.GetStats(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats for admin: %w", err)
	}
	return stats, nil
}

func (s *orderService) ExportOrdersCSVAdmin(ctx context.Context, filters model.AdminOrderFilters) (*bytes.Buffer, error) {
	raws, err := s.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders for CSV export: %w", err)
	}

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)

	header := []string{"ID", "OrderNumber", "UserID", "Status", "PaymentMethod", "PaymentStatus", "ItemCount", "TotalAmount", "CreatedAt"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, raw := range raws {
		o := normalizeOrder(raw)
		row := []string{
			o.ID,
			o.OrderNumber,
			raw.UserID,
			o.Status,
			o.PaymentMethod,
			o.PaymentStatus,
			strconv.Itoa(len(o.Items)),
			strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
			o.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV writer: %w", err)
	}

	return buffer, nil
}
