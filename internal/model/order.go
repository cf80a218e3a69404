package model

import "time"

const (
	PaymentMethodCard           = "card"
	PaymentMethodCashOnDelivery = "cashOnDelivery"
)

// RawOrder is an order row as persisted. Items and shipping address are
// stored either as JSON text or as structured jsonb depending on which
// checkout wrote them; both scan into raw bytes and are decoded by the
// normalizer.
type RawOrder struct {
	ID                string
	UserID            string
	OrderNumber       *string
	Status            string
	PaymentMethod     string // gateway token, e.g. "razorpay" or "cod"
	PaymentStatus     string
	Items             []byte
	Subtotal          float64
	Tax               float64
	Shipping          float64
	TotalAmount       float64
	ShippingAddress   []byte
	RazorpayOrderID   *string
	RazorpayPaymentID *string
	CreatedAt         time.Time
}

// Order is the normalized, client-facing view of an order
type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	Status            string          `json:"status"`
	PaymentMethod     string          `json:"payment_method"` // "card" or "cashOnDelivery"
	PaymentStatus     string          `json:"payment_status"`
	Items             []OrderItem     `json:"items"`
	Subtotal          float64         `json:"subtotal"`
	Tax               float64         `json:"tax"`
	Shipping          float64         `json:"shipping"`
	TotalAmount       float64         `json:"total_amount"`
	ShippingAddress   ShippingAddress `json:"shipping_address"`
	RazorpayOrderID   *string         `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID *string         `json:"razorpay_payment_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"image_url,omitempty"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// AdminOrderFilters contains filter parameters for admin order queries
type AdminOrderFilters struct {
	UserID    *string
	Status    *string
	StartDate *time.Time
	EndDate   *time.Time
}

// OrderStats represents aggregated order statistics for admin
type OrderStats struct {
	OrderCount             int64              `json:"order_count"`
	TotalRevenue           float64            `json:"total_revenue"`
	CountByStatus          map[string]int64   `json:"count_by_status"`
	RevenueByPaymentMethod map[string]float64 `json:"revenue_by_payment_method"`
}
