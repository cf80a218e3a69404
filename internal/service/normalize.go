package service

import (
	"encoding/json"
	"log"
	"strings"

	"storefront/internal/model"
)

// DefaultCountry is used when a shipping address omits the country
const DefaultCountry = "IN"

// Persisted order fields arrive in one of two shapes depending on which
// checkout wrote them: a JSON-encoded string ("\"[{...}]\"" after a
// text column round-trip) or the structured JSON value itself. The
// decode helpers below resolve that ambiguity once, at the boundary;
// everything downstream sees only the structured form. Decode failures
// are logged and replaced with a safe default, never surfaced.

// decodeItems accepts raw bytes holding either a JSON array or a
// JSON string wrapping one. A nil or undecodable value yields an empty
// list.
func decodeItems(raw []byte, orderID string) []model.OrderItem {
	if len(raw) == 0 {
		return []model.OrderItem{}
	}

	var items []model.OrderItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}

	// String-encoded form: unwrap, then decode the inner document
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &items); err == nil {
			return items
		}
	}

	log.Printf("Undecodable items payload on order %s, defaulting to empty", orderID)
	return []model.OrderItem{}
}

// decodeShippingAddress mirrors decodeItems for the address, defaulting
// every field to an empty string and the country to DefaultCountry
func decodeShippingAddress(raw []byte, orderID string) model.ShippingAddress {
	addr := model.ShippingAddress{}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &addr); err != nil {
			var encoded string
			if err := json.Unmarshal(raw, &encoded); err == nil {
				if err := json.Unmarshal([]byte(encoded), &addr); err != nil {
					log.Printf("Undecodable shipping address on order %s, defaulting to blank", orderID)
					addr = model.ShippingAddress{}
				}
			} else {
				log.Printf("Undecodable shipping address on order %s, defaulting to blank", orderID)
			}
		}
	}

	if addr.Country == "" {
		addr.Country = DefaultCountry
	}
	return addr
}

// deriveOrderNumber prefers the stored number and otherwise synthesizes
// one from the trailing 8 characters of the id, upper-cased
func deriveOrderNumber(stored *string, id string) string {
	if stored != nil && *stored != "" {
		return *stored
	}
	tail := id
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	return "ORD-" + strings.ToUpper(tail)
}

// mapPaymentMethod collapses gateway tokens into the two semantic
// categories the client knows about
func mapPaymentMethod(token string) string {
	if token == "razorpay" {
		return model.PaymentMethodCard
	}
	return model.PaymentMethodCashOnDelivery
}

// CustomerName derives a display name for the order detail view:
// explicit combined name, else first/last joined and trimmed, else a
// generic fallback.
func CustomerName(addr model.ShippingAddress) string {
	if name := strings.TrimSpace(addr.FullName); name != "" {
		return name
	}
	name := strings.TrimSpace(strings.TrimSpace(addr.FirstName) + " " + strings.TrimSpace(addr.LastName))
	if name != "" {
		return name
	}
	return "Customer"
}

// AddressLine joins the non-empty address components with ", "
func AddressLine(addr model.ShippingAddress) string {
	parts := []string{addr.Street, addr.City, addr.State, addr.PostalCode, addr.Country}
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// normalizeOrder converts one raw order row into the client-facing
// model. Per-field decode failures degrade to defaults so one bad
// record never poisons a batch.
func normalizeOrder(raw model.RawOrder) model.Order {
	return model.Order{
		ID:                raw.ID,
		OrderNumber:       deriveOrderNumber(raw.OrderNumber, raw.ID),
		Status:            raw.Status,
		PaymentMethod:     mapPaymentMethod(raw.PaymentMethod),
		PaymentStatus:     raw.PaymentStatus,
		Items:             decodeItems(raw.Items, raw.ID),
		Subtotal:          raw.Subtotal,
		Tax:               raw.Tax,
		Shipping:          raw.Shipping,
		TotalAmount:       raw.TotalAmount,
		ShippingAddress:   decodeShippingAddress(raw.ShippingAddress, raw.ID),
		RazorpayOrderID:   raw.RazorpayOrderID,
		RazorpayPaymentID: raw.RazorpayPaymentID,
		CreatedAt:         raw.CreatedAt,
	}
}
