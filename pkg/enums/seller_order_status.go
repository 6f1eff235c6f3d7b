package enums

import "fmt"

// SellerOrderStatus tracks the per-seller slice of a multi-seller order.
type SellerOrderStatus string

const (
	SellerOrderStatusPending   SellerOrderStatus = "pending"
	SellerOrderStatusAccepted  SellerOrderStatus = "accepted"
	SellerOrderStatusShipped   SellerOrderStatus = "shipped"
	SellerOrderStatusDelivered SellerOrderStatus = "delivered"
	SellerOrderStatusCancelled SellerOrderStatus = "cancelled"
)

var validSellerOrderStatuses = []SellerOrderStatus{
	SellerOrderStatusPending,
	SellerOrderStatusAccepted,
	SellerOrderStatusShipped,
	SellerOrderStatusDelivered,
	SellerOrderStatusCancelled,
}

// IsValid reports whether the value is a known SellerOrderStatus.
func (s SellerOrderStatus) IsValid() bool {
	for _, candidate := range validSellerOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSellerOrderStatus converts raw input into a SellerOrderStatus.
func ParseSellerOrderStatus(value string) (SellerOrderStatus, error) {
	for _, candidate := range validSellerOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller order status %q", value)
}
