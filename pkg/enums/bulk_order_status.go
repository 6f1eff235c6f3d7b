package enums

import "fmt"

// BulkOrderStatus tracks distributor bulk order approval state.
type BulkOrderStatus string

const (
	BulkOrderStatusPending  BulkOrderStatus = "pending"
	BulkOrderStatusApproved BulkOrderStatus = "approved"
	BulkOrderStatusRejected BulkOrderStatus = "rejected"
)

var validBulkOrderStatuses = []BulkOrderStatus{
	BulkOrderStatusPending,
	BulkOrderStatusApproved,
	BulkOrderStatusRejected,
}

// String implements fmt.Stringer.
func (s BulkOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BulkOrderStatus.
func (s BulkOrderStatus) IsValid() bool {
	for _, candidate := range validBulkOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBulkOrderStatus converts raw input into a BulkOrderStatus.
func ParseBulkOrderStatus(value string) (BulkOrderStatus, error) {
	for _, candidate := range validBulkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk order status %q", value)
}
