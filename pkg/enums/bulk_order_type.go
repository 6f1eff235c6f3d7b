package enums

import "fmt"

// BulkOrderType describes whether a bulk line is ordered by piece or by set.
type BulkOrderType string

const (
	BulkOrderTypePieces BulkOrderType = "pieces"
	BulkOrderTypeSets   BulkOrderType = "sets"
)

var validBulkOrderTypes = []BulkOrderType{
	BulkOrderTypePieces,
	BulkOrderTypeSets,
}

// String implements fmt.Stringer.
func (t BulkOrderType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known BulkOrderType.
func (t BulkOrderType) IsValid() bool {
	for _, candidate := range validBulkOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseBulkOrderType converts raw input into a BulkOrderType.
func ParseBulkOrderType(value string) (BulkOrderType, error) {
	for _, candidate := range validBulkOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk order type %q", value)
}
