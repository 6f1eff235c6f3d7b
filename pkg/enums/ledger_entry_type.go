package enums

import "fmt"

// LedgerEntryType classifies a distributor ledger journal line.
type LedgerEntryType string

const (
	// LedgerEntryTypeOrder records the financial effect of a bulk order.
	LedgerEntryTypeOrder LedgerEntryType = "order"
	// LedgerEntryTypeAdjustment records a manual admin-posted correction.
	LedgerEntryTypeAdjustment LedgerEntryType = "adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeOrder,
	LedgerEntryTypeAdjustment,
}

// IsValid reports whether the value is a known LedgerEntryType.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}

// LedgerOrderType qualifies which order domain a ledger entry references.
type LedgerOrderType string

const (
	LedgerOrderTypeBulk LedgerOrderType = "bulk"
)

// IsValid reports whether the value is a known LedgerOrderType.
func (t LedgerOrderType) IsValid() bool {
	return t == LedgerOrderTypeBulk
}
