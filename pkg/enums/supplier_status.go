package enums

import "fmt"

// SupplierStatus tracks whether a supplier can be selected for new purchase orders.
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
)

var validSupplierStatuses = []SupplierStatus{
	SupplierStatusActive,
	SupplierStatusInactive,
}

// String implements fmt.Stringer.
func (s SupplierStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SupplierStatus.
func (s SupplierStatus) IsValid() bool {
	for _, candidate := range validSupplierStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSupplierStatus converts raw input into a SupplierStatus.
func ParseSupplierStatus(value string) (SupplierStatus, error) {
	for _, candidate := range validSupplierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid supplier status %q", value)
}
