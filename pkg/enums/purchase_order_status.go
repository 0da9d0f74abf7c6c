package enums

import "fmt"

// PurchaseOrderStatus tracks the lifecycle of a generated purchase order.
// Only the pending_approval -> approved transition is owned by this service;
// sent and completed are driven by external fulfillment tooling.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPendingApproval PurchaseOrderStatus = "pending_approval"
	PurchaseOrderStatusApproved        PurchaseOrderStatus = "approved"
	PurchaseOrderStatusSent            PurchaseOrderStatus = "sent"
	PurchaseOrderStatusCompleted       PurchaseOrderStatus = "completed"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusPendingApproval,
	PurchaseOrderStatusApproved,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusCompleted,
}

// String implements fmt.Stringer.
func (p PurchaseOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (p PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
