package planner

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
)

// LineItem is one incoming order line to route to a supplier.
type LineItem struct {
	ProductID string
	SKU       string
	Title     string
	Quantity  int
}

// Order is the planner input extracted from the order-created webhook.
type Order struct {
	OrderReference string
	LineItems      []LineItem
}

// Link is one supplier's offer for one product.
type Link struct {
	ID           uuid.UUID
	ProductID    string
	SupplierID   uuid.UUID
	Priority     int
	UnitPrice    decimal.Decimal
	StockLevel   int
	MinimumOrder int
	Version      int64
}

// PlannedItem is a line item resolved to a supplier with the price captured
// at selection time.
type PlannedItem struct {
	ProductID string
	SKU       string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PlannedOrder is a draft purchase order for a single supplier.
type PlannedOrder struct {
	PONumber   string
	SupplierID uuid.UUID
	Status     enums.PurchaseOrderStatus
	Items      []PlannedItem
}

// Total sums quantity times unit price across all items without rounding.
func (p PlannedOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// DisplayTotal rounds the order total to two decimal places for presentation.
func (p PlannedOrder) DisplayTotal() decimal.Decimal {
	return p.Total().Round(2)
}

// UnfulfillableItem reports a line item no supplier is assigned to.
type UnfulfillableItem struct {
	ProductID string
	SKU       string
	Quantity  int
}

// Result carries everything a caller needs to persist after planning. Stock
// decrements are returned as UpdatedLinks rather than written here so that
// persistence stays explicit and testable.
type Result struct {
	Orders        []PlannedOrder
	UpdatedLinks  []Link
	Unfulfillable []UnfulfillableItem
}

// Plan routes each line item to a supplier and groups the result into one
// draft purchase order per supplier, in first-encounter order.
//
// Per line item: candidate links for the product are ordered by priority
// (lowest wins, link id breaks ties), the first link with enough stock is
// selected, and if none has enough stock the top-priority link is used
// anyway so an assigned product always resolves to a supplier. The selected
// link's stock is decremented (floored at zero) and the decrement is visible
// to later line items in the same call. The input slices are not mutated.
//
// Line items with a non-positive quantity are skipped and reported through
// the returned error; the rest of the order is still planned. The error is
// nil when every line item was accepted.
func Plan(order Order, links []Link) (Result, error) {
	if err := validateLinks(links); err != nil {
		return Result{}, err
	}

	working := groupByProduct(links)

	var (
		result   Result
		itemErrs error
		poIndex  = map[uuid.UUID]int{}
		modified = map[uuid.UUID]*Link{}
		modOrder []uuid.UUID
	)

	for i, item := range order.LineItems {
		if item.Quantity <= 0 {
			itemErrs = multierr.Append(itemErrs, pkgerrors.New(
				pkgerrors.CodeValidation,
				fmt.Sprintf("line item %d (sku %q): quantity must be positive, got %d", i, item.SKU, item.Quantity),
			))
			continue
		}

		candidates := working[item.ProductID]
		if len(candidates) == 0 {
			result.Unfulfillable = append(result.Unfulfillable, UnfulfillableItem{
				ProductID: item.ProductID,
				SKU:       item.SKU,
				Quantity:  item.Quantity,
			})
			continue
		}

		selected := selectLink(candidates, item.Quantity)
		selected.StockLevel -= item.Quantity
		if selected.StockLevel < 0 {
			selected.StockLevel = 0
		}
		if _, seen := modified[selected.ID]; !seen {
			modified[selected.ID] = selected
			modOrder = append(modOrder, selected.ID)
		}

		idx, ok := poIndex[selected.SupplierID]
		if !ok {
			idx = len(result.Orders)
			poIndex[selected.SupplierID] = idx
			result.Orders = append(result.Orders, PlannedOrder{
				PONumber:   poNumber(order.OrderReference, selected.SupplierID),
				SupplierID: selected.SupplierID,
				Status:     enums.PurchaseOrderStatusPendingApproval,
			})
		}
		result.Orders[idx].Items = append(result.Orders[idx].Items, PlannedItem{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: selected.UnitPrice,
		})
	}

	for _, id := range modOrder {
		result.UpdatedLinks = append(result.UpdatedLinks, *modified[id])
	}

	return result, itemErrs
}

// selectLink returns the first candidate able to cover the quantity, or the
// top-priority candidate when none has enough stock.
func selectLink(candidates []*Link, quantity int) *Link {
	for _, link := range candidates {
		if link.StockLevel >= quantity {
			return link
		}
	}
	return candidates[0]
}

// groupByProduct copies the links into per-product slices sorted by priority
// with link id as the deterministic tiebreak.
func groupByProduct(links []Link) map[string][]*Link {
	grouped := make(map[string][]*Link)
	for _, link := range links {
		copied := link
		grouped[link.ProductID] = append(grouped[link.ProductID], &copied)
	}
	for _, candidates := range grouped {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Priority != candidates[j].Priority {
				return candidates[i].Priority < candidates[j].Priority
			}
			return candidates[i].ID.String() < candidates[j].ID.String()
		})
	}
	return grouped
}

func validateLinks(links []Link) error {
	for i, link := range links {
		if link.ProductID == "" {
			return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("link %d: product id is required", i))
		}
		if link.SupplierID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("link %d: supplier id is required", i))
		}
		if link.StockLevel < 0 {
			return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("link %d: stock level must not be negative", i))
		}
		if link.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("link %d: unit price must not be negative", i))
		}
	}
	return nil
}

func poNumber(orderReference string, supplierID uuid.UUID) string {
	return fmt.Sprintf("PO-%s-%s", orderReference, supplierID.String()[:4])
}
