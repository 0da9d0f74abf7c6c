package shopify

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cycle3/supplysync-backend/internal/planner"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
)

// OrderCreatedPayload mirrors the fields of the platform's orders/create
// webhook body that planning needs.
type OrderCreatedPayload struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	OrderNumber int64             `json:"order_number"`
	LineItems   []LineItemPayload `json:"line_items"`
}

// LineItemPayload is one purchased line in the webhook body. ProductID may
// be null when the line references a deleted product.
type LineItemPayload struct {
	ProductID *int64 `json:"product_id"`
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
}

// ParseOrderCreated decodes an orders/create webhook body into the planner's
// input shape. Line items without a product reference are kept so the
// planner can report them as unfulfillable rather than silently dropping
// them.
func ParseOrderCreated(body []byte) (planner.Order, error) {
	var payload OrderCreatedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return planner.Order{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode order webhook body")
	}

	reference := strings.TrimPrefix(strings.TrimSpace(payload.Name), "#")
	if reference == "" && payload.OrderNumber > 0 {
		reference = strconv.FormatInt(payload.OrderNumber, 10)
	}
	if reference == "" {
		return planner.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order webhook has no order reference")
	}

	order := planner.Order{OrderReference: reference}
	for _, item := range payload.LineItems {
		productID := ""
		if item.ProductID != nil {
			productID = strconv.FormatInt(*item.ProductID, 10)
		}
		order.LineItems = append(order.LineItems, planner.LineItem{
			ProductID: productID,
			SKU:       item.SKU,
			Title:     item.Title,
			Quantity:  item.Quantity,
		})
	}
	return order, nil
}
