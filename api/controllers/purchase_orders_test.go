package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cycle3/supplysync-backend/internal/purchaseorders"
	"github.com/cycle3/supplysync-backend/pkg/enums"
	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
	"github.com/cycle3/supplysync-backend/pkg/pagination"
)

type stubPOService struct {
	dto      *purchaseorders.PurchaseOrderDTO
	approved *purchaseorders.PurchaseOrderDTO
	err      error

	approveCalls []string
}

func (s *stubPOService) GetByPONumber(context.Context, string) (*purchaseorders.PurchaseOrderDTO, error) {
	return s.dto, s.err
}

func (s *stubPOService) ListByStatus(context.Context, string, enums.PurchaseOrderStatus, pagination.Params) ([]purchaseorders.PurchaseOrderDTO, string, error) {
	return nil, "", s.err
}

func (s *stubPOService) Approve(_ context.Context, poNumber, approver string) (*purchaseorders.PurchaseOrderDTO, error) {
	s.approveCalls = append(s.approveCalls, poNumber+"/"+approver)
	if s.err != nil {
		return nil, s.err
	}
	return s.approved, nil
}

func TestPurchaseOrderApproveSuccess(t *testing.T) {
	pending := &purchaseorders.PurchaseOrderDTO{
		PONumber: "PO-1001-abcd",
		Shop:     "demo.myshopify.com",
		Status:   enums.PurchaseOrderStatusPendingApproval,
	}
	svc := &stubPOService{dto: pending, approved: &purchaseorders.PurchaseOrderDTO{
		PONumber: "PO-1001-abcd",
		Shop:     "demo.myshopify.com",
		Status:   enums.PurchaseOrderStatusApproved,
	}}
	handler := PurchaseOrderApprove(svc, nil)

	body := []byte(`{"approved_by":"ops@demo.test"}`)
	req := withURLParam(shopRequest(http.MethodPost, "/api/v1/purchase-orders/PO-1001-abcd/approve", body), "poNumber", "PO-1001-abcd")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.approveCalls) != 1 || svc.approveCalls[0] != "PO-1001-abcd/ops@demo.test" {
		t.Fatalf("unexpected approve calls %v", svc.approveCalls)
	}
}

func TestPurchaseOrderApproveStateConflict(t *testing.T) {
	svc := &stubPOService{
		dto: &purchaseorders.PurchaseOrderDTO{
			PONumber: "PO-1001-abcd",
			Shop:     "demo.myshopify.com",
			Status:   enums.PurchaseOrderStatusApproved,
		},
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order is approved, only pending_approval can be approved"),
	}
	handler := PurchaseOrderApprove(svc, nil)

	body := []byte(`{"approved_by":"ops@demo.test"}`)
	req := withURLParam(shopRequest(http.MethodPost, "/api/v1/purchase-orders/PO-1001-abcd/approve", body), "poNumber", "PO-1001-abcd")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestPurchaseOrderGetHidesOtherShops(t *testing.T) {
	svc := &stubPOService{dto: &purchaseorders.PurchaseOrderDTO{
		PONumber: "PO-1001-abcd",
		Shop:     "other.myshopify.com",
	}}
	handler := PurchaseOrderGet(svc, nil)

	req := withURLParam(shopRequest(http.MethodGet, "/api/v1/purchase-orders/PO-1001-abcd", nil), "poNumber", "PO-1001-abcd")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestPurchaseOrderListRejectsUnknownStatus(t *testing.T) {
	handler := PurchaseOrderList(&stubPOService{}, nil)

	req := shopRequest(http.MethodGet, "/api/v1/purchase-orders?status=shipped", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
