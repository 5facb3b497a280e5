package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salesdesk/backend/internal/displayid"
	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/service"
	"salesdesk/backend/internal/store/memory"
)

// newTestAPI builds a full API over an in-memory store with a real
// AuthManager and Service, so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	svc := service.New(repo, displayid.New(repo), nil, 0)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	auth := NewAuthManager("test-secret-key", time.Hour, "admin", "admin123")

	return New(svc, auth, "*")
}

func loginToken(t *testing.T, handler http.Handler) string {
	t.Helper()

	payload, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "admin123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func doJSON(t *testing.T, handler http.Handler, token string, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestRequiresBearerToken(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, "", http.MethodGet, "/api/v1/clients", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, handler, "not-a-real-token", http.MethodGet, "/api/v1/clients", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a bogus token, got %d", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	handler := newTestAPI(t).Handler()

	payload, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrong"})
	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", last)
	}
}

func TestClientLifecycle(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/clients", domain.ClientCreateRequest{
		Name:  "Ada Lovelace",
		Phone: "555-0100",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Client domain.Client `json:"client"`
	}
	decodeBody(t, rec, &created)
	if created.Client.ID == "" || created.Client.DisplayID == 0 {
		t.Fatalf("expected id and display id to be assigned, got %+v", created.Client)
	}

	newName := "Ada L."
	rec = doJSON(t, handler, token, http.MethodPut, "/api/v1/clients/"+created.Client.ID, domain.ClientUpdateRequest{
		Name: &newName,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var updated struct {
		Client domain.Client `json:"client"`
	}
	decodeBody(t, rec, &updated)
	if updated.Client.Name != "Ada L." {
		t.Fatalf("expected renamed client, got %q", updated.Client.Name)
	}

	rec = doJSON(t, handler, token, http.MethodDelete, "/api/v1/clients/"+created.Client.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, handler, token, http.MethodDelete, "/api/v1/clients/"+created.Client.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a deleted client, got %d", rec.Code)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/clients", map[string]any{
		"name":     "Typo Co",
		"nickname": "unexpected",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestInsufficientStockConflict(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/clients", domain.ClientCreateRequest{Name: "Buyer"})
	var client struct {
		Client domain.Client `json:"client"`
	}
	decodeBody(t, rec, &client)

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/products", domain.ProductCreateRequest{
		Name:        "House Blend",
		Type:        domain.ProductTypeGrams,
		Stock:       3,
		CostPerUnit: 10,
		Tiers:       []domain.ProductTier{{SizeLabel: "1g", Quantity: 1, Price: 40}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var product struct {
		Product domain.Product `json:"product"`
	}
	decodeBody(t, rec, &product)

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/orders", domain.OrderCreateRequest{
		ClientID: client.Client.ID,
		Date:     "2026-08-28",
		Items: []domain.OrderItem{
			{ProductID: product.Product.ID, Quantity: 10, Price: 400},
		},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for oversold order, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["available"] != float64(3) {
		t.Fatalf("expected available quantity 3 in payload, got %v", body["available"])
	}
}

func TestRecordPaymentOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/clients", domain.ClientCreateRequest{Name: "Buyer"})
	var client struct {
		Client domain.Client `json:"client"`
	}
	decodeBody(t, rec, &client)

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/products", domain.ProductCreateRequest{
		Name:        "Cold Brew",
		Type:        domain.ProductTypeUnit,
		Stock:       20,
		CostPerUnit: 2,
		Tiers:       []domain.ProductTier{{SizeLabel: "1 unit", Quantity: 1, Price: 5}},
	})
	var product struct {
		Product domain.Product `json:"product"`
	}
	decodeBody(t, rec, &product)

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/orders", domain.OrderCreateRequest{
		ClientID: client.Client.ID,
		Date:     "2026-08-28",
		Items: []domain.OrderItem{
			{ProductID: product.Product.ID, Quantity: 10, Price: 50},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var order struct {
		Order domain.Order `json:"order"`
	}
	decodeBody(t, rec, &order)
	if order.Order.Status != domain.OrderStatusUnpaid {
		t.Fatalf("expected unpaid order, got %q", order.Order.Status)
	}

	rec = doJSON(t, handler, token, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/payments", order.Order.ID), domain.RecordPaymentRequest{
		Method: "cash",
		Amount: 50,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("record payment: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &order)
	if order.Order.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected completed order after full payment, got %q", order.Order.Status)
	}
}

func TestImportRequiresAllCollections(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/import", map[string]any{
		"clients":  []domain.Client{},
		"products": []domain.Product{},
		"orders":   []domain.Order{},
		// expenses and logs missing
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for partial import document, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/import", map[string]any{
		"clients":  []domain.Client{},
		"products": []domain.Product{},
		"orders":   []domain.Order{},
		"expenses": []domain.Expense{},
		"logs":     []domain.LogEntry{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for complete import document, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestExportRoundTripsThroughImport(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	doJSON(t, handler, token, http.MethodPost, "/api/v1/clients", domain.ClientCreateRequest{Name: "Keeper"})

	rec := doJSON(t, handler, token, http.MethodGet, "/api/v1/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	var bundle domain.ExportBundle
	decodeBody(t, rec, &bundle)
	if len(bundle.Clients) != 1 {
		t.Fatalf("expected 1 exported client, got %d", len(bundle.Clients))
	}

	rec = doJSON(t, handler, token, http.MethodDelete, "/api/v1/data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("wipe: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/import", bundle)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/clients", nil)
	var listed struct {
		Clients []domain.Client `json:"clients"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Clients) != 1 || listed.Clients[0].Name != "Keeper" {
		t.Fatalf("expected the imported client back, got %+v", listed.Clients)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPatch, "/api/v1/clients", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	handler := newTestAPI(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/clients", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestDashboardReport(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodGet, "/api/v1/reports/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Stats domain.DashboardStats `json:"stats"`
	}
	decodeBody(t, rec, &body)
}
