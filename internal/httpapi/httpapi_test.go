package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"convpos/terminal/internal/domain"
	journalmem "convpos/terminal/internal/journal/memory"
	"convpos/terminal/internal/service"
	"convpos/terminal/internal/session"
)

type fakeRemote struct {
	orderSeq int
	debits   []float64
	products map[string]domain.Product
}

func (f *fakeRemote) Login(_ context.Context, username, password string) (string, domain.User, error) {
	if password != "secret" {
		return "", domain.User{}, fmt.Errorf("invalid credentials")
	}
	return "tok-fake", domain.User{ID: 42, Username: username, SupplierCode: "V042"}, nil
}

func (f *fakeRemote) CreateOrder(_ context.Context, _ int64, _, _ string) (string, error) {
	f.orderSeq++
	return fmt.Sprintf("ORD-%03d", f.orderSeq), nil
}

func (f *fakeRemote) ScanProduct(_ context.Context, barcode string) (domain.Product, error) {
	p, ok := f.products[barcode]
	if !ok {
		return domain.Product{}, fmt.Errorf("unknown barcode")
	}
	return p, nil
}

func (f *fakeRemote) ParseWalletQR(_ context.Context, qr string) (domain.WalletReference, error) {
	return domain.WalletReference{ReferenceNumber: "REF-" + qr}, nil
}

func (f *fakeRemote) DebitWallet(_ context.Context, _ string, amount float64) error {
	f.debits = append(f.debits, amount)
	return nil
}

func (f *fakeRemote) ListSupplierOrders(_ context.Context) ([]domain.SupplierOrder, error) {
	return nil, nil
}

func (f *fakeRemote) FetchOrderItems(_ context.Context, _ string) ([]domain.OrderLine, error) {
	return nil, nil
}

func (f *fakeRemote) FetchOrderPayments(_ context.Context, _ string) ([]domain.OrderPayment, error) {
	return nil, nil
}

func (f *fakeRemote) ListStores(_ context.Context) ([]domain.Store, error) {
	return []domain.Store{{Code: 901, Name: "Convention Hall"}}, nil
}

type listCatalog []domain.Product

func (l listCatalog) Products(_ context.Context) ([]domain.Product, error) {
	return l, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeRemote) {
	t.Helper()
	remote := &fakeRemote{
		products: map[string]domain.Product{
			"480001": {ID: 1, Description: "Art Print", Price: "100.00", Barcode: "480001"},
		},
	}
	svc, err := service.New(remote, listCatalog(nil), journalmem.New(), session.New(), "T1", "")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	srv := httptest.NewServer(New(svc, "http://127.0.0.1:3000").Handler())
	t.Cleanup(srv.Close)
	return srv, remote
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func login(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, payload := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "vendor01", "password": "secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body %v", resp.StatusCode, payload)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, payload := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK || payload["ok"] != true {
		t.Fatalf("status = %d, body %v", resp.StatusCode, payload)
	}
}

func TestUnauthenticatedCartViewRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodGet, "/api/v1/cart", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestFullCheckoutOverHTTP(t *testing.T) {
	srv, remote := newTestServer(t)
	login(t, srv)

	resp, payload := doJSON(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{"carded": false})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start order status = %d, body %v", resp.StatusCode, payload)
	}
	orderNo, _ := payload["order_no"].(string)
	if orderNo == "" {
		t.Fatalf("order_no missing: %v", payload)
	}

	resp, payload = doJSON(t, srv, http.MethodPost, "/api/v1/cart/scan", map[string]string{"barcode": "480001"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan status = %d, body %v", resp.StatusCode, payload)
	}

	// change preview while the cashier types
	resp, payload = doJSON(t, srv, http.MethodPost, "/api/v1/payments/change", map[string]string{
		"amount": "60.00", "cash_tendered": "100.00",
	})
	if resp.StatusCode != http.StatusOK || payload["change"] != float64(40) {
		t.Fatalf("change preview = %v (status %d), want 40", payload["change"], resp.StatusCode)
	}

	resp, payload = doJSON(t, srv, http.MethodPost, "/api/v1/payments", map[string]string{
		"type": "CASH", "amount": "60.00", "cash_tendered": "100.00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("cash payment status = %d, body %v", resp.StatusCode, payload)
	}

	resp, payload = doJSON(t, srv, http.MethodPost, "/api/v1/payments", map[string]string{
		"type": "PWALLET", "amount": "40.00", "reference_no": "W-1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("wallet payment status = %d, body %v", resp.StatusCode, payload)
	}
	if len(remote.debits) != 1 || remote.debits[0] != 40 {
		t.Fatalf("debits = %v, want [40]", remote.debits)
	}

	resp, payload = doJSON(t, srv, http.MethodPost, "/api/v1/checkout/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d, body %v", resp.StatusCode, payload)
	}
	if payload["order_no"] != orderNo || payload["total"] != float64(100) {
		t.Fatalf("summary = %v", payload)
	}

	resp, payload = doJSON(t, srv, http.MethodGet, "/api/v1/journal", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("journal status = %d", resp.StatusCode)
	}
	entries, _ := payload["entries"].([]any)
	if len(entries) != 5 {
		t.Fatalf("journal entries = %d, want 5", len(entries))
	}
}

func TestPaymentValidationSurfacesMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv)
	doJSON(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{"carded": false})
	doJSON(t, srv, http.MethodPost, "/api/v1/cart/scan", map[string]string{"barcode": "480001"})

	resp, payload := doJSON(t, srv, http.MethodPost, "/api/v1/payments", map[string]string{
		"type": "GCASH", "amount": "50.00",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if payload["error"] != "reference number is required" {
		t.Fatalf("error = %v", payload["error"])
	}
}

func TestUnknownPaymentMethodRejected(t *testing.T) {
	srv, remote := newTestServer(t)
	login(t, srv)
	doJSON(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{"carded": false})
	doJSON(t, srv, http.MethodPost, "/api/v1/cart/scan", map[string]string{"barcode": "480001"})

	resp, payload := doJSON(t, srv, http.MethodPost, "/api/v1/payments", map[string]string{
		"type": "VISA", "amount": "10.00",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %v)", resp.StatusCode, payload)
	}
	if payload["error"] != "unknown payment method" {
		t.Fatalf("error = %v", payload["error"])
	}
	if len(remote.debits) != 0 {
		t.Fatalf("debits = %v, want none", remote.debits)
	}
	_, view := doJSON(t, srv, http.MethodGet, "/api/v1/cart", nil)
	if payments, _ := view["payments"].([]any); len(payments) != 0 {
		t.Fatalf("payments = %v, want none committed", payments)
	}
}

func TestLogoutRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/v1/auth/logout", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated logout status = %d, want 401", resp.StatusCode)
	}

	login(t, srv)
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/v1/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}
	resp, _ = doJSON(t, srv, http.MethodGet, "/api/v1/cart", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("cart after logout status = %d, want 401", resp.StatusCode)
	}
}

func TestCartMutationConflictAfterPayment(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv)
	doJSON(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{"carded": false})
	doJSON(t, srv, http.MethodPost, "/api/v1/cart/scan", map[string]string{"barcode": "480001"})
	doJSON(t, srv, http.MethodPost, "/api/v1/payments", map[string]string{
		"type": "CASH", "amount": "50.00", "cash_tendered": "50.00",
	})

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/v1/cart/clear", map[string]any{"confirm": true})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("clear after payment status = %d, want 409", resp.StatusCode)
	}
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/v1/orders/current/cancel", map[string]any{"confirm": true})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("cancel after payment status = %d, want 409", resp.StatusCode)
	}
}

func TestQuantityPatchAndRemove(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv)
	doJSON(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{"carded": false})
	doJSON(t, srv, http.MethodPost, "/api/v1/cart/scan", map[string]string{"barcode": "480001"})

	resp, _ := doJSON(t, srv, http.MethodPatch, "/api/v1/cart/items/480001", map[string]any{"quantity": 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	_, view := doJSON(t, srv, http.MethodGet, "/api/v1/cart", nil)
	if view["subtotal"] != float64(300) {
		t.Fatalf("subtotal = %v, want 300", view["subtotal"])
	}

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/v1/cart/items/480001/remove", map[string]any{"confirm": false})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("unconfirmed remove status = %d, want 409", resp.StatusCode)
	}
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/v1/cart/items/480001/remove", map[string]any{"confirm": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed remove status = %d", resp.StatusCode)
	}
}

func TestLoginRateLimited(t *testing.T) {
	srv, _ := newTestServer(t)
	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "vendor01", "password": "wrong",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i, resp.StatusCode)
		}
	}
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "vendor01", "password": "wrong",
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv)
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{
		"carded": false, "surprise": true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodDelete, "/api/v1/cart", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
