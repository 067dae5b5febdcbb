// Package backend is the HTTP client for the remote order and payment
// service. Responses arrive wrapped in a {"data": ...} envelope; errors as
// {"error": "..."} with a meaningful status code.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"convpos/terminal/internal/domain"
	"convpos/terminal/internal/session"
	"convpos/terminal/internal/xid"
)

// DefaultTimeout bounds every backend round trip.
const DefaultTimeout = 15 * time.Second

var (
	// ErrSessionExpired means the backend rejected our token. The local
	// session is cleared before this is returned.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrNotFound maps a backend 404, e.g. an unknown barcode.
	ErrNotFound = errors.New("not found")

	// ErrDebitDeclined means the wallet debit completed the round trip but
	// the backend did not report success.
	ErrDebitDeclined = errors.New("wallet debit was declined")
)

type Client struct {
	http      *http.Client
	baseURL   string
	session   *session.Session
	storeCode int64
}

func New(baseURL string, timeout time.Duration, sess *session.Session, storeCode int64) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: &authTransport{base: http.DefaultTransport, session: sess},
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		session:   sess,
		storeCode: storeCode,
	}
}

// authTransport attaches the bearer token and a request id to every call.
type authTransport struct {
	base    http.RoundTripper
	session *session.Session
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", xid.New("req"))
	return t.base.RoundTrip(req)
}

type loginPayload struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login authenticates against the backend, returning the bearer token and
// the user it belongs to. The caller decides what to do with them.
func (c *Client) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	var out loginPayload
	err := c.do(ctx, http.MethodPost, "/supplier/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return "", domain.User{}, err
	}
	return out.Token, out.User, nil
}

// CreateOrder opens a new supplier order, optionally bound to a customer
// card, and returns the backend-assigned order number.
func (c *Client) CreateOrder(ctx context.Context, userID int64, vendorCode, customerCardNo string) (string, error) {
	body := map[string]any{
		"user_id":     userID,
		"vendor_code": vendorCode,
	}
	if customerCardNo != "" {
		body["customer_card_no"] = customerCardNo
	}
	var out struct {
		OrderNo string `json:"order_no"`
	}
	if err := c.do(ctx, http.MethodPost, "/supplier/new-order", body, &out); err != nil {
		return "", err
	}
	return out.OrderNo, nil
}

// ScanProduct resolves a barcode. An unknown barcode surfaces as ErrNotFound
// so the terminal can tell "no such product" from transport failures.
func (c *Client) ScanProduct(ctx context.Context, barcode string) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodPost, "/product/scan", map[string]string{"barcode": barcode}, &out)
	return out, err
}

// ListProducts fetches the browse catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/product/list", nil, &out)
	return out, err
}

// ParseWalletQR exchanges a scanned QR payload for a payment reference.
func (c *Client) ParseWalletQR(ctx context.Context, qrCode string) (domain.WalletReference, error) {
	var out domain.WalletReference
	err := c.do(ctx, http.MethodPost, "/payment/pwallet/parse-qr", map[string]string{"qr_code": qrCode}, &out)
	return out, err
}

// DebitWallet settles a wallet payment. Anything other than an explicit
// success status is a failure; the caller must not record the payment.
func (c *Client) DebitWallet(ctx context.Context, referenceNo string, amount float64) error {
	var out struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodPost, "/payment/pwallet/debit", map[string]any{
		"reference_no": referenceNo,
		"amount":       amount,
		"store_code":   c.storeCode,
	}, &out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(out.Status, "success") {
		return fmt.Errorf("%w: status %q", ErrDebitDeclined, out.Status)
	}
	return nil
}

// ListSupplierOrders fetches the transaction history feed.
func (c *Client) ListSupplierOrders(ctx context.Context) ([]domain.SupplierOrder, error) {
	var out []domain.SupplierOrder
	err := c.do(ctx, http.MethodGet, "/supplier/orders", nil, &out)
	return out, err
}

// FetchOrderItems lists the sold lines of one historical order.
func (c *Client) FetchOrderItems(ctx context.Context, orderNo string) ([]domain.OrderLine, error) {
	var out []domain.OrderLine
	err := c.do(ctx, http.MethodGet, "/supplier/orders/"+orderNo+"/items", nil, &out)
	return out, err
}

// FetchOrderPayments lists the tender legs of one historical order.
func (c *Client) FetchOrderPayments(ctx context.Context, orderNo string) ([]domain.OrderPayment, error) {
	var out []domain.OrderPayment
	err := c.do(ctx, http.MethodGet, "/supplier/orders/"+orderNo+"/payments", nil, &out)
	return out, err
}

// ListStores fetches the store list shown on the login screen.
func (c *Client) ListStores(ctx context.Context) ([]domain.Store, error) {
	var out []domain.Store
	err := c.do(ctx, http.MethodGet, "/storeList", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.session.Clear()
		return ErrSessionExpired
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: %s", method, path, remoteError(resp))
	}

	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func remoteError(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return fmt.Sprintf("backend said %q (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}
