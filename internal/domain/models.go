package domain

import (
	"strconv"
	"time"
)

// Tender types accepted at the terminal. PWALLET settles through a
// synchronous wallet debit, GCASH is recorded against a scanned reference,
// CASH is tendered physically with change computed on the spot.
const (
	TenderPwallet = "PWALLET"
	TenderGcash   = "GCASH"
	TenderCash    = "CASH"
)

// Order statuses as the remote backend reports them.
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Product is a catalog item as the remote backend describes it. Price is a
// decimal string on the wire and is parsed when the product enters a cart.
type Product struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Price       string `json:"price"`
	SKU         string `json:"sku,omitempty"`
	Barcode     string `json:"barcode,omitempty"`
}

// Identity returns the key used to fold repeated adds into one cart line.
// Barcode wins when present so scanned and browsed adds of the same product
// land on the same line.
func (p Product) Identity() string {
	if p.Barcode != "" {
		return p.Barcode
	}
	return "id:" + strconv.FormatInt(p.ID, 10)
}

// LineItem is one cart line. UnitPrice is the parsed Product.Price, fixed at
// the moment the product first enters the cart.
type LineItem struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (li LineItem) LineTotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// PaymentDraft carries raw cashier input for one tender leg. Money fields are
// text exactly as typed; validation parses and rejects them.
type PaymentDraft struct {
	Type            string `json:"type"`
	Amount          string `json:"amount"`
	ReferenceNumber string `json:"reference_no,omitempty"`
	CashTendered    string `json:"cash_tendered,omitempty"`
}

// PaymentEntry is a committed tender leg in the ledger.
type PaymentEntry struct {
	Type            string  `json:"type"`
	Amount          float64 `json:"amount"`
	ReferenceNumber string  `json:"reference_no,omitempty"`
	CashTendered    float64 `json:"cash_tendered,omitempty"`
	CashChange      float64 `json:"cash_change,omitempty"`
}

// User is the authenticated supplier account operating the terminal.
type User struct {
	ID           int64  `json:"id"`
	Fullname     string `json:"fullname"`
	SupplierCode string `json:"supplier_code"`
	SupplierName string `json:"supplier_name"`
	Username     string `json:"username"`
	Department   string `json:"department,omitempty"`
	Role         string `json:"role,omitempty"`
}

// WalletReference is the result of parsing a payment QR code.
type WalletReference struct {
	ReferenceNumber string `json:"reference_no"`
	WalletNumber    string `json:"pwallet_number,omitempty"`
}

// Store is a physical location offered on the login screen.
type Store struct {
	Code int64  `json:"store_code"`
	Name string `json:"store_name"`
}

// SupplierOrder is one row of the transaction history feed.
type SupplierOrder struct {
	OrderNo        string    `json:"order_no"`
	Status         string    `json:"order_status"`
	Total          float64   `json:"total"`
	ItemCount      int       `json:"item_count"`
	CustomerCardNo string    `json:"customer_card_no,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderLine is one sold item inside a historical order.
type OrderLine struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// OrderPayment is one tender leg of a historical order.
type OrderPayment struct {
	Type            string  `json:"type"`
	Amount          float64 `json:"amount"`
	ReferenceNumber string  `json:"reference_no,omitempty"`
}

// TopItem is a dashboard row: units sold per product description.
type TopItem struct {
	Description string `json:"description"`
	Units       int    `json:"units"`
}

// SalesDashboard aggregates the supplier order feed for the home screen.
type SalesDashboard struct {
	TodaySales      float64            `json:"today_sales"`
	ConventionSales float64            `json:"convention_sales"`
	OrderCount      int                `json:"order_count"`
	TopItems        []TopItem          `json:"top_items"`
	ByPayment       map[string]float64 `json:"by_payment"`
	ByStatus        map[string]int     `json:"by_status"`
}

// CompletedTransaction is the summary returned when a checkout completes.
type CompletedTransaction struct {
	OrderNo        string         `json:"order_no"`
	Carded         bool           `json:"carded"`
	CustomerCardNo string         `json:"customer_card_no,omitempty"`
	Total          float64        `json:"total"`
	ItemCount      int            `json:"item_count"`
	Payments       []PaymentEntry `json:"payments"`
	CompletedAt    time.Time      `json:"completed_at"`
}

// LoginRequest is the terminal login payload, proxied to the backend.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is what the terminal returns on a successful login.
type LoginResponse struct {
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}
