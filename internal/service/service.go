// Package service wires the checkout state machine to the remote backend,
// the catalog, the session and the electronic journal, and exposes the
// operations the HTTP layer serves.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"convpos/terminal/internal/checkout"
	"convpos/terminal/internal/domain"
	"convpos/terminal/internal/journal"
	"convpos/terminal/internal/session"
	"convpos/terminal/internal/xid"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrSupervisorPINInvalid = errors.New("invalid supervisor pin")
	ErrEmptyBarcode         = errors.New("barcode is required")
)

// Remote is the slice of the backend client the service depends on.
type Remote interface {
	Login(ctx context.Context, username, password string) (string, domain.User, error)
	CreateOrder(ctx context.Context, userID int64, vendorCode, customerCardNo string) (string, error)
	ScanProduct(ctx context.Context, barcode string) (domain.Product, error)
	ParseWalletQR(ctx context.Context, qrCode string) (domain.WalletReference, error)
	DebitWallet(ctx context.Context, referenceNo string, amount float64) error
	ListSupplierOrders(ctx context.Context) ([]domain.SupplierOrder, error)
	FetchOrderItems(ctx context.Context, orderNo string) ([]domain.OrderLine, error)
	FetchOrderPayments(ctx context.Context, orderNo string) ([]domain.OrderPayment, error)
	ListStores(ctx context.Context) ([]domain.Store, error)
}

// Catalog serves the browse product list.
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

type Service struct {
	remote     Remote
	catalog    Catalog
	journal    journal.Journal
	session    *session.Session
	checkout   *checkout.Session
	terminalID string
	pinHash    []byte
}

// New builds the service. A non-empty supervisorPIN arms the PIN check on
// destructive confirmations; only a bcrypt hash of the PIN is kept.
func New(remote Remote, cat Catalog, jr journal.Journal, sess *session.Session, terminalID, supervisorPIN string) (*Service, error) {
	s := &Service{
		remote:     remote,
		catalog:    cat,
		journal:    jr,
		session:    sess,
		terminalID: terminalID,
	}
	if supervisorPIN != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(supervisorPIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash supervisor pin: %w", err)
		}
		s.pinHash = hash
	}
	s.checkout = checkout.NewSession(remoteOrders{s}, remoteWallet{s})
	return s, nil
}

// remoteOrders binds the open-order call to the logged-in user.
type remoteOrders struct{ svc *Service }

func (r remoteOrders) CreateOrder(ctx context.Context, customerCardNo string) (string, error) {
	user, ok := r.svc.session.User()
	if !ok {
		return "", ErrNotAuthenticated
	}
	return r.svc.remote.CreateOrder(ctx, user.ID, user.SupplierCode, customerCardNo)
}

type remoteWallet struct{ svc *Service }

func (r remoteWallet) DebitWallet(ctx context.Context, referenceNo string, amount float64) error {
	return r.svc.remote.DebitWallet(ctx, referenceNo, amount)
}

// Login proxies the credential check to the backend and establishes the
// local session from the issued token.
func (s *Service) Login(ctx context.Context, username, password string) (domain.LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}
	token, user, err := s.remote.Login(ctx, username, password)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	s.session.Establish(token, user)
	return domain.LoginResponse{User: user, ExpiresAt: s.session.ExpiresAt()}, nil
}

// Logout drops the terminal session. Only the logged-in cashier may do it;
// the session is shared terminal state, not per caller.
func (s *Service) Logout() error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	s.session.Clear()
	return nil
}

func (s *Service) Stores(ctx context.Context) ([]domain.Store, error) {
	return s.remote.ListStores(ctx)
}

func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.catalog.Products(ctx)
}

type StartOrderRequest struct {
	Carded         bool   `json:"carded"`
	CustomerCardNo string `json:"customer_card_no,omitempty"`
	Confirm        bool   `json:"confirm,omitempty"`
	SupervisorPIN  string `json:"supervisor_pin,omitempty"`
}

// StartOrder opens a new order. Starting over an already open order is
// destructive and goes through the confirmation and PIN gate.
func (s *Service) StartOrder(ctx context.Context, req StartOrderRequest) (string, error) {
	if err := s.requireAuth(); err != nil {
		return "", err
	}
	if req.Confirm {
		if err := s.checkPIN(req.SupervisorPIN); err != nil {
			return "", err
		}
	}
	orderNo, err := s.checkout.Start(ctx, req.Carded, req.CustomerCardNo, req.Confirm)
	if err != nil {
		return "", err
	}
	s.record(ctx, orderNo, journal.EventOrderStarted, fmt.Sprintf("carded=%t", req.Carded))
	return orderNo, nil
}

// CancelOrder abandons the open order; destructive, so confirmation and
// PIN apply.
func (s *Service) CancelOrder(ctx context.Context, confirm bool, supervisorPIN string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if confirm {
		if err := s.checkPIN(supervisorPIN); err != nil {
			return err
		}
	}
	orderNo, err := s.checkout.Cancel(confirm)
	if err != nil {
		return err
	}
	s.record(ctx, orderNo, journal.EventOrderCancelled, "")
	return nil
}

// ScanItem resolves a barcode on the backend and folds the product into
// the cart.
func (s *Service) ScanItem(ctx context.Context, barcode string) (domain.LineItem, error) {
	if err := s.requireAuth(); err != nil {
		return domain.LineItem{}, err
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.LineItem{}, ErrEmptyBarcode
	}
	product, err := s.remote.ScanProduct(ctx, barcode)
	if err != nil {
		return domain.LineItem{}, err
	}
	line, err := s.checkout.AddItem(product)
	if err != nil {
		return domain.LineItem{}, err
	}
	s.record(ctx, s.currentOrderNo(), journal.EventItemAdded, fmt.Sprintf("%s x%d", product.Description, line.Quantity))
	return line, nil
}

// AddProduct is the browse-and-tap path: the product comes from the cached
// catalog list, no scan round trip.
func (s *Service) AddProduct(ctx context.Context, product domain.Product) (domain.LineItem, error) {
	if err := s.requireAuth(); err != nil {
		return domain.LineItem{}, err
	}
	line, err := s.checkout.AddItem(product)
	if err != nil {
		return domain.LineItem{}, err
	}
	s.record(ctx, s.currentOrderNo(), journal.EventItemAdded, fmt.Sprintf("%s x%d", product.Description, line.Quantity))
	return line, nil
}

func (s *Service) SetQuantity(ctx context.Context, identity string, qty int, confirm bool) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if err := s.checkout.SetQuantity(identity, qty, confirm); err != nil {
		return err
	}
	event := journal.EventQuantityChanged
	if qty < 1 {
		event = journal.EventItemRemoved
	}
	s.record(ctx, s.currentOrderNo(), event, fmt.Sprintf("%s qty=%d", identity, qty))
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, identity string, confirm bool) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if err := s.checkout.RemoveItem(identity, confirm); err != nil {
		return err
	}
	s.record(ctx, s.currentOrderNo(), journal.EventItemRemoved, identity)
	return nil
}

// ClearCart empties the cart; destructive, so confirmation and PIN apply.
func (s *Service) ClearCart(ctx context.Context, confirm bool, supervisorPIN string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	if confirm {
		if err := s.checkPIN(supervisorPIN); err != nil {
			return err
		}
	}
	if err := s.checkout.ClearCart(confirm); err != nil {
		return err
	}
	s.record(ctx, s.currentOrderNo(), journal.EventCartCleared, "")
	return nil
}

func (s *Service) CartView() (checkout.View, error) {
	if err := s.requireAuth(); err != nil {
		return checkout.View{}, err
	}
	return s.checkout.Snapshot()
}

// ParsePaymentQR exchanges a scanned QR payload for a wallet reference.
// This is the only way a reference number enters a payment draft.
func (s *Service) ParsePaymentQR(ctx context.Context, qrCode string) (domain.WalletReference, error) {
	if err := s.requireAuth(); err != nil {
		return domain.WalletReference{}, err
	}
	return s.remote.ParseWalletQR(ctx, qrCode)
}

// ComputeChange is the live cash-change preview.
func (s *Service) ComputeChange(amountText, cashText string) float64 {
	return checkout.ComputeChange(amountText, cashText)
}

func (s *Service) AddPayment(ctx context.Context, draft domain.PaymentDraft) (domain.PaymentEntry, error) {
	if err := s.requireAuth(); err != nil {
		return domain.PaymentEntry{}, err
	}
	entry, err := s.checkout.AddPayment(ctx, draft)
	if err != nil {
		return domain.PaymentEntry{}, err
	}
	s.record(ctx, s.currentOrderNo(), journal.EventPaymentAdded,
		fmt.Sprintf("%s %s", entry.Type, checkout.FormatAmount(entry.Amount)))
	return entry, nil
}

func (s *Service) CompleteTransaction(ctx context.Context) (domain.CompletedTransaction, error) {
	if err := s.requireAuth(); err != nil {
		return domain.CompletedTransaction{}, err
	}
	tx, err := s.checkout.Complete()
	if err != nil {
		return domain.CompletedTransaction{}, err
	}
	s.record(ctx, tx.OrderNo, journal.EventCompleted,
		fmt.Sprintf("total=%s legs=%d", checkout.FormatAmount(tx.Total), len(tx.Payments)))
	return tx, nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]domain.SupplierOrder, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.remote.ListSupplierOrders(ctx)
}

func (s *Service) OrderItems(ctx context.Context, orderNo string) ([]domain.OrderLine, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.remote.FetchOrderItems(ctx, orderNo)
}

func (s *Service) OrderPayments(ctx context.Context, orderNo string) ([]domain.OrderPayment, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.remote.FetchOrderPayments(ctx, orderNo)
}

// dashboardDrillLimit bounds how many recent completed orders are expanded
// into items and payment legs for the breakdowns.
const dashboardDrillLimit = 20

// SalesDashboard aggregates the supplier order feed: totals, top items and
// breakdowns by payment type and order status.
func (s *Service) SalesDashboard(ctx context.Context) (domain.SalesDashboard, error) {
	if err := s.requireAuth(); err != nil {
		return domain.SalesDashboard{}, err
	}
	orders, err := s.remote.ListSupplierOrders(ctx)
	if err != nil {
		return domain.SalesDashboard{}, err
	}

	dash := domain.SalesDashboard{
		ByPayment: make(map[string]float64),
		ByStatus:  make(map[string]int),
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var completed []domain.SupplierOrder
	for _, o := range orders {
		dash.ByStatus[o.Status]++
		if o.Status != domain.OrderStatusCompleted {
			continue
		}
		dash.OrderCount++
		dash.ConventionSales += o.Total
		if !o.CreatedAt.UTC().Before(today) {
			dash.TodaySales += o.Total
		}
		completed = append(completed, o)
	}

	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CreatedAt.After(completed[j].CreatedAt)
	})
	if len(completed) > dashboardDrillLimit {
		completed = completed[:dashboardDrillLimit]
	}

	units := make(map[string]int)
	for _, o := range completed {
		lines, err := s.remote.FetchOrderItems(ctx, o.OrderNo)
		if err != nil {
			log.Printf("[service] WARN: dashboard items for %s: %v", o.OrderNo, err)
			continue
		}
		for _, line := range lines {
			units[line.Description] += line.Quantity
		}
		payments, err := s.remote.FetchOrderPayments(ctx, o.OrderNo)
		if err != nil {
			log.Printf("[service] WARN: dashboard payments for %s: %v", o.OrderNo, err)
			continue
		}
		for _, p := range payments {
			dash.ByPayment[p.Type] += p.Amount
		}
	}

	for desc, n := range units {
		dash.TopItems = append(dash.TopItems, domain.TopItem{Description: desc, Units: n})
	}
	sort.Slice(dash.TopItems, func(i, j int) bool {
		if dash.TopItems[i].Units != dash.TopItems[j].Units {
			return dash.TopItems[i].Units > dash.TopItems[j].Units
		}
		return dash.TopItems[i].Description < dash.TopItems[j].Description
	})
	if len(dash.TopItems) > 5 {
		dash.TopItems = dash.TopItems[:5]
	}

	return dash, nil
}

// JournalEntries lists the most recent electronic journal entries.
func (s *Service) JournalEntries(ctx context.Context, limit int) ([]journal.Entry, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.journal.ListRecent(ctx, limit)
}

func (s *Service) requireAuth() error {
	if !s.session.Authenticated(time.Now()) {
		return ErrNotAuthenticated
	}
	return nil
}

// checkPIN gates confirmed destructive actions. With no PIN configured the
// plain confirmation flag is enough.
func (s *Service) checkPIN(pin string) error {
	if len(s.pinHash) == 0 {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(s.pinHash, []byte(pin)); err != nil {
		return ErrSupervisorPINInvalid
	}
	return nil
}

func (s *Service) currentOrderNo() string {
	view, err := s.checkout.Snapshot()
	if err != nil {
		return ""
	}
	return view.OrderNo
}

// record appends to the electronic journal. Journal failures are logged,
// never surfaced; the sale must not stall on the audit trail.
func (s *Service) record(ctx context.Context, orderNo, event, detail string) {
	entry := journal.Entry{
		ID:         xid.New("jrn"),
		TerminalID: s.terminalID,
		OrderNo:    orderNo,
		Event:      event,
		Detail:     detail,
		At:         time.Now().UTC(),
	}
	if err := s.journal.Append(ctx, entry); err != nil {
		log.Printf("[service] WARN: journal append %s: %v", event, err)
	}
}
