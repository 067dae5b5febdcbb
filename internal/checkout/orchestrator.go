package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"convpos/terminal/internal/domain"
)

// Session states as reported by Snapshot.
const (
	StateNoOrder       = "NO_ORDER"
	StateOrderEmpty    = "ORDER_OPEN_EMPTY"
	StateOrderItems    = "ORDER_OPEN_WITH_ITEMS"
	StatePartiallyPaid = "ORDER_PARTIALLY_PAID"
	StateFullyPaid     = "ORDER_FULLY_PAID"
)

// OrderStarter opens an order on the remote backend and returns its number.
type OrderStarter interface {
	CreateOrder(ctx context.Context, customerCardNo string) (string, error)
}

// WalletDebitor settles a wallet payment synchronously. A nil error means
// the funds moved; anything else aborts the commit.
type WalletDebitor interface {
	DebitWallet(ctx context.Context, referenceNo string, amount float64) error
}

// Session is the per-terminal checkout state machine. One cashier, one open
// order at a time. All methods are safe for concurrent callers; a single
// busy flag covers the span of every network call, so a second mutating
// request while one is in flight fails fast with ErrBusy instead of
// interleaving.
type Session struct {
	orders OrderStarter
	wallet WalletDebitor

	mu             chan struct{} // held across network calls, acts as the busy flag
	cart           *Cart
	ledger         *Ledger
	orderNo        string
	carded         bool
	customerCardNo string
}

// View is a point-in-time snapshot of the session for rendering.
type View struct {
	State          string                `json:"state"`
	OrderNo        string                `json:"order_no,omitempty"`
	Carded         bool                  `json:"carded"`
	CustomerCardNo string                `json:"customer_card_no,omitempty"`
	Items          []domain.LineItem     `json:"items"`
	Subtotal       float64               `json:"subtotal"`
	Payments       []domain.PaymentEntry `json:"payments"`
	TotalPaid      float64               `json:"total_paid"`
	Remaining      float64               `json:"remaining"`
}

func NewSession(orders OrderStarter, wallet WalletDebitor) *Session {
	s := &Session{
		orders: orders,
		wallet: wallet,
		mu:     make(chan struct{}, 1),
		cart:   NewCart(),
		ledger: NewLedger(),
	}
	return s
}

// acquire takes the session lock without blocking. Callers that lose the
// race get ErrBusy; the cashier retries once the in-flight call finishes.
func (s *Session) acquire() error {
	select {
	case s.mu <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

func (s *Session) release() {
	<-s.mu
}

// Start opens a new order. Over an already open order it requires an
// explicit confirmation and discards the cart; once any payment has been
// committed the open order can no longer be discarded.
func (s *Session) Start(ctx context.Context, carded bool, customerCardNo string, confirmed bool) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	if s.orderNo != "" {
		if !s.ledger.Empty() {
			return "", ErrCancelAfterPayment
		}
		if !confirmed {
			return "", ErrConfirmationRequired
		}
	}
	customerCardNo = strings.TrimSpace(customerCardNo)
	if carded && customerCardNo == "" {
		return "", ErrCardNumberRequired
	}
	if !carded {
		customerCardNo = ""
	}

	orderNo, err := s.orders.CreateOrder(ctx, customerCardNo)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	s.reset()
	s.orderNo = orderNo
	s.carded = carded
	s.customerCardNo = customerCardNo
	return orderNo, nil
}

// Cancel abandons the open order and returns its number. Only allowed while
// no payment has been committed, and only with explicit confirmation.
func (s *Session) Cancel(confirmed bool) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	if s.orderNo == "" {
		return "", ErrNoOrder
	}
	if !s.ledger.Empty() {
		return "", ErrCancelAfterPayment
	}
	if !confirmed {
		return "", ErrConfirmationRequired
	}
	orderNo := s.orderNo
	s.reset()
	return orderNo, nil
}

// AddItem folds a product into the cart, parsing its price on first entry.
func (s *Session) AddItem(p domain.Product) (domain.LineItem, error) {
	if err := s.acquire(); err != nil {
		return domain.LineItem{}, err
	}
	defer s.release()

	if err := s.mutableCart(); err != nil {
		return domain.LineItem{}, err
	}
	price, ok := ParseAmount(p.Price)
	if !ok {
		return domain.LineItem{}, fmt.Errorf("%w: %q", ErrInvalidPrice, p.Price)
	}
	return s.cart.AddOrIncrement(p, price), nil
}

// SetQuantity changes a line's quantity. Anything below one is a removal
// and takes the removal confirmation path.
func (s *Session) SetQuantity(identity string, qty int, confirmed bool) error {
	if qty < 1 {
		return s.RemoveItem(identity, confirmed)
	}
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.mutableCart(); err != nil {
		return err
	}
	if !s.cart.SetQuantity(identity, qty) {
		return ErrNotInCart
	}
	return nil
}

// RemoveItem drops a line; destructive, so it requires confirmation.
func (s *Session) RemoveItem(identity string, confirmed bool) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.mutableCart(); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if !s.cart.Remove(identity) {
		return ErrNotInCart
	}
	return nil
}

// ClearCart empties the cart; destructive, so it requires confirmation.
func (s *Session) ClearCart(confirmed bool) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.mutableCart(); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	s.cart.Clear()
	return nil
}

// AddPayment validates the draft against the remaining balance and commits
// it. Wallet tenders debit first; if the debit fails nothing is recorded.
func (s *Session) AddPayment(ctx context.Context, draft domain.PaymentDraft) (domain.PaymentEntry, error) {
	if err := s.acquire(); err != nil {
		return domain.PaymentEntry{}, err
	}
	defer s.release()

	if s.orderNo == "" {
		return domain.PaymentEntry{}, ErrNoOrder
	}
	if s.cart.Empty() {
		return domain.PaymentEntry{}, ErrCartEmpty
	}
	remaining := s.ledger.Remaining(s.cart.Subtotal())
	if Settled(remaining) {
		return domain.PaymentEntry{}, ErrAlreadySettled
	}

	entry, err := ValidateDraft(draft, remaining)
	if err != nil {
		return domain.PaymentEntry{}, err
	}

	if entry.Type == domain.TenderPwallet {
		if err := s.wallet.DebitWallet(ctx, entry.ReferenceNumber, entry.Amount); err != nil {
			return domain.PaymentEntry{}, fmt.Errorf("%w: %v", ErrDebitFailed, err)
		}
	}

	s.ledger.Append(entry)
	return entry, nil
}

// Complete closes out a fully paid order, returning its summary and
// resetting the session for the next customer.
func (s *Session) Complete() (domain.CompletedTransaction, error) {
	if err := s.acquire(); err != nil {
		return domain.CompletedTransaction{}, err
	}
	defer s.release()

	if s.orderNo == "" {
		return domain.CompletedTransaction{}, ErrNoOrder
	}
	if s.cart.Empty() {
		return domain.CompletedTransaction{}, ErrCartEmpty
	}
	if s.ledger.Empty() {
		return domain.CompletedTransaction{}, ErrNoPayments
	}
	subtotal := s.cart.Subtotal()
	if !Settled(s.ledger.Remaining(subtotal)) {
		return domain.CompletedTransaction{}, ErrNotSettled
	}

	tx := domain.CompletedTransaction{
		OrderNo:        s.orderNo,
		Carded:         s.carded,
		CustomerCardNo: s.customerCardNo,
		Total:          subtotal,
		ItemCount:      s.cart.TotalUnits(),
		Payments:       s.ledger.Entries(),
		CompletedAt:    time.Now().UTC(),
	}
	s.reset()
	return tx, nil
}

// Snapshot returns the current view without mutating anything. It fails
// with ErrBusy while a network call is in flight rather than reading a
// half-applied state.
func (s *Session) Snapshot() (View, error) {
	if err := s.acquire(); err != nil {
		return View{}, err
	}
	defer s.release()
	return s.view(), nil
}

func (s *Session) view() View {
	subtotal := s.cart.Subtotal()
	v := View{
		OrderNo:        s.orderNo,
		Carded:         s.carded,
		CustomerCardNo: s.customerCardNo,
		Items:          s.cart.Items(),
		Subtotal:       subtotal,
		Payments:       s.ledger.Entries(),
		TotalPaid:      s.ledger.TotalPaid(),
		Remaining:      s.ledger.Remaining(subtotal),
	}
	switch {
	case s.orderNo == "":
		v.State = StateNoOrder
	case s.cart.Empty():
		v.State = StateOrderEmpty
	case s.ledger.Empty():
		v.State = StateOrderItems
	case Settled(v.Remaining):
		v.State = StateFullyPaid
	default:
		v.State = StatePartiallyPaid
	}
	return v
}

// mutableCart gates every cart mutation: an order must be open and no
// payment committed yet.
func (s *Session) mutableCart() error {
	if s.orderNo == "" {
		return ErrNoOrder
	}
	if !s.ledger.Empty() {
		return ErrCartLocked
	}
	return nil
}

func (s *Session) reset() {
	s.cart.Clear()
	s.ledger.Clear()
	s.orderNo = ""
	s.carded = false
	s.customerCardNo = ""
}
