package checkout

import "errors"

// Draft validation errors, surfaced to the cashier verbatim. Order matters:
// ValidateDraft reports the first failure in the sequence below.
var (
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrInvalidAmount         = errors.New("please enter a valid amount")
	ErrReferenceRequired     = errors.New("reference number is required")
	ErrInvalidCashTendered   = errors.New("please enter a valid cash bill amount")
	ErrCashBelowAmount       = errors.New("cash bill must be greater than or equal to the amount")
	ErrExceedsBalance        = errors.New("payment amount cannot exceed remaining balance")
)

// Session state errors.
var (
	ErrNoOrder              = errors.New("no open order")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrCartLocked           = errors.New("cart cannot be changed after a payment is added")
	ErrCancelAfterPayment   = errors.New("order cannot be cancelled after a payment is added")
	ErrAlreadySettled       = errors.New("order is already fully paid")
	ErrNotSettled           = errors.New("remaining balance must be zero to complete")
	ErrNoPayments           = errors.New("at least one payment is required to complete")
	ErrBusy                 = errors.New("another operation is in progress")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrCardNumberRequired   = errors.New("customer card number is required")
	ErrDebitFailed          = errors.New("debit failed, please try again")
	ErrInvalidPrice         = errors.New("product has an invalid price")
	ErrNotInCart            = errors.New("item is not in the cart")
)
