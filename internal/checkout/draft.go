package checkout

import (
	"strings"

	"convpos/terminal/internal/domain"
)

// ValidateDraft turns raw cashier input into a committable PaymentEntry.
// Checks run in a fixed order and the first failure wins:
// method, amount, reference (wallet and gcash), cash tendered, cash
// sufficiency, remaining balance.
func ValidateDraft(d domain.PaymentDraft, remaining float64) (domain.PaymentEntry, error) {
	tender := strings.ToUpper(strings.TrimSpace(d.Type))
	if tender == "" {
		return domain.PaymentEntry{}, ErrPaymentMethodRequired
	}
	switch tender {
	case domain.TenderPwallet, domain.TenderGcash, domain.TenderCash:
	default:
		return domain.PaymentEntry{}, ErrUnknownPaymentMethod
	}

	amount, ok := ParseAmount(d.Amount)
	if !ok {
		return domain.PaymentEntry{}, ErrInvalidAmount
	}

	reference := strings.TrimSpace(d.ReferenceNumber)
	if (tender == domain.TenderPwallet || tender == domain.TenderGcash) && reference == "" {
		return domain.PaymentEntry{}, ErrReferenceRequired
	}

	entry := domain.PaymentEntry{Type: tender, Amount: amount, ReferenceNumber: reference}
	if tender == domain.TenderCash {
		entry.ReferenceNumber = ""
		tendered, ok := ParseAmount(d.CashTendered)
		if !ok {
			return domain.PaymentEntry{}, ErrInvalidCashTendered
		}
		if tendered < amount {
			return domain.PaymentEntry{}, ErrCashBelowAmount
		}
		entry.CashTendered = tendered
		entry.CashChange = tendered - amount
	}

	if amount > remaining+Epsilon {
		return domain.PaymentEntry{}, ErrExceedsBalance
	}
	return entry, nil
}

// ComputeChange is the live change preview while the cashier types a cash
// payment. Both fields must parse to positive numbers before anything shows;
// the result may be negative while the tendered figure is still short.
func ComputeChange(amountText, cashText string) float64 {
	amount, okA := ParseAmount(amountText)
	cash, okC := ParseAmount(cashText)
	if !okA || !okC {
		return 0
	}
	return cash - amount
}
