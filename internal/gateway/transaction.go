package gateway

import (
	"context"
	"time"
)

// TransactionStatus is the PagSeguro lifecycle stage of a transaction.
type TransactionStatus int

const (
	StatusUnknown         TransactionStatus = 0
	StatusAwaitingPayment TransactionStatus = 1
	StatusUnderReview     TransactionStatus = 2
	StatusPaid            TransactionStatus = 3
	StatusReleased        TransactionStatus = 4
	StatusInDispute       TransactionStatus = 5
	StatusRefunded        TransactionStatus = 6
	StatusCancelled       TransactionStatus = 7
)

// ParseStatus maps the wire code to a status. Codes outside 1..7 map to
// StatusUnknown.
func ParseStatus(code int) TransactionStatus {
	if code < int(StatusAwaitingPayment) || code > int(StatusCancelled) {
		return StatusUnknown
	}
	return TransactionStatus(code)
}

func (s TransactionStatus) String() string {
	switch s {
	case StatusAwaitingPayment:
		return "awaiting_payment"
	case StatusUnderReview:
		return "under_review"
	case StatusPaid:
		return "paid"
	case StatusReleased:
		return "released"
	case StatusInDispute:
		return "in_dispute"
	case StatusRefunded:
		return "refunded"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type PaymentMethodType int

const (
	MethodUnknown          PaymentMethodType = 0
	MethodCreditCard       PaymentMethodType = 1
	MethodBankSlip         PaymentMethodType = 2
	MethodOnlineDebit      PaymentMethodType = 3
	MethodGatewayBalance   PaymentMethodType = 4
	MethodAlternatePayment PaymentMethodType = 5
	MethodBankDeposit      PaymentMethodType = 7
)

// Description is the customer-facing name used in order notes.
func (m PaymentMethodType) Description() string {
	switch m {
	case MethodCreditCard:
		return "Cartão de crédito"
	case MethodBankSlip:
		return "Boleto"
	case MethodOnlineDebit:
		return "Débito online (TEF)"
	case MethodGatewayBalance:
		return "Saldo PagSeguro"
	case MethodAlternatePayment:
		return "Oi Paggo"
	case MethodBankDeposit:
		return "Depósito em conta"
	default:
		return ""
	}
}

type Transaction struct {
	Code          string
	Reference     string
	Type          int
	Status        TransactionStatus
	PaymentMethod PaymentMethodType
	Date          time.Time
	LastEvent     time.Time
}

// Verifier exchanges an untrusted notification code for the transaction the
// gateway has on record.
type Verifier interface {
	Verify(ctx context.Context, code string) (*Transaction, error)
}
