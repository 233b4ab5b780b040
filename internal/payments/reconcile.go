package payments

import (
	"fmt"

	"PagSeguroNotify/internal/gateway"
	"PagSeguroNotify/internal/models"
)

const (
	NoteAwaitingPayment  = "Aguardando pagamento."
	NoteUnderReview      = "Em processamento pelo PagSeguro."
	NotePaymentApproved  = "Pagamento aprovado."
	NoteDisputeResolved  = "Disputa encerrada a favor do vendedor. Pagamento aprovado."
	NoteAwaitingPrint    = "Aguardando Impressão - Excluir esse comentário ao imprimir"
	NoteFundsAvailable   = "Pagamento disponível para saque no PagSeguro."
	NoteDisputeOpened    = "Em disputa: o comprador, dentro do prazo de liberação da transação, abriu uma disputa."
	NoteRefunded         = "Valor reembolsado para o comprador. Pedido Cancelado."
	NoteCancelled        = "Transação Cancelada. Motivos: Expiração do prazo de pagamento ou cancelada pelo comprador."
	notePaymentMethodFmt = "Forma de pagamento: %s."
)

type Input struct {
	Transaction *gateway.Transaction
	Order       *models.Order
	// Narrative is the shipment-deadline note appended on approval; empty
	// when disabled or not applicable.
	Narrative string
}

// Reconcile maps a verified transaction onto the order's current state. It
// does not mutate the order.
func Reconcile(in Input) Plan {
	var p Plan
	tx, order := in.Transaction, in.Order

	switch tx.Status {
	case gateway.StatusAwaitingPayment:
		p.setPayment(models.PaymentPending)
		p.note(NoteAwaitingPayment, true)
		p.note(paymentMethodNote(tx), true)

	case gateway.StatusUnderReview:
		p.setPayment(models.PaymentPending)
		p.note(NoteUnderReview, true)
		p.note(paymentMethodNote(tx), true)

	case gateway.StatusPaid:
		current := order.PaymentStatus
		if !CanAuthorize(order) {
			p.Skipped = fmt.Sprintf("paid notification ignored: payment %s, order %s", current, order.Status)
			return p
		}
		p.Actions = append(p.Actions, Action{Kind: ActionMarkAuthorized})
		if current == models.PaymentVoided {
			p.note(NoteDisputeResolved, true)
		} else {
			p.note(NotePaymentApproved, true)
		}
		p.note(paymentMethodNote(tx), true)
		p.note(NoteAwaitingPrint, false)
		if in.Narrative != "" {
			p.notify(in.Narrative)
		}

	case gateway.StatusReleased:
		if !CanMarkPaid(order) {
			p.Skipped = fmt.Sprintf("released notification ignored: payment %s, order %s", order.PaymentStatus, order.Status)
			return p
		}
		p.Actions = append(p.Actions, Action{Kind: ActionMarkPaid})
		p.note(NoteFundsAvailable, false)

	case gateway.StatusInDispute:
		p.setPayment(models.PaymentVoided)
		p.notify(NoteDisputeOpened)

	case gateway.StatusRefunded:
		p.setPayment(models.PaymentRefunded)
		p.setOrder(models.OrderCancelled)
		p.Actions = append(p.Actions, Action{Kind: ActionCancel, NotifyCustomer: true})
		p.notify(NoteRefunded)

	case gateway.StatusCancelled:
		p.setPayment(models.PaymentVoided)
		p.setOrder(models.OrderCancelled)
		p.Actions = append(p.Actions, Action{Kind: ActionCancel, NotifyCustomer: true})
		p.notify(NoteCancelled)

	case gateway.StatusUnknown:
		// unrecognised stages pass through untouched
	}
	return p
}

// CanAuthorize reports whether a Paid notification may move the order to
// authorized. Delivery order is not guaranteed, so anything past pending or
// a reopened dispute is left alone.
func CanAuthorize(order *models.Order) bool {
	if order.Terminal() {
		return false
	}
	return order.PaymentStatus == models.PaymentPending || order.PaymentStatus == models.PaymentVoided
}

// CanMarkPaid reports whether funds released by the gateway may settle the
// order. Cancelled, refunded, disputed and already paid orders are left alone.
func CanMarkPaid(order *models.Order) bool {
	if order.Terminal() {
		return false
	}
	return order.PaymentStatus == models.PaymentPending || order.PaymentStatus == models.PaymentAuthorized
}

func paymentMethodNote(tx *gateway.Transaction) string {
	return fmt.Sprintf(notePaymentMethodFmt, tx.PaymentMethod.Description())
}
