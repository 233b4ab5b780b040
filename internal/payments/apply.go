package payments

import (
	"time"

	"PagSeguroNotify/internal/models"
)

// ApplyTo writes the plan onto order and returns the notes it appended, in
// plan order. newID supplies note identifiers.
func (p Plan) ApplyTo(order *models.Order, now time.Time, newID func() string) []models.OrderNote {
	if p.PaymentStatus != nil {
		order.PaymentStatus = *p.PaymentStatus
	}
	if p.OrderStatus != nil {
		order.Status = *p.OrderStatus
	}
	for _, a := range p.Actions {
		switch a.Kind {
		case ActionMarkAuthorized:
			order.PaymentStatus = models.PaymentAuthorized
		case ActionMarkPaid:
			order.PaymentStatus = models.PaymentPaid
			if order.PaidAt == nil {
				paidAt := now
				order.PaidAt = &paidAt
			}
		case ActionCancel:
			order.Status = models.OrderCancelled
		}
	}

	added := make([]models.OrderNote, 0, len(p.Notes))
	for _, n := range p.Notes {
		note := models.OrderNote{
			ID:                newID(),
			OrderID:           order.ID,
			Text:              n.Text,
			VisibleToCustomer: n.VisibleToCustomer,
			CreatedAt:         now,
		}
		order.Notes = append(order.Notes, note)
		added = append(added, note)
	}
	if !p.Empty() {
		order.UpdatedAt = now
	}
	return added
}
