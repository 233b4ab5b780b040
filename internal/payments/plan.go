package payments

import "PagSeguroNotify/internal/models"

type ActionKind string

const (
	ActionMarkAuthorized ActionKind = "mark_authorized"
	ActionMarkPaid       ActionKind = "mark_paid"
	ActionCancel         ActionKind = "cancel"
)

// Action is an order-processing operation the store must run alongside the
// status change.
type Action struct {
	Kind           ActionKind
	NotifyCustomer bool
}

type PlannedNote struct {
	Text              string
	VisibleToCustomer bool
	// NotifyCustomer queues a customer email carrying this note.
	NotifyCustomer bool
}

// Plan describes every mutation a notification causes on one order. A zero
// Plan means nothing changes.
type Plan struct {
	// PaymentStatus covers plain status moves. Authorization and settlement
	// are expressed only through their actions.
	PaymentStatus *models.PaymentStatus
	OrderStatus   *models.OrderStatus
	Notes         []PlannedNote
	Actions       []Action
	// Skipped explains why a recognised status produced no changes.
	Skipped string
}

func (p Plan) Empty() bool {
	return p.PaymentStatus == nil && p.OrderStatus == nil && len(p.Notes) == 0 && len(p.Actions) == 0
}

func (p Plan) Has(kind ActionKind) bool {
	for _, a := range p.Actions {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// NotifiedNotes counts the notes that will be emailed to the customer.
func (p Plan) NotifiedNotes() int {
	n := 0
	for _, note := range p.Notes {
		if note.NotifyCustomer {
			n++
		}
	}
	return n
}

func (p *Plan) note(text string, visible bool) {
	p.Notes = append(p.Notes, PlannedNote{Text: text, VisibleToCustomer: visible})
}

func (p *Plan) notify(text string) {
	p.Notes = append(p.Notes, PlannedNote{Text: text, VisibleToCustomer: true, NotifyCustomer: true})
}

func (p *Plan) setPayment(s models.PaymentStatus) {
	p.PaymentStatus = &s
}

func (p *Plan) setOrder(s models.OrderStatus) {
	p.OrderStatus = &s
}
