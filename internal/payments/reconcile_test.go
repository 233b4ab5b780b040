package payments

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PagSeguroNotify/internal/gateway"
	"PagSeguroNotify/internal/models"
)

func pendingOrder() *models.Order {
	return &models.Order{ID: 42, PaymentStatus: models.PaymentPending, Status: models.OrderPending}
}

func tx(status gateway.TransactionStatus) *gateway.Transaction {
	return &gateway.Transaction{Reference: "42", Status: status, PaymentMethod: gateway.MethodCreditCard}
}

func payment(s models.PaymentStatus) *models.PaymentStatus { return &s }
func orderStatus(s models.OrderStatus) *models.OrderStatus { return &s }

func TestReconcileTransitionTable(t *testing.T) {
	method := "Forma de pagamento: Cartão de crédito."
	cases := []struct {
		name    string
		status  gateway.TransactionStatus
		payment *models.PaymentStatus
		order   *models.OrderStatus
		notes   []PlannedNote
		actions []Action
	}{
		{
			name:    "awaiting payment",
			status:  gateway.StatusAwaitingPayment,
			payment: payment(models.PaymentPending),
			notes:   []PlannedNote{{Text: NoteAwaitingPayment, VisibleToCustomer: true}, {Text: method, VisibleToCustomer: true}},
		},
		{
			name:    "under review",
			status:  gateway.StatusUnderReview,
			payment: payment(models.PaymentPending),
			notes:   []PlannedNote{{Text: NoteUnderReview, VisibleToCustomer: true}, {Text: method, VisibleToCustomer: true}},
		},
		{
			name:   "paid",
			status: gateway.StatusPaid,
			notes: []PlannedNote{
				{Text: NotePaymentApproved, VisibleToCustomer: true},
				{Text: method, VisibleToCustomer: true},
				{Text: NoteAwaitingPrint, VisibleToCustomer: false},
			},
			actions: []Action{{Kind: ActionMarkAuthorized}},
		},
		{
			name:    "released",
			status:  gateway.StatusReleased,
			notes:   []PlannedNote{{Text: NoteFundsAvailable, VisibleToCustomer: false}},
			actions: []Action{{Kind: ActionMarkPaid}},
		},
		{
			name:    "in dispute",
			status:  gateway.StatusInDispute,
			payment: payment(models.PaymentVoided),
			notes:   []PlannedNote{{Text: NoteDisputeOpened, VisibleToCustomer: true, NotifyCustomer: true}},
		},
		{
			name:    "refunded",
			status:  gateway.StatusRefunded,
			payment: payment(models.PaymentRefunded),
			order:   orderStatus(models.OrderCancelled),
			notes:   []PlannedNote{{Text: NoteRefunded, VisibleToCustomer: true, NotifyCustomer: true}},
			actions: []Action{{Kind: ActionCancel, NotifyCustomer: true}},
		},
		{
			name:    "cancelled",
			status:  gateway.StatusCancelled,
			payment: payment(models.PaymentVoided),
			order:   orderStatus(models.OrderCancelled),
			notes:   []PlannedNote{{Text: NoteCancelled, VisibleToCustomer: true, NotifyCustomer: true}},
			actions: []Action{{Kind: ActionCancel, NotifyCustomer: true}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Reconcile(Input{Transaction: tx(tc.status), Order: pendingOrder()})
			assert.Equal(t, tc.payment, p.PaymentStatus)
			assert.Equal(t, tc.order, p.OrderStatus)
			assert.Equal(t, tc.notes, p.Notes)
			assert.Equal(t, tc.actions, p.Actions)
			assert.Empty(t, p.Skipped)
		})
	}
}

func TestReconcileUnknownStatusIsNoop(t *testing.T) {
	p := Reconcile(Input{Transaction: tx(gateway.ParseStatus(9)), Order: pendingOrder()})
	assert.True(t, p.Empty())
	assert.Empty(t, p.Skipped)
}

func TestReconcilePaidAppendsNarrativeWithEmail(t *testing.T) {
	p := Reconcile(Input{Transaction: tx(gateway.StatusPaid), Order: pendingOrder(), Narrative: "Data máxima: 03/11/2026"})
	require.Len(t, p.Notes, 4)
	last := p.Notes[3]
	assert.Equal(t, "Data máxima: 03/11/2026", last.Text)
	assert.True(t, last.NotifyCustomer)
	assert.Equal(t, 1, p.NotifiedNotes())
}

func TestReconcilePaidAfterDisputeResolvesInSellerFavour(t *testing.T) {
	order := pendingOrder()
	order.PaymentStatus = models.PaymentVoided

	p := Reconcile(Input{Transaction: tx(gateway.StatusPaid), Order: order})
	assert.Nil(t, p.PaymentStatus)
	assert.Equal(t, NoteDisputeResolved, p.Notes[0].Text)
	assert.True(t, p.Has(ActionMarkAuthorized))

	p.ApplyTo(order, time.Now(), func() string { return "n" })
	assert.Equal(t, models.PaymentAuthorized, order.PaymentStatus)
}

func TestReconcilePaidGuard(t *testing.T) {
	cases := []struct {
		name    string
		payment models.PaymentStatus
		status  models.OrderStatus
	}{
		{"already authorized", models.PaymentAuthorized, models.OrderPending},
		{"already paid", models.PaymentPaid, models.OrderProcessing},
		{"refunded", models.PaymentRefunded, models.OrderCancelled},
		{"cancelled by gateway", models.PaymentVoided, models.OrderCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := &models.Order{ID: 1, PaymentStatus: tc.payment, Status: tc.status}
			p := Reconcile(Input{Transaction: tx(gateway.StatusPaid), Order: order, Narrative: "x"})
			assert.True(t, p.Empty())
			assert.NotEmpty(t, p.Skipped)
		})
	}
}

func TestReconcileReleasedGuard(t *testing.T) {
	cases := []struct {
		name    string
		payment models.PaymentStatus
		status  models.OrderStatus
	}{
		{"refunded", models.PaymentRefunded, models.OrderCancelled},
		{"cancelled by gateway", models.PaymentVoided, models.OrderCancelled},
		{"dispute open", models.PaymentVoided, models.OrderProcessing},
		{"already paid", models.PaymentPaid, models.OrderProcessing},
		{"cancelled while pending", models.PaymentPending, models.OrderCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := &models.Order{ID: 1, PaymentStatus: tc.payment, Status: tc.status}
			p := Reconcile(Input{Transaction: tx(gateway.StatusReleased), Order: order})
			assert.True(t, p.Empty())
			assert.NotEmpty(t, p.Skipped)
			assert.False(t, CanMarkPaid(order))
		})
	}

	for _, ps := range []models.PaymentStatus{models.PaymentPending, models.PaymentAuthorized} {
		order := &models.Order{ID: 1, PaymentStatus: ps, Status: models.OrderProcessing}
		p := Reconcile(Input{Transaction: tx(gateway.StatusReleased), Order: order})
		assert.True(t, p.Has(ActionMarkPaid), ps)
		assert.Empty(t, p.Skipped)
	}
}

func TestReleasedAfterRefundLeavesOrderUntouched(t *testing.T) {
	order := pendingOrder()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	newID := func() string { return "n" }

	Reconcile(Input{Transaction: tx(gateway.StatusRefunded), Order: order}).ApplyTo(order, now, newID)
	notes := len(order.Notes)

	Reconcile(Input{Transaction: tx(gateway.StatusReleased), Order: order}).ApplyTo(order, now, newID)
	assert.Equal(t, models.PaymentRefunded, order.PaymentStatus)
	assert.Nil(t, order.PaidAt)
	assert.Len(t, order.Notes, notes)
}

func TestPaidTwiceAfterRefundLeavesOrderUntouched(t *testing.T) {
	order := pendingOrder()
	seq := 0
	newID := func() string { seq++; return strconv.Itoa(seq) }
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	Reconcile(Input{Transaction: tx(gateway.StatusRefunded), Order: order}).ApplyTo(order, now, newID)
	notes := len(order.Notes)

	for i := 0; i < 2; i++ {
		Reconcile(Input{Transaction: tx(gateway.StatusPaid), Order: order}).ApplyTo(order, now, newID)
	}
	assert.Equal(t, models.PaymentRefunded, order.PaymentStatus)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Len(t, order.Notes, notes)
}

func TestApplyToMarksPaid(t *testing.T) {
	order := pendingOrder()
	order.PaymentStatus = models.PaymentAuthorized
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	added := Reconcile(Input{Transaction: tx(gateway.StatusReleased), Order: order}).
		ApplyTo(order, now, func() string { return "n1" })

	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, now, *order.PaidAt)
	require.Len(t, added, 1)
	assert.Equal(t, "n1", added[0].ID)
	assert.False(t, added[0].VisibleToCustomer)
	assert.Equal(t, now, order.UpdatedAt)
}

func TestPaymentMethodDescriptions(t *testing.T) {
	assert.Equal(t, "Forma de pagamento: Boleto.", paymentMethodNote(&gateway.Transaction{PaymentMethod: gateway.MethodBankSlip}))
	assert.Equal(t, "Forma de pagamento: Depósito em conta.", paymentMethodNote(&gateway.Transaction{PaymentMethod: gateway.MethodBankDeposit}))
}
