package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentPaid       PaymentStatus = "paid"
	PaymentVoided     PaymentStatus = "voided"
	PaymentRefunded   PaymentStatus = "refunded"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderComplete   OrderStatus = "complete"
	OrderCancelled  OrderStatus = "cancelled"
)

type Order struct {
	ID             int64
	GUID           uuid.UUID
	CustomerEmail  string
	Language       string
	PaymentStatus  PaymentStatus
	Status         OrderStatus
	ShippingMethod string
	Items          []OrderItem
	Notes          []OrderNote
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Terminal reports whether the order can no longer be authorized by a
// gateway notification.
func (o *Order) Terminal() bool {
	return o.Status == OrderCancelled || o.PaymentStatus == PaymentRefunded
}

type OrderItem struct {
	ID               int64
	OrderID          int64
	ProductName      string
	ManufacturerName string
	DeliveryDateID   int64
	Quantity         int
}

type OrderNote struct {
	ID                string
	OrderID           int64
	Text              string
	VisibleToCustomer bool
	CreatedAt         time.Time
}

type DeliveryDate struct {
	ID   int64
	Name string
}

type NotificationRecord struct {
	ID                string
	Code              string
	Reference         string
	TransactionStatus string
	Outcome           string
	Error             string
	ReceivedAt        time.Time
}

type OutboxKind string

const (
	OutboxOrderNote      OutboxKind = "order_note"
	OutboxOrderCancelled OutboxKind = "order_cancelled"
)

type OutboxMessage struct {
	ID        string
	Kind      OutboxKind
	OrderID   int64
	NoteID    string
	Language  string
	Attempts  int
	LastError *string
	CreatedAt time.Time
	SentAt    *time.Time
	// AbandonedAt is set when delivery can never succeed.
	AbandonedAt *time.Time
}
