package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"PagSeguroNotify/internal/models"
)

// MemoryStore is an in-process implementation for tests and local runs.
// Reconcile calls on the same order are serialized.
type MemoryStore struct {
	mu            sync.Mutex
	orders        map[int64]*models.Order
	byGUID        map[uuid.UUID]int64
	locks         map[int64]*sync.Mutex
	deliveryDates map[int64]map[string]string
	notifications []models.NotificationRecord
	outbox        []models.OutboxMessage
	nextID        int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:        make(map[int64]*models.Order),
		byGUID:        make(map[uuid.UUID]int64),
		locks:         make(map[int64]*sync.Mutex),
		deliveryDates: make(map[int64]map[string]string),
	}
}

// PutOrder stores a copy of order, assigning an ID and GUID when missing.
func (s *MemoryStore) PutOrder(order *models.Order) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := cloneOrder(order)
	if o.ID == 0 {
		s.nextID++
		o.ID = s.nextID
	} else if o.ID > s.nextID {
		s.nextID = o.ID
	}
	if o.GUID == uuid.Nil {
		o.GUID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
		o.UpdatedAt = o.CreatedAt
	}
	s.orders[o.ID] = o
	s.byGUID[o.GUID] = o.ID
	return cloneOrder(o)
}

// PutDeliveryDate registers a label; "" is the default name, other keys are
// language tags.
func (s *MemoryStore) PutDeliveryDate(id int64, names map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]string, len(names))
	for k, v := range names {
		cp[k] = v
	}
	s.deliveryDates[id] = cp
}

func (s *MemoryStore) GetByGUID(_ context.Context, guid uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byGUID[guid]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(s.orders[id]), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) Reconcile(ctx context.Context, orderID int64, fn ReconcileFunc) (*Result, error) {
	lock := s.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	plan, err := fn(ctx, order)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		return &Result{Plan: plan, Order: order}, nil
	}

	now := time.Now().UTC()
	notes := plan.ApplyTo(order, now, newID)
	queued := outboxFor(plan, order, notes, now)

	s.mu.Lock()
	s.orders[order.ID] = cloneOrder(order)
	s.outbox = append(s.outbox, queued...)
	s.mu.Unlock()

	return &Result{Plan: plan, Order: order, Notes: notes, Queued: queued}, nil
}

func (s *MemoryStore) orderLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *MemoryStore) DeliveryDate(_ context.Context, id int64, lang language.Tag) (*models.DeliveryDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, ok := s.deliveryDates[id]
	if !ok {
		return nil, nil
	}
	for _, candidate := range localeCandidates(lang) {
		if name, ok := names[candidate]; ok {
			return &models.DeliveryDate{ID: id, Name: name}, nil
		}
	}
	return &models.DeliveryDate{ID: id, Name: names[""]}, nil
}

func (s *MemoryStore) RecordNotification(_ context.Context, rec *models.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = newID()
	}
	s.notifications = append(s.notifications, *rec)
	return nil
}

// Notifications returns the recorded inbound notifications in arrival order.
func (s *MemoryStore) Notifications() []models.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.NotificationRecord(nil), s.notifications...)
}

func (s *MemoryStore) PendingOutbox(_ context.Context, limit, maxAttempts int) ([]models.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OutboxMessage
	for _, m := range s.outbox {
		if m.SentAt != nil || m.AbandonedAt != nil || m.Attempts >= maxAttempts {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkOutboxSent(_ context.Context, id string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			t := sentAt
			s.outbox[i].SentAt = &t
			s.outbox[i].Attempts++
			s.outbox[i].LastError = nil
		}
	}
	return nil
}

func (s *MemoryStore) MarkOutboxFailed(_ context.Context, id string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := truncate(cause.Error(), 500)
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			s.outbox[i].Attempts++
			s.outbox[i].LastError = &msg
		}
	}
	return nil
}

func (s *MemoryStore) MarkOutboxAbandoned(_ context.Context, id string, cause error, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := truncate(cause.Error(), 500)
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			t := at
			s.outbox[i].Attempts++
			s.outbox[i].LastError = &msg
			s.outbox[i].AbandonedAt = &t
		}
	}
	return nil
}

// Outbox returns every queued message, sent or not.
func (s *MemoryStore) Outbox() []models.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OutboxMessage(nil), s.outbox...)
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	cp.Notes = append([]models.OrderNote(nil), o.Notes...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}
