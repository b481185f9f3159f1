package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/store"
)

var errStoreDown = errors.New("connection refused")

// memoryOrderStore behaves like the orders table
type memoryOrderStore struct {
	mu      sync.Mutex
	rows    []store.OrderRow
	next    int64
	clock   time.Time
	inserts int
	err     error
}

func newMemoryOrderStore() *memoryOrderStore {
	return &memoryOrderStore{clock: time.Date(2024, 5, 10, 19, 0, 0, 0, time.UTC)}
}

func (m *memoryOrderStore) seed(row store.OrderRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
}

func (m *memoryOrderStore) ListOrders(_ context.Context) ([]store.OrderRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rows := append([]store.OrderRow(nil), m.rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (m *memoryOrderStore) GetOrder(_ context.Context, id string) (*store.OrderRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
}

func (m *memoryOrderStore) InsertOrder(_ context.Context, id string, order models.NewOrder) (*store.OrderRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.err != nil {
		return nil, m.err
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	m.next++
	created := m.clock.Add(time.Duration(m.next) * time.Minute)
	row := store.OrderRow{
		ID:              id,
		OrderNumber:     m.next,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerAddress: order.CustomerAddress,
		Items:           items,
		TotalAmount:     order.TotalAmount,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		Notes:           order.Notes,
		Status:          string(order.Status),
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	m.rows = append(m.rows, row)
	return &row, nil
}

func (m *memoryOrderStore) update(id string, fn func(*store.OrderRow)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			fn(&m.rows[i])
			return nil
		}
	}
	return fmt.Errorf("order %s: %w", id, store.ErrNotFound)
}

func (m *memoryOrderStore) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) error {
	return m.update(id, func(r *store.OrderRow) { r.Status = string(status) })
}

func (m *memoryOrderStore) UpdatePaymentStatus(_ context.Context, id string, status models.PaymentStatus, paidAt *time.Time) error {
	return m.update(id, func(r *store.OrderRow) {
		r.PaymentStatus = string(status)
		if paidAt != nil {
			r.PaidAt = paidAt
		}
	})
}

func (m *memoryOrderStore) DeleteOrder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("order %s: %w", id, store.ErrNotFound)
}

// fakeChanges stands in for the change feed
type fakeChanges struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]func(store.ChangeEvent)
}

func newFakeChanges() *fakeChanges {
	return &fakeChanges{subs: make(map[string]map[uint64]func(store.ChangeEvent))}
}

func (f *fakeChanges) Subscribe(table string, fn func(store.ChangeEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	if f.subs[table] == nil {
		f.subs[table] = make(map[uint64]func(store.ChangeEvent))
	}
	f.subs[table][id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[table], id)
	}
}

func (f *fakeChanges) subscribers(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[table])
}

func (f *fakeChanges) fire(table, op string) {
	f.mu.Lock()
	handlers := make([]func(store.ChangeEvent), 0, len(f.subs[table]))
	for _, fn := range f.subs[table] {
		handlers = append(handlers, fn)
	}
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(store.ChangeEvent{Table: table, Operation: op})
	}
}

type sentMessage struct {
	template notify.Template
	phone    string
	message  string
}

// recordingNotifier captures dispatches instead of sending them
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingNotifier) Dispatch(_ context.Context, template notify.Template, rawPhone, message string) notify.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{template: template, phone: rawPhone, message: message})
	return notify.Outcome{Destination: notify.NormalizePhone(rawPhone), Sent: true}
}

func (r *recordingNotifier) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

type staticSettings models.Settings

func (s staticSettings) FetchSettings(context.Context) models.Settings {
	return models.Settings(s)
}

// fakeSettingsStore keeps only the persisted settings columns
type fakeSettingsStore struct {
	mu      sync.Mutex
	row     *models.Settings
	err     error
	inserts int
	updates int
}

func persistedColumns(s models.Settings) models.Settings {
	return models.Settings{
		ID:             s.ID,
		CompanyName:    s.CompanyName,
		CompanyAddress: s.CompanyAddress,
		WhatsappNumber: s.WhatsappNumber,
		DeliveryFee:    s.DeliveryFee,
		MinimumOrder:   s.MinimumOrder,
		PixEnabled:     s.PixEnabled,
		PixKey:         s.PixKey,
	}
}

func (f *fakeSettingsStore) GetSettings(context.Context) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.row == nil {
		return nil, nil
	}
	row := *f.row
	return &row, nil
}

func (f *fakeSettingsStore) InsertSettings(_ context.Context, s models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserts++
	row := persistedColumns(s)
	f.row = &row
	return nil
}

func (f *fakeSettingsStore) UpdateSettings(_ context.Context, s models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.row == nil || f.row.ID != s.ID {
		return fmt.Errorf("settings %s: %w", s.ID, store.ErrNotFound)
	}
	f.updates++
	row := persistedColumns(s)
	f.row = &row
	return nil
}
