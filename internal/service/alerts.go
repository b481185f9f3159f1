package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/util"

	"go.uber.org/zap"
)

// DefaultNewOrderWindow is how recent a pending order must be to alert staff
const DefaultNewOrderWindow = 2 * time.Minute

const maxNotifiedOrders = 500

// NewOrderNotifier alerts the business number about freshly placed orders.
// Alerted ids are remembered in memory only, so a restart may alert again for
// orders still inside the window.
type NewOrderNotifier struct {
	settings SettingsProvider
	notifier Notifier
	window   time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	notified map[string]time.Time // order id -> created_at
}

// NewNewOrderNotifier creates a notifier; a non-positive window selects
// DefaultNewOrderWindow.
func NewNewOrderNotifier(settings SettingsProvider, notifier Notifier, window time.Duration) *NewOrderNotifier {
	if window <= 0 {
		window = DefaultNewOrderWindow
	}
	return &NewOrderNotifier{
		settings: settings,
		notifier: notifier,
		window:   window,
		now:      time.Now,
		logger:   util.GetLogger(),
		notified: make(map[string]time.Time),
	}
}

// Handle inspects the current order list and alerts for every pending order
// created inside the window that has not been alerted yet. It returns the ids
// alerted by this call.
func (n *NewOrderNotifier) Handle(ctx context.Context, orders []models.Order) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	n.prune(orders, now)

	var fresh []*models.Order
	for i := range orders {
		o := &orders[i]
		if o.Status != models.OrderStatusPending {
			continue
		}
		if _, seen := n.notified[o.ID]; seen {
			continue
		}
		if now.Sub(o.CreatedAt) > n.window {
			continue
		}
		fresh = append(fresh, o)
	}
	if len(fresh) == 0 {
		return nil
	}

	settings := n.settings.FetchSettings(ctx)
	alerted := make([]string, 0, len(fresh))
	for _, o := range fresh {
		n.notifier.Dispatch(ctx, notify.TemplateNewOrder, settings.WhatsappNumber, notify.ComposeNewOrder(o))
		n.notified[o.ID] = o.CreatedAt
		alerted = append(alerted, o.ID)
	}
	n.enforceBound()

	n.logger.Debug("New order alerts sent", zap.Strings("order_ids", alerted))
	return alerted
}

// prune forgets ids that left the list or aged out of the window
func (n *NewOrderNotifier) prune(orders []models.Order, now time.Time) {
	present := make(map[string]struct{}, len(orders))
	for i := range orders {
		present[orders[i].ID] = struct{}{}
	}
	for id, createdAt := range n.notified {
		if _, ok := present[id]; !ok || now.Sub(createdAt) > n.window {
			delete(n.notified, id)
		}
	}
}

func (n *NewOrderNotifier) enforceBound() {
	if len(n.notified) <= maxNotifiedOrders {
		return
	}
	ids := make([]string, 0, len(n.notified))
	for id := range n.notified {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return n.notified[ids[i]].Before(n.notified[ids[j]])
	})
	for _, id := range ids[:len(ids)-maxNotifiedOrders] {
		delete(n.notified, id)
	}
}
