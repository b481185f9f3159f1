package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"delivery-service/internal/util"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ChangeChannel is the NOTIFY channel the table triggers publish on
const ChangeChannel = "table_changes"

// Watched tables
const (
	TableOrders   = "orders"
	TableProducts = "products"
)

// OperationResync is delivered after the listener reconnects, since
// notifications sent while disconnected are lost.
const OperationResync = "RESYNC"

// ChangeEvent describes one row insert, update or delete
type ChangeEvent struct {
	Table     string `json:"table"`
	Operation string `json:"op"`
	ID        string `json:"id"`
}

// ChangeFeed fans table change notifications out to per-table subscribers
type ChangeFeed struct {
	listener *pq.Listener
	logger   *zap.Logger

	mu     sync.RWMutex
	subs   map[string]map[uint64]func(ChangeEvent)
	nextID uint64
}

// NewChangeFeed creates a feed backed by a dedicated LISTEN connection
func NewChangeFeed(databaseURL string) *ChangeFeed {
	feed := newChangeFeed()
	feed.listener = pq.NewListener(databaseURL, 2*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				feed.logger.Warn("Change listener event", zap.Int("event", int(ev)), zap.Error(err))
			}
		})
	return feed
}

func newChangeFeed() *ChangeFeed {
	return &ChangeFeed{
		logger: util.GetLogger(),
		subs:   make(map[string]map[uint64]func(ChangeEvent)),
	}
}

// Subscribe registers fn for changes on table. The returned func removes it.
func (f *ChangeFeed) Subscribe(table string, fn func(ChangeEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	if f.subs[table] == nil {
		f.subs[table] = make(map[uint64]func(ChangeEvent))
	}
	f.subs[table][id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[table], id)
	}
}

// Publish delivers ev to every subscriber of its table
func (f *ChangeFeed) Publish(ev ChangeEvent) {
	f.mu.RLock()
	handlers := make([]func(ChangeEvent), 0, len(f.subs[ev.Table]))
	for _, fn := range f.subs[ev.Table] {
		handlers = append(handlers, fn)
	}
	f.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func (f *ChangeFeed) resync() {
	f.mu.RLock()
	tables := make([]string, 0, len(f.subs))
	for table := range f.subs {
		tables = append(tables, table)
	}
	f.mu.RUnlock()

	for _, table := range tables {
		f.Publish(ChangeEvent{Table: table, Operation: OperationResync})
	}
}

// Run listens for notifications until ctx is cancelled
func (f *ChangeFeed) Run(ctx context.Context) error {
	if f.listener == nil {
		return fmt.Errorf("change feed has no listener")
	}
	if err := f.listener.Listen(ChangeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", ChangeChannel, err)
	}
	f.logger.Info("Change feed listening", zap.String("channel", ChangeChannel))

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-f.listener.Notify:
			if n == nil {
				f.logger.Info("Change listener reconnected, resyncing subscribers")
				f.resync()
				continue
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				f.logger.Error("Malformed change notification",
					zap.String("payload", n.Extra), zap.Error(err))
				continue
			}
			f.Publish(ev)
		case <-ping.C:
			go func() {
				if err := f.listener.Ping(); err != nil {
					f.logger.Warn("Change listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

// Close closes the listener connection
func (f *ChangeFeed) Close() error {
	if f.listener == nil {
		return nil
	}
	return f.listener.Close()
}
