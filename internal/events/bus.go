// Package events fans domain events out to background subscribers: sales metrics,
// low-stock mail and the transaction webhook.
package events

import (
	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/talkincode/toughpos/internal/domain"
	"go.uber.org/zap"
)

const (
	TopicTransactionCreated = "transaction:created"
	TopicStockLow           = "stock:low"
)

// Bus wraps an async EventBus and a bounded worker pool for slow notifier I/O
type Bus struct {
	bus  EventBus.Bus
	pool *ants.Pool
}

// NewBus creates the bus with a pool of the given size (at least one worker)
func NewBus(workers int) (*Bus, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		zap.S().Errorf("event worker panic: %v", p)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "create event worker pool")
	}
	return &Bus{bus: EventBus.New(), pool: pool}, nil
}

// TransactionCreated publishes a completed checkout
func (b *Bus) TransactionCreated(tx domain.Transaction) {
	b.bus.Publish(TopicTransactionCreated, tx)
}

// StockLow publishes a product that dropped below the threshold
func (b *Bus) StockLow(p domain.Product, threshold int) {
	b.bus.Publish(TopicStockLow, p, threshold)
}

// OnTransactionCreated registers fn for completed checkouts
func (b *Bus) OnTransactionCreated(fn func(tx domain.Transaction)) error {
	return b.bus.SubscribeAsync(TopicTransactionCreated, fn, false)
}

// OnStockLow registers fn for low-stock events
func (b *Bus) OnStockLow(fn func(p domain.Product, threshold int)) error {
	return b.bus.SubscribeAsync(TopicStockLow, fn, false)
}

// Go runs task on the worker pool, blocking while every worker is busy. A released
// pool drops the task with a warning.
func (b *Bus) Go(name string, task func()) {
	if err := b.pool.Submit(task); err != nil {
		zap.L().Warn("event task dropped", zap.String("task", name), zap.Error(err))
	}
}

// Wait blocks until every async subscriber has returned. Tasks handed to the pool may
// still be running.
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}

// Close drains subscribers and releases the pool
func (b *Bus) Close() {
	b.bus.WaitAsync()
	b.pool.Release()
}

// Running number of busy pool workers
func (b *Bus) Running() int {
	return b.pool.Running()
}
