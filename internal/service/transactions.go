package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/journal"
	"github.com/talkincode/toughpos/pkg/metrics"
	"go.uber.org/zap"
)

// TransactionService runs checkouts and serves the transaction history
type TransactionService struct {
	products       ProductStore
	txs            TransactionStore
	journal        CheckoutJournal
	events         EventPublisher
	threshold      int
	defaultCashier string
	now            func() time.Time
	mu             sync.Mutex
}

// NewTransactionService wires a checkout pipeline. journal and events may be nil.
func NewTransactionService(products ProductStore, txs TransactionStore, j CheckoutJournal, events EventPublisher,
	lowStockThreshold int, defaultCashier string) *TransactionService {
	if events == nil {
		events = nopPublisher{}
	}
	return &TransactionService{
		products:       products,
		txs:            txs,
		journal:        j,
		events:         events,
		threshold:      lowStockThreshold,
		defaultCashier: defaultCashier,
		now:            time.Now,
	}
}

// WithClock replaces the clock used for transaction timestamps
func (s *TransactionService) WithClock(now func() time.Time) *TransactionService {
	s.now = now
	return s
}

// List returns transactions newest first
func (s *TransactionService) List() ([]domain.Transaction, error) {
	txs, err := s.txs.List()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(txs)
	return txs, nil
}

func (s *TransactionService) Get(id string) (domain.Transaction, error) {
	return s.txs.Get(strings.ToUpper(strings.TrimSpace(id)))
}

// Checkout validates every line against current stock, decrements stock and appends
// the transaction record.
//
// Stock is persisted before the record is appended. When the append fails the stock
// stays decremented and the journal marker is left pending with the cause attached.
func (s *TransactionService) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}
	req.Cashier = strings.TrimSpace(req.Cashier)
	if req.Cashier == "" {
		req.Cashier = s.defaultCashier
	}
	if err := req.Validate(); err != nil {
		s.fail("validation")
		return domain.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products.List()
	if err != nil {
		s.fail("storage")
		return domain.Transaction{}, err
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	quantities := make(map[int64]int, len(req.Items))
	items := make([]domain.LineItem, 0, len(req.Items))
	for _, line := range req.Items {
		p, ok := byID[line.ProductID]
		if !ok {
			s.fail("not_found")
			return domain.Transaction{}, domain.NewNotFoundError("product", line.ProductID)
		}
		quantities[p.ID] += line.Qty
		if quantities[p.ID] > p.Stock {
			s.fail("insufficient_stock")
			return domain.Transaction{}, &domain.InsufficientStockError{
				ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: quantities[p.ID],
			}
		}
		items = append(items, domain.NewLineItem(p, line.Qty))
	}
	draft := domain.Transaction{
		Items:   items,
		Total:   domain.SumSubtotals(items),
		Cashier: req.Cashier,
	}
	if err := draft.Validate(); err != nil {
		s.fail("validation")
		return domain.Transaction{}, err
	}
	total := draft.Total

	marker := ""
	if s.journal != nil {
		marker, err = s.journal.Begin(req.Cashier, items, total)
		if err != nil {
			s.fail("journal")
			return domain.Transaction{}, domain.NewStorageError("journal", "", err)
		}
	}

	changed, err := s.products.DecrementStock(quantities)
	if err != nil {
		s.discard(marker)
		s.fail("stock_write")
		return domain.Transaction{}, err
	}
	s.advance(marker, journal.StageStockCommitted, nil)

	draft.Timestamp = s.now()
	tx, err := s.txs.Create(draft)
	if err != nil {
		s.advance(marker, journal.StageStockCommitted, err)
		s.fail("transaction_write")
		zap.L().Error("checkout left stock decremented without a transaction record",
			zap.String("journal_marker", marker),
			zap.String("cashier", req.Cashier),
			zap.String("total", total.String()),
			zap.Error(err))
		var se *domain.StorageError
		if errors.As(err, &se) {
			return domain.Transaction{}, err
		}
		return domain.Transaction{}, domain.NewStorageError("append transaction", "", err)
	}
	s.discard(marker)

	zap.L().Info("checkout completed",
		zap.String("transaction_id", tx.ID),
		zap.String("cashier", tx.Cashier),
		zap.Int("items", tx.ItemsSold()),
		zap.String("total", tx.Total.String()))

	s.events.TransactionCreated(tx)
	for _, p := range changed {
		before := byID[p.ID].Stock
		if p.IsLowStock(s.threshold) && !byID[p.ID].IsLowStock(s.threshold) {
			zap.L().Warn("product stock fell below threshold",
				zap.Int64("product_id", p.ID), zap.Int("before", before), zap.Int("stock", p.Stock))
			s.events.StockLow(p, s.threshold)
		}
	}
	return tx, nil
}

func (s *TransactionService) fail(reason string) {
	metrics.Record(metrics.CheckoutFailures, 1, metrics.Label("reason", reason))
}

func (s *TransactionService) advance(marker string, stage journal.Stage, cause error) {
	if s.journal == nil || marker == "" {
		return
	}
	if err := s.journal.Advance(marker, stage, cause); err != nil {
		zap.L().Warn("journal advance failed", zap.String("journal_marker", marker), zap.Error(err))
	}
}

func (s *TransactionService) discard(marker string) {
	if s.journal == nil || marker == "" {
		return
	}
	if err := s.journal.Commit(marker); err != nil {
		zap.L().Warn("journal commit failed", zap.String("journal_marker", marker), zap.Error(err))
	}
}

func sortNewestFirst(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return domain.LessTransactionID(txs[j].ID, txs[i].ID)
	})
}
