package service

import (
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/journal"
)

// ProductStore is implemented by repository.ProductRepository
type ProductStore interface {
	List() ([]domain.Product, error)
	Get(id int64) (domain.Product, error)
	Create(in domain.ProductCreate) (domain.Product, error)
	Update(id int64, u domain.ProductUpdate) (domain.Product, error)
	Delete(id int64) error
	DecrementStock(quantities map[int64]int) ([]domain.Product, error)
	AddStock(id int64, qty int) (domain.Product, error)
}

// TransactionStore is implemented by repository.TransactionRepository
type TransactionStore interface {
	List() ([]domain.Transaction, error)
	Get(id string) (domain.Transaction, error)
	Create(tx domain.Transaction) (domain.Transaction, error)
}

// CheckoutJournal is implemented by journal.Journal
type CheckoutJournal interface {
	Begin(cashier string, items []domain.LineItem, total decimal.Decimal) (string, error)
	Advance(id string, stage journal.Stage, cause error) error
	Commit(id string) error
}

// EventPublisher is implemented by events.Bus
type EventPublisher interface {
	TransactionCreated(tx domain.Transaction)
	StockLow(p domain.Product, threshold int)
}

type nopPublisher struct{}

func (nopPublisher) TransactionCreated(domain.Transaction) {}
func (nopPublisher) StockLow(domain.Product, int)          {}
