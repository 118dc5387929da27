package service

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/journal"
	"github.com/talkincode/toughpos/internal/repository"
)

var testNow = time.Date(2024, 3, 14, 15, 4, 5, 0, time.UTC)

type fixture struct {
	dir      string
	products *repository.ProductRepository
	txs      *repository.TransactionRepository
	journal  *journal.Journal
	events   *recordingPublisher
}

// setupFixture writes the given product and transaction lines (without headers) into a
// fresh data directory
func setupFixture(t *testing.T, productLines, txLines []string) *fixture {
	t.Helper()
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "stok.txt"), repository.ProductHeader, productLines)
	writeLines(t, filepath.Join(dir, "laporan_penjualan.txt"), repository.TransactionHeader, txLines)

	j, err := journal.Open(filepath.Join(dir, "checkout.journal"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return &fixture{
		dir:      dir,
		products: repository.NewProductRepository(filepath.Join(dir, "stok.txt")).WithClock(func() time.Time { return testNow }),
		txs:      repository.NewTransactionRepository(filepath.Join(dir, "laporan_penjualan.txt")),
		journal:  j,
		events:   &recordingPublisher{},
	}
}

func writeLines(t *testing.T, path string, header []string, lines []string) {
	t.Helper()
	content := strings.Join(header, "|") + "\n"
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) productService() *ProductService {
	return NewProductService(f.products, domain.DefaultLowStockThreshold)
}

func (f *fixture) transactionService() *TransactionService {
	return NewTransactionService(f.products, f.txs, f.journal, f.events, domain.DefaultLowStockThreshold, "admin").
		WithClock(func() time.Time { return testNow })
}

func (f *fixture) reportService() *ReportService {
	return NewReportService(f.products, f.txs, domain.DefaultLowStockThreshold, time.UTC).
		WithClock(func() time.Time { return testNow })
}

func (f *fixture) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.Get(id)
	require.NoError(t, err)
	return p.Stock
}

type recordingPublisher struct {
	mu      sync.Mutex
	created []domain.Transaction
	low     []domain.Product
}

func (r *recordingPublisher) TransactionCreated(tx domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, tx)
}

func (r *recordingPublisher) StockLow(p domain.Product, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.low = append(r.low, p)
}

func product(line string) string {
	return line + "|2024-01-01T08:00:00Z"
}
