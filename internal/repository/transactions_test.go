package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/toughpos/internal/domain"
)

func setupTransactions(t *testing.T, content string) *TransactionRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "laporan_penjualan.txt")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return NewTransactionRepository(path)
}

func sampleTransaction() domain.Transaction {
	widget := domain.Product{ID: 1, Name: "Widget", Price: decimal.NewFromInt(1000)}
	tea := domain.Product{ID: 4, Name: "Teh \"Botol\"", Price: decimal.RequireFromString("3500.5")}
	items := []domain.LineItem{domain.NewLineItem(widget, 3), domain.NewLineItem(tea, 2)}
	return domain.Transaction{
		Timestamp: fixedNow,
		Items:     items,
		Total:     domain.SumSubtotals(items),
		Cashier:   "admin",
	}
}

func TestTransactionCreateSequentialIDs(t *testing.T) {
	repo := setupTransactions(t, "")
	for i, want := range []string{"TRX001", "TRX002", "TRX003"} {
		tx, err := repo.Create(sampleTransaction())
		require.NoError(t, err, "create %d", i)
		assert.Equal(t, want, tx.ID)
	}
}

func TestTransactionNextIDFollowsHighestCounter(t *testing.T) {
	items := `[{"product_id":1,"nama":"Widget","qty":1,"harga":1000,"subtotal":1000}]`
	repo := setupTransactions(t, "id|timestamp|items_json|total|cashier\n"+
		"TRX009|2024-03-01T10:00:00Z|"+items+"|1000|admin\n"+
		"TRX002|2024-03-01T11:00:00Z|"+items+"|1000|admin\n")

	tx, err := repo.Create(sampleTransaction())
	require.NoError(t, err)
	assert.Equal(t, "TRX010", tx.ID)

	repo = setupTransactions(t, "id|timestamp|items_json|total|cashier\n"+
		"TRX999|2024-03-01T10:00:00Z|"+items+"|1000|admin\n")
	tx, err = repo.Create(sampleTransaction())
	require.NoError(t, err)
	assert.Equal(t, "TRX1000", tx.ID)
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := setupTransactions(t, "")
	want := sampleTransaction()
	created, err := repo.Create(want)
	require.NoError(t, err)

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, want.Timestamp, got.Timestamp)
	assert.Equal(t, want.Cashier, got.Cashier)
	assert.True(t, want.Total.Equal(got.Total))
	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		w, g := want.Items[i], got.Items[i]
		assert.Equal(t, w.ProductID, g.ProductID)
		assert.Equal(t, w.Name, g.Name)
		assert.Equal(t, w.Qty, g.Qty)
		assert.True(t, w.UnitPrice.Equal(g.UnitPrice), "unit price of item %d", i)
		assert.True(t, w.Subtotal.Equal(g.Subtotal), "subtotal of item %d", i)
	}

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data),
		`TRX001|2024-03-14T09:30:00Z|[{"product_id":1,"nama":"Widget","qty":3,"harga":1000,"subtotal":3000},`)
	assert.Contains(t, string(data), `|10001|admin`)
}

func TestTransactionCreateValidation(t *testing.T) {
	repo := setupTransactions(t, "")

	tx := sampleTransaction()
	tx.Total = tx.Total.Add(decimal.NewFromInt(1))
	_, err := repo.Create(tx)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))

	tx = sampleTransaction()
	tx.Items = nil
	tx.Total = decimal.Zero
	_, err = repo.Create(tx)
	assert.True(t, errors.As(err, &ve))

	tx = sampleTransaction()
	tx.Cashier = "ka|sir"
	_, err = repo.Create(tx)
	assert.True(t, errors.As(err, &ve))

	txs, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestTransactionGetNotFound(t *testing.T) {
	repo := setupTransactions(t, "")
	_, err := repo.Get("TRX404")
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestTransactionListRejectsCorruptRecords(t *testing.T) {
	items := `[{"product_id":1,"nama":"Widget","qty":1,"harga":1000,"subtotal":1000}]`
	cases := map[string]string{
		"foreign id":    "INV001|2024-03-01T10:00:00Z|" + items + "|1000|admin\n",
		"bad json":      "TRX001|2024-03-01T10:00:00Z|[{\"product_id\":|1000|admin\n",
		"bad total":     "TRX001|2024-03-01T10:00:00Z|" + items + "|lots|admin\n",
		"bad timestamp": "TRX001|soon|" + items + "|1000|admin\n",
		"duplicate id": "TRX001|2024-03-01T10:00:00Z|" + items + "|1000|admin\n" +
			"TRX001|2024-03-01T11:00:00Z|" + items + "|1000|admin\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			repo := setupTransactions(t, "id|timestamp|items_json|total|cashier\n"+body)
			_, err := repo.List()
			var se *domain.StorageError
			assert.True(t, errors.As(err, &se), "got %v", err)

			_, err = repo.Create(sampleTransaction())
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestTransactionReadsLegacyItems(t *testing.T) {
	repo := setupTransactions(t, "id|timestamp|items_json|total|cashier\n"+
		`TRX001|2024-03-01T10:00:00.500000|[{"product_id": 2, "nama": "Kopi", "qty": 2, "harga": 15000.0, "subtotal": 30000.0}]|30000.0|kasir1`+"\n")

	txs, err := repo.List()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "kasir1", tx.Cashier)
	assert.Equal(t, 2, tx.ItemsSold())
	assert.True(t, decimal.NewFromInt(30000).Equal(tx.Total))
	assert.True(t, decimal.NewFromInt(15000).Equal(tx.Items[0].UnitPrice))
	assert.Equal(t, 500*time.Millisecond, time.Duration(tx.Timestamp.Nanosecond()))
}
