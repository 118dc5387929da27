package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/toughpos/internal/domain"
)

func txLine(id string, ts time.Time, qty int, price int64) string {
	sub := int64(qty) * price
	return fmt.Sprintf(`%s|%s|[{"product_id":1,"nama":"Kopi","qty":%d,"harga":%d,"subtotal":%d}]|%d|admin`,
		id, ts.Format(time.RFC3339Nano), qty, price, sub, sub)
}

func reportFixture(t *testing.T) *fixture {
	yesterday := testNow.AddDate(0, 0, -1)
	return setupFixture(t,
		[]string{
			product("1|Kopi|15000|3"),
			product("2|Roti|12000|40"),
			product("3|Teh|5000|9"),
		},
		[]string{
			txLine("TRX001", time.Date(2024, 3, 13, 23, 59, 59, 0, time.UTC), 1, 15000),
			txLine("TRX002", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), 2, 15000),
			txLine("TRX003", time.Date(2024, 3, 14, 12, 30, 0, 0, time.UTC), 1, 10000),
			txLine("TRX004", time.Date(2024, 3, 14, 23, 59, 59, 999, time.UTC), 4, 5000),
			txLine("TRX005", yesterday.Add(-48*time.Hour), 3, 1000),
		})
}

func TestTodayExcludesOtherDays(t *testing.T) {
	f := reportFixture(t)

	report, err := f.reportService().Today()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", report.Date)
	assert.Equal(t, 3, report.TotalTransactions)
	assert.True(t, decimal.NewFromInt(60000).Equal(report.TotalRevenue), report.TotalRevenue.String())
	assert.Equal(t, 7, report.ItemsSold)
	assert.True(t, decimal.NewFromInt(20000).Equal(report.AverageTicket))
	assert.True(t, decimal.NewFromInt(20000).Equal(report.MedianTicket))

	var ids []string
	for _, tx := range report.Transactions {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"TRX004", "TRX003", "TRX002"}, ids)
}

func TestDailyReportForOtherDate(t *testing.T) {
	f := reportFixture(t)
	svc := f.reportService()

	report, err := svc.Daily(time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalTransactions)
	assert.Equal(t, "TRX001", report.Transactions[0].ID)

	report, err = svc.Daily(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalTransactions)
	assert.True(t, report.TotalRevenue.IsZero())
	assert.True(t, report.AverageTicket.IsZero())
	assert.NotNil(t, report.Transactions)
}

func TestDailyUsesConfiguredLocation(t *testing.T) {
	f := reportFixture(t)
	jakarta := time.FixedZone("WIB", 7*3600)
	svc := NewReportService(f.products, f.txs, 10, jakarta).WithClock(func() time.Time { return testNow })

	// 2024-03-13T23:59:59Z is already the 14th in UTC+7, 2024-03-14T23:59:59Z is the 15th
	report, err := svc.Today()
	require.NoError(t, err)
	var ids []string
	for _, tx := range report.Transactions {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"TRX003", "TRX002", "TRX001"}, ids)
}

func TestRangeIsInclusive(t *testing.T) {
	f := reportFixture(t)
	svc := f.reportService()

	txs, err := svc.Range(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, txs, 4)
	assert.Equal(t, "TRX004", txs[0].ID)
	assert.Equal(t, "TRX001", txs[3].ID)

	txs, err = svc.Range(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestDashboard(t *testing.T) {
	f := reportFixture(t)

	stats, err := f.reportService().Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", stats.Date)
	assert.Equal(t, 3, stats.TodayTransactions)
	assert.True(t, decimal.NewFromInt(60000).Equal(stats.TodayRevenue))
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 5, stats.TotalTransactions)
	assert.True(t, decimal.NewFromInt(78000).Equal(stats.TotalRevenue), stats.TotalRevenue.String())
	assert.Equal(t, 2, stats.LowStockCount)
	require.Len(t, stats.LowStockProducts, 2)
	assert.Equal(t, "Kopi", stats.LowStockProducts[0].Name)
	require.Len(t, stats.RecentTransactions, 5)
	assert.Equal(t, "TRX004", stats.RecentTransactions[0].ID)
}

func TestDashboardLimitsLowStockList(t *testing.T) {
	var lines []string
	for i := 1; i <= 8; i++ {
		lines = append(lines, product(fmt.Sprintf("%d|Item %d|100|%d", i, i, i)))
	}
	f := setupFixture(t, lines, nil)

	stats, err := f.reportService().Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, stats.LowStockCount)
	require.Len(t, stats.LowStockProducts, 5)
	assert.Equal(t, 1, stats.LowStockProducts[0].Stock)
	assert.Empty(t, stats.RecentTransactions)
	assert.True(t, stats.TotalRevenue.IsZero())
}

func TestLessTxBreaksTiesByCounter(t *testing.T) {
	a := domain.Transaction{ID: "TRX999", Timestamp: testNow}
	b := domain.Transaction{ID: "TRX1000", Timestamp: testNow}
	assert.True(t, lessTx(a, b))
	assert.False(t, lessTx(b, a))
}
