package service

import (
	"context"
	"time"

	"github.com/google/btree"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	dateLayout         = "2006-01-02"
	dashboardLowStockN = 5
	dashboardRecentN   = 5
)

// DailyReport sales of one calendar day
type DailyReport struct {
	Date              string               `json:"date"`
	TotalTransactions int                  `json:"total_transactions"`
	TotalRevenue      decimal.Decimal      `json:"total_revenue"`
	ItemsSold         int                  `json:"items_sold"`
	AverageTicket     decimal.Decimal      `json:"average_ticket"`
	MedianTicket      decimal.Decimal      `json:"median_ticket"`
	Transactions      []domain.Transaction `json:"transactions"`
}

// DashboardStats figures shown on the dashboard
type DashboardStats struct {
	Date               string               `json:"date"`
	TodayTransactions  int                  `json:"today_transactions"`
	TodayRevenue       decimal.Decimal      `json:"today_revenue"`
	TodayItemsSold     int                  `json:"today_items_sold"`
	TotalProducts      int                  `json:"total_products"`
	TotalTransactions  int                  `json:"total_transactions"`
	TotalRevenue       decimal.Decimal      `json:"total_revenue"`
	LowStockCount      int                  `json:"low_stock_count"`
	LowStockThreshold  int                  `json:"low_stock_threshold"`
	LowStockProducts   []domain.Product     `json:"low_stock_products"`
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
}

// ReportService aggregates sales on every call, nothing is cached
type ReportService struct {
	products  ProductStore
	txs       TransactionStore
	threshold int
	loc       *time.Location
	now       func() time.Time
}

func NewReportService(products ProductStore, txs TransactionStore, lowStockThreshold int, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{products: products, txs: txs, threshold: lowStockThreshold, loc: loc, now: time.Now}
}

// WithClock replaces the clock that decides what "today" is
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

func (s *ReportService) Location() *time.Location {
	return s.loc
}

// Today is Daily for the current local date
func (s *ReportService) Today() (DailyReport, error) {
	return s.Daily(s.now())
}

// Daily reports the transactions whose local calendar date equals the date of day
func (s *ReportService) Daily(day time.Time) (DailyReport, error) {
	txs, err := s.Range(day, day)
	if err != nil {
		return DailyReport{}, err
	}
	return summarize(s.dayStart(day).Format(dateLayout), txs), nil
}

// Range returns transactions dated from start through end (calendar dates, inclusive),
// newest first
func (s *ReportService) Range(start, end time.Time) ([]domain.Transaction, error) {
	txs, err := s.txs.List()
	if err != nil {
		return nil, err
	}
	return s.index(txs).between(s.dayStart(start), s.dayStart(end).AddDate(0, 0, 1)), nil
}

// Dashboard loads products and transactions concurrently and aggregates both
func (s *ReportService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var (
		products []domain.Product
		txs      []domain.Transaction
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.List()
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.txs.List()
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	now := s.now()
	idx := s.index(txs)
	today := summarize(s.dayStart(now).Format(dateLayout),
		idx.between(s.dayStart(now), s.dayStart(now).AddDate(0, 0, 1)))
	low := filterLowStock(products, s.threshold)

	out := DashboardStats{
		Date:              today.Date,
		TodayTransactions: today.TotalTransactions,
		TodayRevenue:      today.TotalRevenue,
		TodayItemsSold:    today.ItemsSold,
		TotalProducts:     len(products),
		TotalTransactions: len(txs),
		TotalRevenue:      decimal.Zero,
		LowStockCount:     len(low),
		LowStockThreshold: s.threshold,
		LowStockProducts:  low,
	}
	for _, tx := range txs {
		out.TotalRevenue = out.TotalRevenue.Add(tx.Total)
	}
	if len(low) > dashboardLowStockN {
		out.LowStockProducts = low[:dashboardLowStockN]
	}
	out.RecentTransactions = idx.newest(dashboardRecentN)
	return out, nil
}

func (s *ReportService) dayStart(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// txIndex orders transactions by timestamp, ties broken by id
type txIndex struct {
	tree *btree.BTreeG[domain.Transaction]
}

func lessTx(a, b domain.Transaction) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return domain.LessTransactionID(a.ID, b.ID)
}

func (s *ReportService) index(txs []domain.Transaction) txIndex {
	tree := btree.NewG[domain.Transaction](16, lessTx)
	for _, tx := range txs {
		tree.ReplaceOrInsert(tx)
	}
	return txIndex{tree: tree}
}

// between returns transactions with from <= timestamp < to, newest first
func (x txIndex) between(from, to time.Time) []domain.Transaction {
	result := make([]domain.Transaction, 0)
	// an empty id sorts before every real id at the same instant
	x.tree.DescendLessOrEqual(domain.Transaction{Timestamp: to}, func(tx domain.Transaction) bool {
		if tx.Timestamp.Before(from) {
			return false
		}
		if tx.Timestamp.Before(to) {
			result = append(result, tx)
		}
		return true
	})
	return result
}

func (x txIndex) newest(n int) []domain.Transaction {
	result := make([]domain.Transaction, 0, n)
	x.tree.Descend(func(tx domain.Transaction) bool {
		result = append(result, tx)
		return len(result) < n
	})
	return result
}

func summarize(date string, txs []domain.Transaction) DailyReport {
	report := DailyReport{
		Date:          date,
		TotalRevenue:  decimal.Zero,
		AverageTicket: decimal.Zero,
		MedianTicket:  decimal.Zero,
		Transactions:  txs,
	}
	tickets := make(stats.Float64Data, 0, len(txs))
	for _, tx := range txs {
		report.TotalTransactions++
		report.TotalRevenue = report.TotalRevenue.Add(tx.Total)
		report.ItemsSold += tx.ItemsSold()
		tickets = append(tickets, tx.Total.InexactFloat64())
	}
	if len(tickets) > 0 {
		report.AverageTicket = report.TotalRevenue.Div(decimal.NewFromInt(int64(len(tickets)))).Round(2)
		if median, err := tickets.Median(); err == nil {
			report.MedianTicket = decimal.NewFromFloat(median).Round(2)
		}
	}
	return report
}
