package events

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
	"github.com/talkincode/toughpos/config"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/pkg/metrics"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// RecordSales writes checkout count, revenue and item metrics for every transaction
func RecordSales(bus *Bus) error {
	return bus.OnTransactionCreated(func(tx domain.Transaction) {
		cashier := metrics.Label("cashier", tx.Cashier)
		metrics.Record(metrics.CheckoutCount, 1, cashier)
		metrics.Record(metrics.CheckoutRevenue, tx.Total.InexactFloat64(), cashier)
		metrics.Record(metrics.CheckoutItems, float64(tx.ItemsSold()), cashier)
	})
}

// MailSender is satisfied by *gomail.Dialer
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// StockMailer emails low-stock alerts, at most once per product per interval
type StockMailer struct {
	cfg      config.SmtpConfig
	appName  string
	sender   MailSender
	interval time.Duration

	mu   sync.Mutex
	sent map[int64]time.Time
}

func NewStockMailer(cfg config.SmtpConfig, appName string) *StockMailer {
	return &StockMailer{
		cfg:      cfg,
		appName:  appName,
		sender:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		interval: time.Hour,
		sent:     make(map[int64]time.Time),
	}
}

// WithSender swaps the mail transport
func (m *StockMailer) WithSender(s MailSender) *StockMailer {
	m.sender = s
	return m
}

// Subscribe hands every low-stock event to the bus worker pool
func (m *StockMailer) Subscribe(bus *Bus) error {
	return bus.OnStockLow(func(p domain.Product, threshold int) {
		bus.Go("stock-mail", func() {
			if err := m.Notify(p, threshold); err != nil {
				zap.L().Error("send low stock mail failed", zap.Int64("product_id", p.ID), zap.Error(err))
			}
		})
	})
}

// Notify sends one alert unless the same product was reported within the interval
func (m *StockMailer) Notify(p domain.Product, threshold int) error {
	if len(m.cfg.To) == 0 {
		return nil
	}
	m.mu.Lock()
	if last, ok := m.sent[p.ID]; ok && time.Since(last) < m.interval {
		m.mu.Unlock()
		return nil
	}
	m.sent[p.ID] = time.Now()
	m.mu.Unlock()

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To...)
	msg.SetHeader("Subject", fmt.Sprintf("[%s] Low stock: %s", m.appName, p.Name))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Product %d (%s) has %d left in stock, below the threshold of %d.\n",
		p.ID, p.Name, p.Stock, threshold))
	if err := m.sender.DialAndSend(msg); err != nil {
		m.mu.Lock()
		delete(m.sent, p.ID)
		m.mu.Unlock()
		return errors.Wrap(err, "smtp send")
	}
	zap.L().Info("low stock mail sent",
		zap.Int64("product_id", p.ID),
		zap.String("to", strings.Join(m.cfg.To, ",")))
	return nil
}

// TransactionWebhook posts every completed transaction as JSON to a configured URL
type TransactionWebhook struct {
	url     string
	timeout time.Duration
}

func NewTransactionWebhook(cfg config.WebhookConfig) *TransactionWebhook {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TransactionWebhook{url: cfg.URL, timeout: timeout}
}

func (w *TransactionWebhook) Subscribe(bus *Bus) error {
	return bus.OnTransactionCreated(func(tx domain.Transaction) {
		bus.Go("transaction-webhook", func() {
			if err := w.Post(tx); err != nil {
				zap.L().Error("transaction webhook failed", zap.String("transaction_id", tx.ID), zap.Error(err))
			}
		})
	})
}

// Post delivers one transaction. Any non-2xx status is an error.
func (w *TransactionWebhook) Post(tx domain.Transaction) error {
	var code int
	err := gout.POST(w.url).
		SetHeader(gout.H{"X-Event": TopicTransactionCreated}).
		SetJSON(tx).
		SetTimeout(w.timeout).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "post %s", w.url)
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return errors.Errorf("post %s: unexpected status %d", w.url, code)
	}
	return nil
}
