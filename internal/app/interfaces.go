package app

import (
	"github.com/robfig/cron/v3"
	"github.com/talkincode/toughpos/config"
	"github.com/talkincode/toughpos/internal/events"
	"github.com/talkincode/toughpos/internal/journal"
	"github.com/talkincode/toughpos/internal/service"
)

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// ServiceProvider provides the business services
type ServiceProvider interface {
	ProductService() *service.ProductService
	TransactionService() *service.TransactionService
	ReportService() *service.ReportService
}

// JournalProvider provides the checkout journal
type JournalProvider interface {
	Journal() *journal.Journal
}

// EventProvider provides the domain event bus
type EventProvider interface {
	Events() *events.Bus
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	ConfigProvider
	ServiceProvider
	JournalProvider
	EventProvider
	SchedulerProvider

	// SeedDemoProducts adds the demo catalog when the products file is empty
	SeedDemoProducts() error
	// RunBackupNow uploads the data files immediately
	RunBackupNow() error
}
