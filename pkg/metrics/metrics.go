package metrics

import (
	"errors"
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

// Metric names written by the application
const (
	CheckoutCount    = "pos_checkout_count"
	CheckoutRevenue  = "pos_checkout_revenue"
	CheckoutItems    = "pos_checkout_items"
	CheckoutFailures = "pos_checkout_failures"
	StorageReadMs    = "storage_read_ms"
	StorageWriteMs   = "storage_write_ms"
	SystemCpuUse     = "system_cpuuse"
	SystemMemUse     = "system_memuse"
	ProcessMemUse    = "toughpos_memuse"
	DataDiskUse      = "data_disk_use"
	LowStockCount    = "low_stock_count"
	PendingCheckouts = "pending_checkouts"
)

// Point a single sample returned by Query
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

var (
	mu      sync.RWMutex
	storage tstorage.Storage
)

// InitMetrics opens the time series storage under <workdir>/metrics.
// Until it is called every write is a no-op.
func InitMetrics(workdir string) error {
	st, err := tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Milliseconds),
		tstorage.WithPartitionDuration(time.Hour),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = st
	mu.Unlock()
	return nil
}

// InitMemoryMetrics opens an in-memory storage, used by tests
func InitMemoryMetrics() error {
	st, err := tstorage.NewStorage(tstorage.WithTimestampPrecision(tstorage.Milliseconds))
	if err != nil {
		return err
	}
	mu.Lock()
	storage = st
	mu.Unlock()
	return nil
}

// SetGauge records an integer sample
func SetGauge(name string, value int64) {
	Record(name, float64(value))
}

// Record writes one sample stamped with the current time. A labelled sample is also
// written to the unlabelled series of the same name, which holds every sample.
func Record(name string, value float64, labels ...tstorage.Label) {
	mu.RLock()
	st := storage
	mu.RUnlock()
	if st == nil {
		return
	}
	point := tstorage.DataPoint{Timestamp: time.Now().UnixMilli(), Value: value}
	rows := []tstorage.Row{{Metric: name, DataPoint: point}}
	if len(labels) > 0 {
		rows = append(rows, tstorage.Row{Metric: name, Labels: labels, DataPoint: point})
	}
	if err := st.InsertRows(rows); err != nil {
		zap.L().Warn("metrics insert failed", zap.String("metric", name), zap.Error(err))
	}
}

// ObserveSince records the elapsed milliseconds since start
func ObserveSince(name string, start time.Time, labels ...tstorage.Label) {
	Record(name, float64(time.Since(start).Microseconds())/1000.0, labels...)
}

// Label shorthand for tstorage.Label
func Label(name, value string) tstorage.Label {
	return tstorage.Label{Name: name, Value: value}
}

// Query returns the samples of a metric between start and end. Without labels it
// returns the series of every sample under that name.
func Query(name string, start, end time.Time, labels ...tstorage.Label) ([]Point, error) {
	mu.RLock()
	st := storage
	mu.RUnlock()
	if st == nil {
		return []Point{}, nil
	}
	points, err := st.Select(name, labels, start.UnixMilli(), end.UnixMilli()+1)
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return []Point{}, nil
	}
	if err != nil {
		return nil, err
	}
	result := make([]Point, 0, len(points))
	for _, p := range points {
		result = append(result, Point{Timestamp: time.UnixMilli(p.Timestamp), Value: p.Value})
	}
	return result, nil
}

// Close flushes and closes the storage
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
