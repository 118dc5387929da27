package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Web.Port)
	assert.Equal(t, 10, cfg.Store.LowStockThreshold)
	assert.Equal(t, "/var/toughpos/data/stok.txt", cfg.ProductsPath())
	assert.Equal(t, "/var/toughpos/data/laporan_penjualan.txt", cfg.TransactionsPath())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "toughpos.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
system:
  workdir: `+dir+`
web:
  port: 9000
store:
  products_file: /srv/pos/products.txt
  transactions_file: sales.txt
  low_stock_threshold: 3
`), 0o644))

	t.Setenv("TOUGHPOS_WEB_PORT", "9100")
	t.Setenv("TOUGHPOS_STORE_DEFAULT_CASHIER", "siti")
	t.Setenv("TOUGHPOS_SYSTEM_DEBUG", "false")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Web.Port)
	assert.Equal(t, 3, cfg.Store.LowStockThreshold)
	assert.Equal(t, "siti", cfg.Store.DefaultCashier)
	assert.False(t, cfg.System.Debug)
	assert.Equal(t, "/srv/pos/products.txt", cfg.ProductsPath())
	assert.Equal(t, filepath.Join(dir, "data", "sales.txt"), cfg.TransactionsPath())

	require.NoError(t, cfg.InitDirs())
	assert.DirExists(t, cfg.GetDataDir())
	assert.DirExists(t, cfg.GetLogDir())
}

func TestLoadConfigLeavesDefaultsUntouched(t *testing.T) {
	t.Setenv("TOUGHPOS_WEB_PORT", "9200")
	_, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8000, DefaultAppConfig.Web.Port)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port", map[string]string{"TOUGHPOS_WEB_PORT": "70000"}, "web.port"},
		{"threshold", map[string]string{"TOUGHPOS_STORE_LOW_STOCK_THRESHOLD": "-1"}, "low_stock_threshold"},
		{"webhook url", map[string]string{"TOUGHPOS_NOTIFY_WEBHOOK_ENABLED": "true"}, "webhook.url"},
		{"backup addr", map[string]string{"TOUGHPOS_BACKUP_ENABLED": "1"}, "backup.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
