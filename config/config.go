package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TOUGHPOS_"

// SysConfig system settings
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Language string `yaml:"language"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server settings
type WebConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"`
}

// StoreConfig flat-file storage and shop rules
type StoreConfig struct {
	ProductsFile      string `yaml:"products_file"`
	TransactionsFile  string `yaml:"transactions_file"`
	JournalFile       string `yaml:"journal_file"`
	LowStockThreshold int    `yaml:"low_stock_threshold"`
	DefaultCashier    string `yaml:"default_cashier"`
	SeedDemo          bool   `yaml:"seed_demo"`
}

// LogConfig logging settings
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// SmtpConfig outgoing mail for stock alerts
type SmtpConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// WebhookConfig outgoing transaction webhook
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// NotifyConfig notification fan-out
type NotifyConfig struct {
	Workers int           `yaml:"workers"`
	Smtp    SmtpConfig    `yaml:"smtp"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// BackupConfig SFTP backup of the data files
type BackupConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Schedule       string `yaml:"schedule"`
	Addr           string `yaml:"addr"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	RemoteDir      string `yaml:"remote_dir"`
	KnownHostsFile string `yaml:"known_hosts_file"`
}

type AppConfig struct {
	System SysConfig    `yaml:"system"`
	Web    WebConfig    `yaml:"web"`
	Store  StoreConfig  `yaml:"store"`
	Logger LogConfig    `yaml:"logger"`
	Notify NotifyConfig `yaml:"notify"`
	Backup BackupConfig `yaml:"backup"`
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetBackupDir() string {
	return path.Join(c.System.Workdir, "backup")
}

// ResolveDataPath returns p unchanged when absolute, otherwise joined to the data dir.
func (c *AppConfig) ResolveDataPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.GetDataDir(), p)
}

func (c *AppConfig) ProductsPath() string {
	return c.ResolveDataPath(c.Store.ProductsFile)
}

func (c *AppConfig) TransactionsPath() string {
	return c.ResolveDataPath(c.Store.TransactionsFile)
}

func (c *AppConfig) JournalPath() string {
	return c.ResolveDataPath(c.Store.JournalFile)
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetDataDir(), c.GetLogDir(), c.GetBackupDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create dir %s", dir)
		}
	}
	return nil
}

// DefaultAppConfig is used when no config file is given
var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "ToughPOS",
		Location: "Asia/Jakarta",
		Workdir:  "/var/toughpos",
		Language: "id",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   8000,
		Secret: "9b6de5cc-0731-4bf1-8b2a-toughpos",
	},
	Store: StoreConfig{
		ProductsFile:      "stok.txt",
		TransactionsFile:  "laporan_penjualan.txt",
		JournalFile:       "checkout.journal",
		LowStockThreshold: 10,
		DefaultCashier:    "admin",
		SeedDemo:          false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/toughpos/logs/toughpos.log",
	},
	Notify: NotifyConfig{
		Workers: 4,
		Smtp:    SmtpConfig{Port: 587},
		Webhook: WebhookConfig{Timeout: 5},
	},
	Backup: BackupConfig{
		Schedule:  "@daily",
		RemoteDir: "toughpos-backup",
	},
}

// LoadConfig reads the yaml file (optional) and then applies TOUGHPOS_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	}

	setEnvString("SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvString("SYSTEM_LOCATION", &cfg.System.Location)
	setEnvString("SYSTEM_LANGUAGE", &cfg.System.Language)
	setEnvBool("SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvString("WEB_HOST", &cfg.Web.Host)
	setEnvInt("WEB_PORT", &cfg.Web.Port)
	setEnvString("WEB_SECRET", &cfg.Web.Secret)
	setEnvString("STORE_PRODUCTS_FILE", &cfg.Store.ProductsFile)
	setEnvString("STORE_TRANSACTIONS_FILE", &cfg.Store.TransactionsFile)
	setEnvInt("STORE_LOW_STOCK_THRESHOLD", &cfg.Store.LowStockThreshold)
	setEnvString("STORE_DEFAULT_CASHIER", &cfg.Store.DefaultCashier)
	setEnvBool("STORE_SEED_DEMO", &cfg.Store.SeedDemo)
	setEnvString("LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBool("LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvString("LOGGER_FILENAME", &cfg.Logger.Filename)
	setEnvBool("NOTIFY_WEBHOOK_ENABLED", &cfg.Notify.Webhook.Enabled)
	setEnvString("NOTIFY_WEBHOOK_URL", &cfg.Notify.Webhook.URL)
	setEnvBool("NOTIFY_SMTP_ENABLED", &cfg.Notify.Smtp.Enabled)
	setEnvString("NOTIFY_SMTP_PASSWORD", &cfg.Notify.Smtp.Password)
	setEnvBool("BACKUP_ENABLED", &cfg.Backup.Enabled)
	setEnvString("BACKUP_PASSWORD", &cfg.Backup.Password)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.System.Workdir) == "" {
		return errors.New("system.workdir must not be empty")
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return errors.Errorf("web.port out of range: %d", c.Web.Port)
	}
	if c.Store.ProductsFile == "" || c.Store.TransactionsFile == "" {
		return errors.New("store.products_file and store.transactions_file are required")
	}
	if c.Store.LowStockThreshold < 0 {
		return errors.New("store.low_stock_threshold must be >= 0")
	}
	if c.Store.DefaultCashier == "" {
		c.Store.DefaultCashier = "admin"
	}
	if c.Notify.Webhook.Enabled && c.Notify.Webhook.URL == "" {
		return errors.New("notify.webhook.url is required when the webhook is enabled")
	}
	if c.Backup.Enabled && c.Backup.Addr == "" {
		return errors.New("backup.addr is required when backup is enabled")
	}
	return nil
}

func setEnvString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setEnvInt(name string, dst *int) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && strings.TrimSpace(v) != "" {
		if n, err := cast.ToIntE(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setEnvBool(name string, dst *bool) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && strings.TrimSpace(v) != "" {
		if b, err := cast.ToBoolE(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}
