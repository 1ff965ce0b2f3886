package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr        string
		VerifyUsers bool `mapstructure:"verify_users"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN      string
		MaxConns int32 `mapstructure:"max_conns"`
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Kafka struct {
		Brokers []string
		Topic   string
	} `mapstructure:"kafka"`

	SendGrid struct {
		APIKey string `mapstructure:"api_key"`
		From   string
		To     string
	} `mapstructure:"sendgrid"`

	Redis struct {
		Addr           string
		IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
	} `mapstructure:"redis"`

	Tracing struct {
		Enabled  bool
		Endpoint string
	} `mapstructure:"tracing"`

	Ledger struct {
		// Return sheets to stock when a recorded material line is deleted.
		ReturnStockOnDelete bool `mapstructure:"return_stock_on_delete"`
		// Resolve free-text material names with ILIKE when no material id is given.
		FuzzyMaterialMatch bool `mapstructure:"fuzzy_material_match"`
		MinEditReason      int  `mapstructure:"min_edit_reason"`
	} `mapstructure:"ledger"`
}

func Load(path string) (Config, error) {
	// .env is optional; real environment wins over it
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.verify_users", true)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("kafka.topic", "pressops-notifications")
	v.SetDefault("redis.idempotency_ttl", 24*time.Hour)
	v.SetDefault("ledger.return_stock_on_delete", false)
	v.SetDefault("ledger.fuzzy_material_match", false)
	v.SetDefault("ledger.min_edit_reason", 5)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
