package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceName string         `yaml:"service_name"`
	LogLevel    string         `yaml:"log_level"`
	HTTP        HTTPConfig     `yaml:"http"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Kafka       KafkaConfig    `yaml:"kafka"`
	GDS         GDSConfig      `yaml:"gds"`
	Pricing     PricingConfig  `yaml:"pricing"`
	Booking     BookingConfig  `yaml:"booking"`
	Checkout    CheckoutConfig `yaml:"checkout"`
	Auth        AuthConfig     `yaml:"auth"`
	Worker      WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RatePerSecond  float64  `yaml:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	ReportingDSN  string `yaml:"reporting_dsn"`
	MigrateOnBoot bool   `yaml:"migrate_on_boot"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(d.Host), d.Port, dsnValue(d.User), dsnValue(d.Password), dsnValue(d.Name), dsnValue(d.SSLMode))
}

// URL is the postgres:// form expected by golang-migrate.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// dsnValue quotes a keyword/value connection string value when needed.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// ReportDSN falls back to the primary database when no replica is configured.
func (d DatabaseConfig) ReportDSN() string {
	if d.ReportingDSN != "" {
		return d.ReportingDSN
	}
	return d.DSN()
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	OrderEventsTopic   string   `yaml:"order_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type GDSConfig struct {
	BaseURL         string  `yaml:"base_url"`
	ClientID        string  `yaml:"client_id"`
	ClientSecret    string  `yaml:"client_secret"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
	SandboxDate     string  `yaml:"sandbox_date"`
	FallbackEnabled bool    `yaml:"fallback_enabled"`
	SearchCacheTTL  int     `yaml:"search_cache_ttl_seconds"`
	OfferTTLMinutes int     `yaml:"offer_ttl_minutes"`
}

type PricingConfig struct {
	Currency        string           `yaml:"currency"`
	ServiceFeeMinor int64            `yaml:"service_fee_minor"`
	TaxBasisPoints  *int64           `yaml:"tax_basis_points"`
	CommissionRate  int64            `yaml:"commission_rate_percent"`
	ExchangeRates   map[string]int64 `yaml:"exchange_rates"`
	ReferencePrefix string           `yaml:"reference_prefix"`
}

// Tax returns the configured tax rate in basis points. An explicit 0 disables tax.
func (p PricingConfig) Tax() int64 {
	if p.TaxBasisPoints == nil {
		return 0
	}
	return *p.TaxBasisPoints
}

type BookingConfig struct {
	LockTTLSeconds  int `yaml:"lock_ttl_seconds"`
	ConfirmationTTL int `yaml:"confirmation_ttl_minutes"`
}

type CheckoutConfig struct {
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
}

type AuthConfig struct {
	JWTSecret     string         `yaml:"jwt_secret"`
	TokenTTLHours int            `yaml:"token_ttl_hours"`
	Accounts      []AdminAccount `yaml:"accounts"`
}

type AdminAccount struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
	MerchantID   string `yaml:"merchant_id"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

// LoadConfig reads the YAML file at path, applies .env and environment
// overrides, then fills defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	setString(&cfg.Database.Host, "POSTGRES_HOST")
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		cfg.Database.Port = cast.ToInt(v)
	}
	setString(&cfg.Database.User, "POSTGRES_USER")
	setString(&cfg.Database.Password, "POSTGRES_PASSWORD")
	setString(&cfg.Database.Name, "POSTGRES_DB")
	setString(&cfg.Database.ReportingDSN, "REPORTING_DSN")
	if v := os.Getenv("MIGRATE_ON_BOOT"); v != "" {
		cfg.Database.MigrateOnBoot = cast.ToBool(v)
	}

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		cfg.Redis.DB = cast.ToInt(v)
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	setString(&cfg.GDS.BaseURL, "GDS_BASE_URL")
	setString(&cfg.GDS.ClientID, "GDS_CLIENT_ID")
	setString(&cfg.GDS.ClientSecret, "GDS_CLIENT_SECRET")
	setString(&cfg.GDS.SandboxDate, "GDS_SANDBOX_DATE")
	if v := os.Getenv("GDS_FALLBACK_ENABLED"); v != "" {
		cfg.GDS.FallbackEnabled = cast.ToBool(v)
	}

	if v := os.Getenv("TAX_BASIS_POINTS"); v != "" {
		tax := cast.ToInt64(v)
		cfg.Pricing.TaxBasisPoints = &tax
	}

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
}

func applyDefaults(cfg *Config) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "alphatravel"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.RatePerSecond == 0 {
		cfg.HTTP.RatePerSecond = 100
	}
	if cfg.HTTP.RateBurst == 0 {
		cfg.HTTP.RateBurst = 200
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Kafka.BookingEventsTopic == "" {
		cfg.Kafka.BookingEventsTopic = "flight-booking-events"
	}
	if cfg.Kafka.OrderEventsTopic == "" {
		cfg.Kafka.OrderEventsTopic = "order-events"
	}
	if cfg.Kafka.NotificationsTopic == "" {
		cfg.Kafka.NotificationsTopic = "notifications"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "alphatravel-worker"
	}
	if cfg.GDS.BaseURL == "" {
		cfg.GDS.BaseURL = "https://test.api.amadeus.com"
	}
	if cfg.GDS.TimeoutSeconds == 0 {
		cfg.GDS.TimeoutSeconds = 20
	}
	if cfg.GDS.RatePerSecond == 0 {
		cfg.GDS.RatePerSecond = 10
	}
	if cfg.GDS.SearchCacheTTL == 0 {
		cfg.GDS.SearchCacheTTL = 300
	}
	if cfg.GDS.OfferTTLMinutes == 0 {
		cfg.GDS.OfferTTLMinutes = 30
	}
	if cfg.Pricing.Currency == "" {
		cfg.Pricing.Currency = "NGN"
	}
	if cfg.Pricing.ServiceFeeMinor == 0 {
		cfg.Pricing.ServiceFeeMinor = 2_500_000
	}
	if cfg.Pricing.TaxBasisPoints == nil {
		tax := int64(1500)
		cfg.Pricing.TaxBasisPoints = &tax
	}
	if cfg.Pricing.CommissionRate == 0 {
		cfg.Pricing.CommissionRate = 5
	}
	if len(cfg.Pricing.ExchangeRates) == 0 {
		cfg.Pricing.ExchangeRates = map[string]int64{"USD": 1500}
	}
	if cfg.Pricing.ReferencePrefix == "" {
		cfg.Pricing.ReferencePrefix = "ALPHA"
	}
	if cfg.Booking.LockTTLSeconds == 0 {
		cfg.Booking.LockTTLSeconds = 60
	}
	if cfg.Booking.ConfirmationTTL == 0 {
		cfg.Booking.ConfirmationTTL = 30
	}
	if cfg.Checkout.SessionTTLMinutes == 0 {
		cfg.Checkout.SessionTTLMinutes = 60
	}
	if cfg.Auth.TokenTTLHours == 0 {
		cfg.Auth.TokenTTLHours = 12
	}
	if cfg.Worker.ExpirationSweepMinutes == 0 {
		cfg.Worker.ExpirationSweepMinutes = 5
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = cast.ToString(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
