package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ibeloyar/fulfillsync/internal/filter"
	"github.com/ibeloyar/fulfillsync/internal/model"
)

const (
	DefaultEnvFile           = ".env"
	DefaultShopifyAPIVersion = "2024-01"
	DefaultEverstoxAPIURL    = "https://api.demo.everstox.com"
	DefaultEverstoxShopID    = model.PlaceholderShopInstanceID
	DefaultTagMatchMode      = string(filter.MatchExact)
	DefaultLookbackDays      = 14
	DefaultDryRun            = true
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
	DefaultSendRate          = 5.0
)

type Config struct {
	ShopifyShopURL    string `env:"SHOPIFY_SHOP_URL"`
	ShopifyAPIToken   string `env:"SHOPIFY_API_TOKEN"`
	ShopifyAPIVersion string `env:"SHOPIFY_API_VERSION"`

	EverstoxAPIURL   string `env:"EVERSTOX_API_URL"`
	EverstoxAPIToken string `env:"EVERSTOX_API_TOKEN"`
	EverstoxShopID   string `env:"EVERSTOX_SHOP_ID"`

	// comma separated, see Whitelist and Blacklist
	TagWhitelist string `env:"TAG_WHITELIST"`
	TagBlacklist string `env:"TAG_BLACKLIST"`
	TagMatchMode string `env:"TAG_MATCH_MODE"`

	LookbackDays int     `env:"LOOKBACK_DAYS"`
	DryRun       bool    `env:"DRY_RUN"`
	OutputPath   string  `env:"OUTPUT_PATH"`
	SendRate     float64 `env:"SEND_RATE"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
	LogFile   string `env:"LOG_FILE"`

	DatabaseURI  string        `env:"DATABASE_URI"`
	RunAddress   string        `env:"RUN_ADDRESS"`
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// AdminJWTSecret protects /api/runs when set
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`
}

// Read loads flags, then the optional .env file, then the environment.
// Environment values win over flags.
func Read() (Config, error) {
	config := Config{}

	flag.StringVar(&config.ShopifyShopURL, "shop", "", "Shopify shop domain (myshop.myshopify.com)")
	flag.StringVar(&config.ShopifyAPIToken, "token", "", "Shopify Admin API access token")
	flag.StringVar(&config.ShopifyAPIVersion, "api-version", DefaultShopifyAPIVersion, "Shopify Admin API version")

	flag.StringVar(&config.EverstoxAPIURL, "everstox-url", DefaultEverstoxAPIURL, "Fulfillment provider API base URL")
	flag.StringVar(&config.EverstoxAPIToken, "everstox-token", "", "Fulfillment provider API token")
	flag.StringVar(&config.EverstoxShopID, "shop-id", DefaultEverstoxShopID, "Fulfillment provider shop instance id")

	flag.StringVar(&config.TagWhitelist, "whitelist", "", "Comma separated tags to include (empty = all)")
	flag.StringVar(&config.TagBlacklist, "blacklist", "", "Comma separated tags to exclude")
	flag.StringVar(&config.TagMatchMode, "match-mode", DefaultTagMatchMode, "Tag match mode: exact, contains or regex")

	flag.IntVar(&config.LookbackDays, "days", DefaultLookbackDays, "Fetch orders created within the last N days")
	flag.BoolVar(&config.DryRun, "dry-run", DefaultDryRun, "Prepare requests without sending them")
	flag.StringVar(&config.OutputPath, "o", "", "Write payloads and prepared requests to this JSON file")
	flag.Float64Var(&config.SendRate, "send-rate", DefaultSendRate, "Create-order requests per second")

	flag.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level")
	flag.StringVar(&config.LogFormat, "log-format", DefaultLogFormat, "Log format: console or json")
	flag.StringVar(&config.LogFile, "log-file", "", "Rotating log file (optional)")

	flag.StringVar(&config.DatabaseURI, "d", "", "Database connect string for the run ledger (optional)")
	flag.StringVar(&config.RunAddress, "a", "", "Admin server address (optional)")
	flag.DurationVar(&config.SyncInterval, "i", 0, "Sync interval, 0 runs once (e.g. 15m)")
	flag.StringVar(&config.AdminJWTSecret, "admin-secret", "", "HS256 secret for admin API tokens (optional)")

	flag.Parse()

	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}

	err := env.Parse(&config)
	if err != nil {
		return config, err
	}

	config.ShopifyShopURL = NormalizeShopURL(config.ShopifyShopURL)

	return config, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.ShopifyShopURL == "" {
		errs = append(errs, errors.New("SHOPIFY_SHOP_URL is required"))
	}
	if c.ShopifyAPIToken == "" {
		errs = append(errs, errors.New("SHOPIFY_API_TOKEN is required"))
	}
	if c.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("LOOKBACK_DAYS must be positive, got %d", c.LookbackDays))
	}
	if _, err := filter.ParseMatchMode(c.TagMatchMode); err != nil {
		errs = append(errs, err)
	}
	if c.SendRate <= 0 {
		errs = append(errs, fmt.Errorf("SEND_RATE must be positive, got %v", c.SendRate))
	}
	if c.SyncInterval < 0 {
		errs = append(errs, fmt.Errorf("SYNC_INTERVAL must not be negative, got %s", c.SyncInterval))
	}

	return errors.Join(errs...)
}

func (c Config) Whitelist() []string {
	return splitCSV(c.TagWhitelist)
}

func (c Config) Blacklist() []string {
	return splitCSV(c.TagBlacklist)
}

func (c Config) MatchMode() filter.MatchMode {
	mode, _ := filter.ParseMatchMode(c.TagMatchMode)
	return mode
}

func (c Config) ShopifyGraphQLURL() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.ShopifyShopURL, c.ShopifyAPIVersion)
}

// NormalizeShopURL strips the protocol and trailing slashes.
func NormalizeShopURL(v string) string {
	v = strings.TrimSpace(v)
	for _, prefix := range []string{"https://", "http://"} {
		v = strings.TrimPrefix(v, prefix)
	}
	return strings.TrimRight(v, "/")
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
