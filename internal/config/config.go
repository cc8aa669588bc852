package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	StoreAPIAddress   string
	DraftStorageURI   string
	SessionNamespace  string
	AuthToken         string
	RequestTimeout    time.Duration
	OrderPollInterval time.Duration
	WorkerPoolSize    int
	ShutdownTimeout   time.Duration
	CancelDebounce    time.Duration
	ShippingNormal    decimal.Decimal
	ShippingExpress   decimal.Decimal
	LogLevel          string
}

const (
	defaultRunAddress        = "127.0.0.1:4300"
	defaultDraftStorageURI   = "file://.storefront"
	defaultSessionNamespace  = "customer"
	defaultRequestTimeout    = 10 * time.Second
	defaultOrderPollInterval = 30 * time.Second
	defaultWorkerPoolSize    = 4
	defaultShutdownTimeout   = 10 * time.Second
	defaultCancelDebounce    = 500 * time.Millisecond
	defaultShippingNormal    = "15.00"
	defaultShippingExpress   = "30.00"
	defaultLogLevel          = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		StoreAPIAddress:   getString(lookup, "STORE_API_ADDRESS", ""),
		DraftStorageURI:   getString(lookup, "DRAFT_STORAGE_URI", defaultDraftStorageURI),
		SessionNamespace:  getString(lookup, "SESSION_NAMESPACE", defaultSessionNamespace),
		AuthToken:         getString(lookup, "AUTH_TOKEN", ""),
		RequestTimeout:    getDuration(lookup, "REQUEST_TIMEOUT", defaultRequestTimeout),
		OrderPollInterval: getDuration(lookup, "ORDER_POLL_INTERVAL", defaultOrderPollInterval),
		WorkerPoolSize:    getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		CancelDebounce:    getDuration(lookup, "CANCEL_DEBOUNCE", defaultCancelDebounce),
		LogLevel:          getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		requestTimeoutStr  = cfg.RequestTimeout.String()
		pollIntervalStr    = cfg.OrderPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		cancelDebounceStr  = cfg.CancelDebounce.String()
		shippingNormalStr  = getString(lookup, "SHIPPING_NORMAL", defaultShippingNormal)
		shippingExpressStr = getString(lookup, "SHIPPING_EXPRESS", defaultShippingExpress)
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "view bridge listen address")
	fs.StringVar(&cfg.StoreAPIAddress, "r", cfg.StoreAPIAddress, "store backend base URL")
	fs.StringVar(&cfg.DraftStorageURI, "d", cfg.DraftStorageURI, "checkout draft storage URI (file://, redis://, postgres://)")
	fs.StringVar(&cfg.SessionNamespace, "namespace", cfg.SessionNamespace, "draft slot namespace")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "number of concurrent order refresh workers")
	fs.StringVar(&requestTimeoutStr, "request-timeout", requestTimeoutStr, "store backend request timeout")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "interval between watched order refreshes")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "graceful shutdown timeout")
	fs.StringVar(&cancelDebounceStr, "cancel-debounce", cancelDebounceStr, "delay before an abandoned checkout is cancelled")
	fs.StringVar(&shippingNormalStr, "shipping-normal", shippingNormalStr, "shipping price for NORMAL delivery")
	fs.StringVar(&shippingExpressStr, "shipping-express", shippingExpressStr, "shipping price for EXPRESS delivery")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.RequestTimeout, err = time.ParseDuration(requestTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid request timeout: %w", err)
	}

	if cfg.OrderPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.CancelDebounce, err = time.ParseDuration(cancelDebounceStr); err != nil {
		return nil, fmt.Errorf("invalid cancel debounce: %w", err)
	}

	if cfg.ShippingNormal, err = parsePrice(shippingNormalStr); err != nil {
		return nil, fmt.Errorf("invalid normal shipping price: %w", err)
	}

	if cfg.ShippingExpress, err = parsePrice(shippingExpressStr); err != nil {
		return nil, fmt.Errorf("invalid express shipping price: %w", err)
	}

	if tokenFile, ok := lookup("AUTH_TOKEN_FILE"); ok && tokenFile != "" {
		content, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("read auth token file: %w", err)
		}
		cfg.AuthToken = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.OrderPollInterval <= 0 {
		cfg.OrderPollInterval = defaultOrderPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	// zero debounce is allowed and means cancel synchronously on leave
	if cfg.CancelDebounce < 0 {
		cfg.CancelDebounce = defaultCancelDebounce
	}

	if cfg.SessionNamespace == "" {
		cfg.SessionNamespace = defaultSessionNamespace
	}

	if cfg.StoreAPIAddress == "" {
		return nil, fmt.Errorf("store api address must be provided")
	}

	if _, err := url.Parse(cfg.DraftStorageURI); err != nil || !strings.Contains(cfg.DraftStorageURI, "://") {
		return nil, fmt.Errorf("draft storage uri must have a scheme: %q", cfg.DraftStorageURI)
	}

	return cfg, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price must not be negative: %s", raw)
	}
	return price, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
