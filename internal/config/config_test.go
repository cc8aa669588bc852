package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func lookupFrom(env map[string]string) envLookup {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	_, err := load(nil, func(string) (string, bool) { return "", false })
	if err == nil {
		t.Fatalf("expected error due to missing store api address, got nil")
	}

	cfg, err := load(nil, lookupFrom(map[string]string{
		"STORE_API_ADDRESS": "http://store.local",
	}))
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}

	if cfg.RunAddress != defaultRunAddress {
		t.Errorf("expected default run address %q, got %q", defaultRunAddress, cfg.RunAddress)
	}
	if cfg.DraftStorageURI != defaultDraftStorageURI {
		t.Errorf("expected default draft storage %q, got %q", defaultDraftStorageURI, cfg.DraftStorageURI)
	}
	if cfg.SessionNamespace != defaultSessionNamespace {
		t.Errorf("expected default namespace %q, got %q", defaultSessionNamespace, cfg.SessionNamespace)
	}
	if cfg.OrderPollInterval != defaultOrderPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultOrderPollInterval, cfg.OrderPollInterval)
	}
	if cfg.WorkerPoolSize != defaultWorkerPoolSize {
		t.Errorf("expected default worker pool %d, got %d", defaultWorkerPoolSize, cfg.WorkerPoolSize)
	}
	if cfg.CancelDebounce != defaultCancelDebounce {
		t.Errorf("expected default cancel debounce %v, got %v", defaultCancelDebounce, cfg.CancelDebounce)
	}
	if !cfg.ShippingNormal.Equal(decimal.RequireFromString("15")) {
		t.Errorf("expected normal shipping 15, got %s", cfg.ShippingNormal)
	}
	if !cfg.ShippingExpress.Equal(decimal.RequireFromString("30")) {
		t.Errorf("expected express shipping 30, got %s", cfg.ShippingExpress)
	}
}

func TestLoadWithFlagOverrides(t *testing.T) {
	env := map[string]string{
		"STORE_API_ADDRESS":   "http://store.local",
		"WORKER_POOL_SIZE":    "3",
		"ORDER_POLL_INTERVAL": "5s",
		"SHIPPING_EXPRESS":    "25",
	}

	args := []string{
		"-a", ":9090",
		"-d", "redis://localhost:6379/0",
		"-r", "http://override",
		"--poll-interval", "7s",
		"--shutdown-timeout", "20s",
		"--worker-pool", "9",
		"--cancel-debounce", "0s",
		"--shipping-normal", "9.99",
		"--namespace", "guest",
	}

	cfg, err := load(args, lookupFrom(env))
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}

	if cfg.RunAddress != ":9090" {
		t.Errorf("expected run address :9090, got %q", cfg.RunAddress)
	}
	if cfg.DraftStorageURI != "redis://localhost:6379/0" {
		t.Errorf("expected draft storage override, got %q", cfg.DraftStorageURI)
	}
	if cfg.StoreAPIAddress != "http://override" {
		t.Errorf("expected store api override, got %q", cfg.StoreAPIAddress)
	}
	if cfg.OrderPollInterval != 7*time.Second {
		t.Errorf("expected poll interval 7s, got %v", cfg.OrderPollInterval)
	}
	if cfg.ShutdownTimeout != 20*time.Second {
		t.Errorf("expected shutdown timeout 20s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.WorkerPoolSize != 9 {
		t.Errorf("expected worker pool 9, got %d", cfg.WorkerPoolSize)
	}
	if cfg.CancelDebounce != 0 {
		t.Errorf("expected zero cancel debounce, got %v", cfg.CancelDebounce)
	}
	if !cfg.ShippingNormal.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("expected normal shipping 9.99, got %s", cfg.ShippingNormal)
	}
	if !cfg.ShippingExpress.Equal(decimal.RequireFromString("25")) {
		t.Errorf("expected express shipping from env, got %s", cfg.ShippingExpress)
	}
	if cfg.SessionNamespace != "guest" {
		t.Errorf("expected namespace guest, got %q", cfg.SessionNamespace)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{"STORE_API_ADDRESS": "http://store.local"}

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"--poll-interval", "bad"}, "invalid poll interval"},
		{[]string{"--shutdown-timeout", "bad"}, "invalid shutdown timeout"},
		{[]string{"--cancel-debounce", "bad"}, "invalid cancel debounce"},
		{[]string{"--shipping-normal", "abc"}, "invalid normal shipping price"},
		{[]string{"--shipping-express", "-1"}, "invalid express shipping price"},
		{[]string{"-d", "plain-path"}, "draft storage uri"},
	}

	for _, tc := range cases {
		_, err := load(tc.args, lookupFrom(env))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("args %v: expected %q error, got %v", tc.args, tc.want, err)
		}
	}
}

func TestLoadNormalizesNonPositiveValues(t *testing.T) {
	cfg, err := load(nil, lookupFrom(map[string]string{
		"STORE_API_ADDRESS":   "http://store.local",
		"WORKER_POOL_SIZE":    "-1",
		"ORDER_POLL_INTERVAL": "0",
		"SHUTDOWN_TIMEOUT":    "0",
		"REQUEST_TIMEOUT":     "-3s",
		"CANCEL_DEBOUNCE":     "-1s",
	}))
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}

	if cfg.WorkerPoolSize != defaultWorkerPoolSize {
		t.Errorf("expected default worker pool %d, got %d", defaultWorkerPoolSize, cfg.WorkerPoolSize)
	}
	if cfg.OrderPollInterval != defaultOrderPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultOrderPollInterval, cfg.OrderPollInterval)
	}
	if cfg.ShutdownTimeout != defaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout %v, got %v", defaultShutdownTimeout, cfg.ShutdownTimeout)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Errorf("expected default request timeout %v, got %v", defaultRequestTimeout, cfg.RequestTimeout)
	}
	if cfg.CancelDebounce != defaultCancelDebounce {
		t.Errorf("expected default cancel debounce %v, got %v", defaultCancelDebounce, cfg.CancelDebounce)
	}
}

func TestLoadReadsTokenFromFile(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenFile, []byte("file-token\n"), 0o600); err != nil {
		t.Fatalf("failed to write token file: %v", err)
	}

	cfg, err := load(nil, lookupFrom(map[string]string{
		"STORE_API_ADDRESS": "http://store.local",
		"AUTH_TOKEN":        "env-token",
		"AUTH_TOKEN_FILE":   tokenFile,
	}))
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}

	if cfg.AuthToken != "file-token" {
		t.Errorf("expected token from file, got %q", cfg.AuthToken)
	}
}
