package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv снимает переменные окружения, влияющие на конфигурацию, на время теста
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CONFIG", "SERVER_ADDRESS", "PAYMENT_SERVICE_BASE_URL", "PROXY_ENDPOINT",
		"PER_CALL_TIMEOUT", "ALBY_JWT", "INVOICE_STRATEGY", "RESOLVE_WORKERS",
		"DATABASE_DSN", "FILE_STORAGE_PATH", "ENABLE_HTTPS", "TLS_CERT_FILE",
		"TLS_KEY_FILE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "METRICS_NAMESPACE",
	} {
		if value, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { os.Setenv(name, value) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "https://api.getalby.com", cfg.PaymentServiceBaseURL)
	assert.Equal(t, "https://api.getalby.com/lnurl/generate-invoice", cfg.ProxyEndpoint)
	assert.Equal(t, 20*time.Second, cfg.PerCallTimeout)
	assert.Equal(t, StrategyProxy, cfg.InvoiceStrategy)
	assert.Equal(t, 1, cfg.ResolveWorkers)
	assert.False(t, cfg.IsHTTPSEnabled())
}

func TestConfigPriority(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		args         []string
		wantAddr     string
		wantStrategy string
		wantTimeout  time.Duration
	}{
		{
			name:         "Command line flags override defaults",
			args:         []string{"-a", ":7070", "-i", "direct", "-t", "5s"},
			wantAddr:     ":7070",
			wantStrategy: StrategyDirect,
			wantTimeout:  5 * time.Second,
		},
		{
			name:         "Environment variables override defaults",
			env:          map[string]string{"SERVER_ADDRESS": ":9090", "PER_CALL_TIMEOUT": "15s"},
			wantAddr:     ":9090",
			wantStrategy: StrategyProxy,
			wantTimeout:  15 * time.Second,
		},
		{
			name:         "Environment variables override flags",
			env:          map[string]string{"SERVER_ADDRESS": ":9090", "INVOICE_STRATEGY": "proxy"},
			args:         []string{"-a", ":7070", "-i", "direct"},
			wantAddr:     ":9090",
			wantStrategy: StrategyProxy,
			wantTimeout:  20 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, cfg.ServerAddress)
			assert.Equal(t, tt.wantStrategy, cfg.InvoiceStrategy)
			assert.Equal(t, tt.wantTimeout, cfg.PerCallTimeout)
		})
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Unknown strategy", []string{"-i", "carrier-pigeon"}},
		{"Zero workers", []string{"-w", "0"}},
		{"Negative timeout", []string{"-t", "-1s"}},
		{"Unknown flag", []string{"-unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoadWithJSONFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server_address": "json:8080",
		"invoice_strategy": "direct",
		"per_call_timeout": "12s",
		"resolve_workers": 4
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Флаг -a задан явно и должен победить значение из JSON
	cfg, err := Load([]string{"-c", path, "-a", ":6060"})
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.ServerAddress)
	assert.Equal(t, StrategyDirect, cfg.InvoiceStrategy)
	assert.Equal(t, 12*time.Second, cfg.PerCallTimeout)
	assert.Equal(t, 4, cfg.ResolveWorkers)
}
