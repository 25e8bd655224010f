// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
vendor_service:
  base_url: http://inventory.local
workers:
  score-vendor-candidates:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "vendor-matching", cfg.App.Name)
	assert.Equal(t, SourceHTTP, cfg.VendorService.Source)
	assert.Equal(t, 10000, cfg.VendorService.Timeout)
	assert.Equal(t, LedgerMemory, cfg.Ledger.Backend)
	assert.Equal(t, "selection:", cfg.Ledger.KeyPrefix)
	assert.Equal(t, ":8080", cfg.API.Address)
	assert.Equal(t, 4, cfg.Matching.BatchConcurrency)
	assert.Equal(t, "vendor_inventory", cfg.Database.Elasticsearch.Index)

	w := cfg.Workers["score-vendor-candidates"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_VENDOR_URL", "http://expanded.local")
	path := writeConfig(t, `
vendor_service:
  base_url: ${TEST_VENDOR_URL}
matching:
  cache_ttl: 30
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://expanded.local", cfg.VendorService.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Matching.CacheDuration())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "http source without base url",
			body: "vendor_service:\n  source: http\n",
			want: "vendor_service.base_url",
		},
		{
			name: "elasticsearch source without addresses",
			body: "vendor_service:\n  source: elasticsearch\n",
			want: "database.elasticsearch",
		},
		{
			name: "unknown ledger",
			body: "vendor_service:\n  base_url: http://x\nledger:\n  backend: dynamo\n",
			want: "ledger.backend",
		},
		{
			name: "redis ledger without address",
			body: "vendor_service:\n  base_url: http://x\nledger:\n  backend: redis\n",
			want: "database.redis.address",
		},
		{
			name: "camunda enabled without broker",
			body: "vendor_service:\n  base_url: http://x\ncamunda:\n  enabled: true\n",
			want: "camunda.broker_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"a": {Enabled: false}}}

	assert.False(t, IsWorkerEnabled(cfg, "a"))
	assert.True(t, IsWorkerEnabled(cfg, "missing"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "missing").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "matching", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=matching sslmode=disable", p.GetDSN())
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	t.Setenv("VENDOR_SERVICE_BASE_URL", "http://inventory.internal")
	t.Setenv("VENDOR_SERVICE_API_KEY", "")

	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://inventory.internal", cfg.VendorService.BaseURL)
	assert.Empty(t, cfg.VendorService.APIKey)
	assert.False(t, cfg.Camunda.Enabled)
	assert.Equal(t, 60000, GetWorkerConfig(cfg, "match-rfq-demands").Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "fetch-vendor-candidates"))
}

func TestLoadFromFile_UnsetPlaceholderFailsValidation(t *testing.T) {
	t.Setenv("UNSET_VENDOR_URL", "")
	t.Setenv("VENDOR_SERVICE_BASE_URL", "")
	path := writeConfig(t, `
vendor_service:
  base_url: ${UNSET_VENDOR_URL}
`)

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "base_url")
}
