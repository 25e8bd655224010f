// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"strings"

	"vendor-matching/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// vendorInventoryMapping indexes one document per vendor offer for a SKU or INN name.
const vendorInventoryMapping = `{
  "mappings": {
    "properties": {
      "sku":              {"type": "keyword"},
      "inn_name":         {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "vendorId":         {"type": "keyword"},
      "name":             {"type": "text"},
      "country":          {"type": "keyword"},
      "availableQty":     {"type": "double"},
      "landedCost":       {"type": "double"},
      "deliveryDays":     {"type": "double"},
      "qualityScore":     {"type": "double"},
      "reliabilityScore": {"type": "double"}
    }
  }
}`

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
	Index  string
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{
		Addresses: addresses,
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es, Index: cfg.Index}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates the vendor inventory index if it does not exist.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context) error {
	res, err := c.Client.Indices.Exists([]string{c.Index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", c.Index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.Client.Indices.Create(
		c.Index,
		c.Client.Indices.Create.WithBody(strings.NewReader(vendorInventoryMapping)),
		c.Client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", c.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", c.Index, res.Status())
	}
	return nil
}
