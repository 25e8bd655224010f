// internal/vendorquery/elasticsearch.go
package vendorquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// maxIndexCandidates bounds how many offers are pulled from the index before
// local scoring. The top cap is applied after ranking, not here.
const maxIndexCandidates = 200

// ElasticsearchSource reads raw vendor offers from the inventory index.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchSource(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchSource {
	return &ElasticsearchSource{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"source": "elasticsearch", "index": index}),
	}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Vendor `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) FetchCandidates(ctx context.Context, q Query) (*CandidateSet, error) {
	term := strings.TrimSpace(q.Term)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	body, err := json.Marshal(buildCandidateQuery(term))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	size := maxIndexCandidates
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("search %s: %s: %s", s.index, res.Status(), raw)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}

	vendors := make([]models.Vendor, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		vendors = append(vendors, hit.Source)
	}

	s.logger.Debug("index candidates fetched", map[string]interface{}{
		"term":  term,
		"count": len(vendors),
	})

	return &CandidateSet{Vendors: stripScores(vendors)}, nil
}

// buildCandidateQuery matches the term as an exact sku or as an INN name.
// Sorting on vendorId keeps fetch order deterministic for score ties.
func buildCandidateQuery(term string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"sku": term}},
					map[string]interface{}{"term": map[string]interface{}{"inn_name.raw": term}},
					map[string]interface{}{
						"match": map[string]interface{}{
							"inn_name": map[string]interface{}{"query": term, "operator": "and"},
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"_score": "desc"},
			map[string]interface{}{"vendorId": "asc"},
		},
	}
}
