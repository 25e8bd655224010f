// internal/vendorquery/http.go
package vendorquery

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	commonhttp "vendor-matching/internal/common/http"
	"vendor-matching/internal/common/logger"

	"github.com/google/uuid"
)

const vendorsPath = "/api/vendors"

// HTTPSource queries the inventory service at GET <base>/api/vendors.
type HTTPSource struct {
	baseURL string
	client  *commonhttp.Client
	logger  logger.Logger
}

type HTTPSourceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPSource(cfg HTTPSourceConfig, log logger.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  commonhttp.NewClient(cfg.Timeout).WithHeader("X-API-Key", cfg.APIKey),
		logger:  log.WithFields(map[string]interface{}{"source": "http"}),
	}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) FetchCandidates(ctx context.Context, q Query) (*CandidateSet, error) {
	term := strings.TrimSpace(q.Term)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	params := url.Values{"sku": {term}}
	if !q.Preferences.IsEmpty() {
		params.Set("prefs", q.Preferences.String())
	}
	if q.Top > 0 {
		params.Set("top", strconv.Itoa(q.Top))
	}
	if q.Quantity > 0 {
		params.Set("quantity", strconv.FormatFloat(q.Quantity, 'f', -1, 64))
	}

	requestID := uuid.NewString()
	s.logger.Debug("querying vendor service", map[string]interface{}{
		"term":      term,
		"prefs":     q.Preferences.String(),
		"top":       q.Top,
		"quantity":  q.Quantity,
		"requestId": requestID,
	})

	body, err := s.client.GetJSON(ctx, s.baseURL+vendorsPath, params, map[string]string{
		"X-Request-ID": requestID,
	})
	if err != nil {
		return nil, err
	}

	return decodeCandidates(body)
}
