// internal/workers/procurement/match-rfq-demands/handler_test.go
package matchrfqdemands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vendor-matching/internal/common/config"
	"vendor-matching/internal/common/errors"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/models"
	"vendor-matching/internal/search"
	"vendor-matching/internal/vendorquery"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:           key,
		Type:          TaskType,
		CustomHeaders: "{}",
		Retries:       3,
		Variables:     string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T) *Handler {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("sku") {
		case "PARA-500":
			_, _ = w.Write([]byte(`[
				{"vendorId":"p1","availableQty":1000,"landedCost":10,"deliveryDays":3,"qualityScore":8,"reliabilityScore":9},
				{"vendorId":"p2","availableQty":200,"landedCost":8,"deliveryDays":10,"qualityScore":6,"reliabilityScore":5}
			]`))
		case "ibuprofen":
			_, _ = w.Write([]byte(`{"top_vendor":{"vendorId":"i1","score":6.5},"other_vendors":[]}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(server.Close)

	log := logger.NewTestLogger(t)
	src := vendorquery.NewHTTPSource(vendorquery.HTTPSourceConfig{BaseURL: server.URL, Timeout: time.Second}, log)
	searcher := search.NewSearcher(vendorquery.NewClient(src, time.Second, log), log)

	h, err := NewHandler(DefaultConfig(), searcher, log)
	require.NoError(t, err)
	return h
}

func TestHandler_Execute_MatchesEveryLineItem(t *testing.T) {
	out, err := createTestHandler(t).Execute(context.Background(), &Input{
		RFQID: "rfq-1",
		Demands: []models.Demand{
			{SKU: "PARA-500", Quantity: 1000},
			{INNName: "ibuprofen", Quantity: 20},
			{SKU: "UNKNOWN-1"},
		},
		Preferences: []string{"quantity"},
	})

	require.NoError(t, err)
	require.Len(t, out.Results, 3)
	assert.Equal(t, 2, out.Matched)
	assert.Equal(t, []string{"UNKNOWN-1"}, out.Unmatched)

	assert.Equal(t, "p1", out.Results[0].Top.VendorID)
	assert.True(t, out.Results[1].PreScored)
	assert.InDelta(t, 6.5, out.Results[1].Top.ScoreValue(), 1e-9)
	assert.True(t, out.Results[2].NoVendors)
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t)

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"rfqId":   "rfq-2",
		"demands": []interface{}{map[string]interface{}{"sku": "A"}, map[string]interface{}{"inn_name": "B"}},
	}))
	require.NoError(t, err)
	assert.Len(t, input.Demands, 2)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{"demands": "A"}))
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidDemand, stdErr.Code)

	_, err = h.parseInput(createMockJob(3, map[string]interface{}{
		"demands": []interface{}{map[string]interface{}{"sku": 12}},
	}))
	stdErr, ok = errors.AsStandardError(err)
	require.True(t, ok)
	assert.Contains(t, stdErr.Details, "demands[0]")
}

func TestConfigFromApp_UsesMatchingSection(t *testing.T) {
	cfg := ConfigFromApp(&config.Config{
		Matching:      config.MatchingConfig{BatchConcurrency: 8},
		VendorService: config.VendorServiceConfig{DefaultTop: 5},
	})
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 5, cfg.DefaultTop)
	assert.NoError(t, cfg.Validate())
}

func TestHandler_Execute_ExpiredDeadlineIsTimeout(t *testing.T) {
	h := createTestHandler(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := h.Execute(ctx, &Input{RFQID: "rfq-9", Demands: []models.Demand{{SKU: "PARA-500"}}})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, errors.ErrCodeVendorQueryTimeout, errors.Normalize(err).Code)
}
