// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendor-matching/internal/api"
	"vendor-matching/internal/common/camunda"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/ledger"
	"vendor-matching/internal/models"
	"vendor-matching/internal/search"
	"vendor-matching/internal/vendorquery"

	fetchvendorcandidates "vendor-matching/internal/workers/procurement/fetch-vendor-candidates"
	recordvendorselection "vendor-matching/internal/workers/procurement/record-vendor-selection"
	resolvevendorpreferences "vendor-matching/internal/workers/procurement/resolve-vendor-preferences"
	scorevendorcandidates "vendor-matching/internal/workers/procurement/score-vendor-candidates"
)

const inventoryPayload = `[
	{"vendorId":"acme","name":"Acme Pharma","availableQty":5000,"landedCost":"0.12","deliveryDays":14,"qualityScore":7,"reliabilityScore":8},
	{"vendorId":"swift","name":"Swift Meds","availableQty":800,"landedCost":0.15,"deliveryDays":2,"qualityScore":8,"reliabilityScore":9},
	{"vendorId":"budget","name":"Budget Supply","availableQty":10000,"landedCost":0.08,"deliveryDays":30,"qualityScore":4,"reliabilityScore":5}
]`

// stack is one service instance wired the way cmd/worker-manager wires it,
// with redis replaced by miniredis and the inventory by an httptest server.
type stack struct {
	inventory      *httptest.Server
	inventoryCalls *atomic.Int64
	redis          *miniredis.Miniredis
	rdb            *redis.Client
	client         *vendorquery.Client
	searcher       *search.Searcher
	ledger         *ledger.Ledger
	api            *httptest.Server
}

func newStack(t *testing.T, inventory http.HandlerFunc) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)

	s := &stack{inventoryCalls: &atomic.Int64{}}
	s.inventory = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.inventoryCalls.Add(1)
		inventory(w, r)
	}))
	t.Cleanup(s.inventory.Close)

	s.redis = miniredis.RunT(t)
	s.rdb = redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	t.Cleanup(func() { s.rdb.Close() })

	var source vendorquery.Source = vendorquery.NewHTTPSource(vendorquery.HTTPSourceConfig{
		BaseURL: s.inventory.URL,
		APIKey:  "e2e-key",
		Timeout: 2 * time.Second,
	}, log)
	source = vendorquery.NewCachedSource(source, s.rdb, time.Minute, log)

	s.client = vendorquery.NewClient(source, 2*time.Second, log)
	s.searcher = search.NewSearcher(s.client, log, search.WithDefaultTop(10))
	s.ledger = ledger.New(ledger.NewRedisStore(s.rdb, "selection:"), log)

	s.api = httptest.NewServer(api.NewRouter(api.RouterConfig{
		MatchHandler:     api.NewMatchHandler(s.searcher, 2, log),
		SelectionHandler: api.NewSelectionHandler(s.ledger, log),
		HealthHandler: api.NewHealthHandler(api.Check{Name: "redis", Fn: func(ctx context.Context) error {
			return s.rdb.Ping(ctx).Err()
		}}),
		Logger: log,
	}))
	t.Cleanup(s.api.Close)
	return s
}

func serveInventory(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-Key") != "e2e-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("sku") == "PARA-500" {
		_, _ = w.Write([]byte(inventoryPayload))
		return
	}
	_, _ = w.Write([]byte(`[]`))
}

func getJSON(t *testing.T, rawURL string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// TestWorkflowChain runs the four per-demand workers in process order,
// passing each job's output on the way a BPMN process would.
func TestWorkflowChain(t *testing.T) {
	s := newStack(t, serveInventory)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	resolve, err := resolvevendorpreferences.NewHandler(nil, log)
	require.NoError(t, err)
	fetch, err := fetchvendorcandidates.NewHandler(nil, s.client, log)
	require.NoError(t, err)
	score, err := scorevendorcandidates.NewHandler(nil, log)
	require.NoError(t, err)
	record, err := recordvendorselection.NewHandler(nil, s.ledger, log)
	require.NoError(t, err)

	demand := models.Demand{SKU: "PARA-500", Quantity: 1000}

	prefs, err := resolve.Execute(ctx, &resolvevendorpreferences.Input{Preferences: []string{"time"}})
	require.NoError(t, err)
	assert.False(t, prefs.Balanced)

	fetched, err := fetch.Execute(ctx, &fetchvendorcandidates.Input{Demand: demand, Preferences: prefs.Preferences})
	require.NoError(t, err)
	require.Len(t, fetched.Vendors, 3)
	assert.False(t, fetched.PreScored)

	// Same query again is served from the redis candidate cache.
	_, err = fetch.Execute(ctx, &fetchvendorcandidates.Input{Demand: demand, Preferences: prefs.Preferences})
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.inventoryCalls.Load())

	ranked, err := score.Execute(ctx, &scorevendorcandidates.Input{
		Demand:  demand,
		Vendors: fetched.Vendors,
		Weights: &prefs.Weights,
	})
	require.NoError(t, err)
	require.NotNil(t, ranked.TopVendor)
	assert.Equal(t, "swift", ranked.TopVendor.VendorID, "time preference favours fast delivery")
	require.Len(t, ranked.OtherVendors, 2)
	for _, v := range ranked.OtherVendors {
		assert.LessOrEqual(t, v.ScoreValue(), ranked.TopVendor.ScoreValue())
	}

	recorded, err := record.Execute(ctx, &recordvendorselection.Input{RFQID: "rfq-1", DemandKey: ranked.DemandKey, Vendor: *ranked.TopVendor})
	require.NoError(t, err)
	assert.Equal(t, "PARA-500", recorded.DemandKey)
	assert.Equal(t, "rfq-1", recorded.RFQID)
	assert.True(t, s.redis.Exists("selection:rfq-1/PARA-500"))

	var sel models.Selection
	require.Equal(t, http.StatusOK, getJSON(t, s.api.URL+"/api/rfqs/rfq-1/selections/PARA-500", &sel))
	assert.Equal(t, "swift", sel.Vendor.VendorID)
	assert.Equal(t, "rfq-1", sel.RFQID)
	assert.Equal(t, recorded.SelectionID, sel.ID)
}

// TestServiceActsAsPreScoringSource points a second instance at the first
// instance's /api/vendors, which answers in the pre-scored wire shape.
func TestServiceActsAsPreScoringSource(t *testing.T) {
	upstream := newStack(t, serveInventory)

	downstream := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		target, _ := url.Parse(upstream.api.URL + "/api/vendors")
		target.RawQuery = r.URL.RawQuery
		resp, err := http.Get(target.String())
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
		var body json.RawMessage
		_ = json.NewDecoder(resp.Body).Decode(&body)
		_, _ = w.Write(body)
	})

	// acme stocks exactly 5000; without the quantity swift would rank first.
	const query = "/api/vendors?sku=PARA-500&prefs=quantity&quantity=5000"
	var direct, relayed models.RankedVendors
	require.Equal(t, http.StatusOK, getJSON(t, upstream.api.URL+query, &direct))
	require.Equal(t, http.StatusOK, getJSON(t, downstream.api.URL+query, &relayed))

	require.NotNil(t, direct.TopVendor)
	require.NotNil(t, relayed.TopVendor)
	assert.Equal(t, "acme", direct.TopVendor.VendorID)
	assert.Equal(t, direct.TopVendor.VendorID, relayed.TopVendor.VendorID)
	assert.Equal(t, direct.TopVendor.ScoreValue(), relayed.TopVendor.ScoreValue(), "pre-scored candidates are not rescored")
	assert.Len(t, relayed.OtherVendors, len(direct.OtherVendors))
}

func TestInventoryOutageFailsOpen(t *testing.T) {
	s := newStack(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	var ranked models.RankedVendors
	require.Equal(t, http.StatusOK, getJSON(t, s.api.URL+"/api/vendors?sku=PARA-500", &ranked))
	assert.Nil(t, ranked.TopVendor)
	assert.Empty(t, ranked.OtherVendors)

	// Failures are not cached, so the next request reaches the inventory again.
	getJSON(t, s.api.URL+"/api/vendors?sku=PARA-500", nil)
	assert.Equal(t, int64(2), s.inventoryCalls.Load())
}

func TestReadinessFollowsRedis(t *testing.T) {
	s := newStack(t, serveInventory)

	assert.Equal(t, http.StatusOK, getJSON(t, s.api.URL+"/ready", nil))
	s.redis.Close()
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, s.api.URL+"/ready", nil))
}

// TestLiveBroker needs a running zeebe gateway; set E2E_ZEEBE_ADDRESS to run it.
func TestLiveBroker(t *testing.T) {
	addr := os.Getenv("E2E_ZEEBE_ADDRESS")
	if addr == "" {
		t.Skip("E2E_ZEEBE_ADDRESS not set")
	}

	client, err := camunda.NewClient(addr, 10*time.Second)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, client.HealthCheck(ctx))

	handler, err := resolvevendorpreferences.NewHandler(nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	w := camunda.NewWorker(client.GetClient(), camunda.WorkerOptions{
		TaskType:      resolvevendorpreferences.TaskType,
		MaxJobsActive: 1,
	}, handler, logger.NewTestLogger(t))
	w.Stop()
}
