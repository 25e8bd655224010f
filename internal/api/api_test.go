// internal/api/api_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/ledger"
	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"
	"vendor-matching/internal/search"
	"vendor-matching/internal/vendorquery"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc func(ctx context.Context, q vendorquery.Query) vendorquery.CandidateSet

func (f fetchFunc) Fetch(ctx context.Context, q vendorquery.Query) vendorquery.CandidateSet {
	return f(ctx, q)
}

func inventory(_ context.Context, q vendorquery.Query) vendorquery.CandidateSet {
	if q.Term != "PARA-500" {
		return vendorquery.CandidateSet{Vendors: []models.Vendor{}}
	}
	return vendorquery.CandidateSet{Vendors: []models.Vendor{
		{VendorID: "weak", AvailableQty: 100, LandedCost: 20, DeliveryDays: 30, QualityScore: 3, ReliabilityScore: 3},
		{VendorID: "strong", AvailableQty: 1000, LandedCost: 5, DeliveryDays: 2, QualityScore: 9, ReliabilityScore: 9},
	}}
}

type supersededMatcher struct {
	batchErr error
}

func (supersededMatcher) Search(context.Context, search.Request) (search.Result, error) {
	return search.Result{Superseded: true}, search.ErrSuperseded
}

func (m supersededMatcher) MatchAll(context.Context, []models.Demand, matching.PreferenceSet, int, int) ([]search.Result, error) {
	return nil, m.batchErr
}

// sessionRecorder remembers the session of every search it serves.
type sessionRecorder struct {
	sessions []string
}

func (r *sessionRecorder) Search(_ context.Context, req search.Request) (search.Result, error) {
	r.sessions = append(r.sessions, req.Session)
	return search.Result{DemandKey: req.Demand.IdentityKey(), NoVendors: true}, nil
}

func (r *sessionRecorder) MatchAll(context.Context, []models.Demand, matching.PreferenceSet, int, int) ([]search.Result, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, checks ...Check) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)
	searcher := search.NewSearcher(fetchFunc(inventory), log)
	return NewRouter(RouterConfig{
		MatchHandler:     NewMatchHandler(searcher, 2, log),
		SelectionHandler: NewSelectionHandler(ledger.New(ledger.NewMemoryStore(), log), log),
		HealthHandler:    NewHealthHandler(checks...),
		Logger:           log,
	})
}

func do(r http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestVendors_ReturnsPreSplitRanking(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/vendors?sku=PARA-500&prefs=resource-saving,quality&quantity=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ranked models.RankedVendors
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
	require.NotNil(t, ranked.TopVendor)
	assert.Equal(t, "strong", ranked.TopVendor.VendorID)
	require.Len(t, ranked.OtherVendors, 1)
	assert.Greater(t, ranked.TopVendor.ScoreValue(), ranked.OtherVendors[0].ScoreValue())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestVendors_RejectsBadQueries(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/vendors", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DEMAND", decodeError(t, rec).Code)

	rec = do(r, http.MethodGet, "/api/vendors?sku=A&top=many", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/vendors?sku=A&quantity=lots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVendors_SupersededIsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{MatchHandler: NewMatchHandler(supersededMatcher{}, 1, logger.NewNoOpLogger())})

	rec := do(r, http.MethodGet, "/api/vendors?sku=PARA-500", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SEARCH_SUPERSEDED", decodeError(t, rec).Code)
}

func TestMatchRFQ_ClassifiesBatchErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := RFQMatchRequest{RFQID: "rfq-1", Demands: []models.Demand{{SKU: "A"}}}

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"deadline", fmt.Errorf("batch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"client gone", context.Canceled, statusClientClosedRequest},
		{"other", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(RouterConfig{MatchHandler: NewMatchHandler(supersededMatcher{batchErr: tt.err}, 1, logger.NewNoOpLogger())})
			rec := do(r, http.MethodPost, "/api/rfqs/match", body)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestSearch_SessionComesFromCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &sessionRecorder{}
	r := NewRouter(RouterConfig{MatchHandler: NewMatchHandler(rec, 1, logger.NewNoOpLogger())})

	req := httptest.NewRequest(http.MethodGet, "/api/vendors?sku=PARA-500", nil)
	req.Header.Set(sessionHeader, "hospital-a")
	r.ServeHTTP(httptest.NewRecorder(), req)

	do(r, http.MethodGet, "/api/vendors?sku=PARA-500", nil)
	do(r, http.MethodPost, "/api/matches", MatchRequest{SessionID: "hospital-b", Demand: models.Demand{SKU: "PARA-500"}})

	assert.Equal(t, []string{"hospital-a", "", "hospital-b"}, rec.sessions)
}

func TestMatch_ReturnsResult(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodPost, "/api/matches", MatchRequest{
		Demand:      models.Demand{SKU: "PARA-500", Quantity: 200},
		Preferences: []string{"time"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "PARA-500", result.DemandKey)
	assert.Equal(t, []string{"time"}, result.Preferences)
	require.NotNil(t, result.Top)
	assert.Equal(t, "strong", result.Top.VendorID)
	assert.False(t, result.NoVendors)
}

func TestMatchRFQ_CountsMatchedLineItems(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodPost, "/api/rfqs/match", RFQMatchRequest{
		RFQID:   "rfq-1",
		Demands: []models.Demand{{SKU: "PARA-500"}, {SKU: "NOPE"}, {}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RFQMatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rfq-1", resp.RFQID)
	require.Len(t, resp.Matches, 3)
	assert.Equal(t, 1, resp.Matched)
	assert.Equal(t, "item-2", resp.Matches[2].DemandKey)
	assert.True(t, resp.Matches[2].NoVendors)

	rec = do(r, http.MethodPost, "/api/rfqs/match", RFQMatchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelections_PutReplacesAndGetReturnsLatest(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/rfqs/rfq-1/selections/PARA-500", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SELECTION_NOT_FOUND", decodeError(t, rec).Code)

	rec = do(r, http.MethodPut, "/api/rfqs/rfq-1/selections/PARA-500", SelectionRequest{Vendor: models.Vendor{VendorID: "x"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodPut, "/api/rfqs/rfq-1/selections/PARA-500", SelectionRequest{Vendor: models.Vendor{VendorID: "y"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/api/rfqs/rfq-1/selections/PARA-500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sel models.Selection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.Equal(t, "y", sel.Vendor.VendorID)
	assert.Equal(t, "PARA-500", sel.DemandKey)
	assert.Equal(t, "rfq-1", sel.RFQID)
}

func TestSelections_RFQsAreIndependent(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodPut, "/api/rfqs/hospital-a/selections/PARA-500", SelectionRequest{Vendor: models.Vendor{VendorID: "x"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodPut, "/api/rfqs/hospital-b/selections/PARA-500", SelectionRequest{Vendor: models.Vendor{VendorID: "y"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var a, b models.Selection
	rec = do(r, http.MethodGet, "/api/rfqs/hospital-a/selections/PARA-500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	rec = do(r, http.MethodGet, "/api/rfqs/hospital-b/selections/PARA-500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	assert.Equal(t, "x", a.Vendor.VendorID)
	assert.Equal(t, "y", b.Vendor.VendorID)

	rec = do(r, http.MethodGet, "/api/rfqs/hospital-c/selections/PARA-500", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelections_EscapedSlashInKey(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodPut, "/api/rfqs/rfq-7/selections/line%2F2", SelectionRequest{Vendor: models.Vendor{VendorID: "v1"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var sel models.Selection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.Equal(t, "line/2", sel.DemandKey)
	assert.Equal(t, "rfq-7", sel.RFQID)
}

func TestSelections_RejectsVendorWithoutID(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodPut, "/api/rfqs/rfq-1/selections/PARA-500", SelectionRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_VENDOR_DATA", decodeError(t, rec).Code)
}

func TestReady_ReportsFailingChecks(t *testing.T) {
	r := newTestRouter(t,
		Check{Name: "ledger", Fn: func(context.Context) error { return nil }},
		Check{Name: "redis", Fn: func(context.Context) error { return stderrors.New("connection refused") }},
	)

	rec := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), `"ledger":"ok"`)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{CORSOrigins: []string{"https://buyer.example.com"}, HealthHandler: NewHealthHandler()})

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://buyer.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://buyer.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
