// internal/vendorquery/http_test.go
package vendorquery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonhttp "vendor-matching/internal/common/http"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/matching"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_SendsQueryAndDecodesRawContract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vendors", r.URL.Path)
		assert.Equal(t, "amoxicillin 500mg/5ml", r.URL.Query().Get("sku"))
		assert.Contains(t, r.URL.RawQuery, "sku=amoxicillin+500mg%2F5ml")
		assert.Equal(t, "time,resource-saving", r.URL.Query().Get("prefs"))
		assert.Equal(t, "3", r.URL.Query().Get("top"))
		assert.Equal(t, "1250.5", r.URL.Query().Get("quantity"))
		assert.Equal(t, "k-123", r.Header.Get("X-API-Key"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"vendorId":"v1","availableQty":100},{"vendorId":"v2"}]`))
	}))
	defer server.Close()

	src := NewHTTPSource(HTTPSourceConfig{BaseURL: server.URL + "/", APIKey: "k-123", Timeout: time.Second}, logger.NewTestLogger(t))
	set, err := src.FetchCandidates(context.Background(), Query{
		Term:        " amoxicillin 500mg/5ml ",
		Preferences: matching.NewPreferenceSet("resource-saving", "time"),
		Top:         3,
		Quantity:    1250.5,
	})

	require.NoError(t, err)
	assert.False(t, set.PreScored)
	assert.Equal(t, []string{"v1", "v2"}, vendorIDs(set.Vendors))
}

func TestHTTPSource_OmitsEmptyPrefsTopAndQuantity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasPrefs := r.URL.Query()["prefs"]
		_, hasTop := r.URL.Query()["top"]
		_, hasQty := r.URL.Query()["quantity"]
		assert.False(t, hasPrefs)
		assert.False(t, hasTop)
		assert.False(t, hasQty)
		_, _ = w.Write([]byte(`{"top_vendor":{"vendorId":"a","score":7},"other_vendors":[]}`))
	}))
	defer server.Close()

	src := NewHTTPSource(HTTPSourceConfig{BaseURL: server.URL, Timeout: time.Second}, logger.NewTestLogger(t))
	set, err := src.FetchCandidates(context.Background(), Query{Term: "PARA-500"})

	require.NoError(t, err)
	assert.True(t, set.PreScored)
	assert.Equal(t, []string{"a"}, vendorIDs(set.Vendors))
}

func TestHTTPSource_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "inventory down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := NewHTTPSource(HTTPSourceConfig{BaseURL: server.URL, Timeout: time.Second}, logger.NewTestLogger(t))

	_, err := src.FetchCandidates(context.Background(), Query{Term: "PARA-500"})
	var statusErr *commonhttp.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	_, err = src.FetchCandidates(context.Background(), Query{Term: "  "})
	assert.ErrorIs(t, err, ErrEmptyTerm)
}
