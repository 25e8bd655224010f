// internal/workers/procurement/score-vendor-candidates/handler_test.go
package scorevendorcandidates

import (
	"context"
	"encoding/json"
	"testing"

	"vendor-matching/internal/common/errors"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"

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
	h, err := NewHandler(DefaultConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func TestHandler_Execute_RanksDescending(t *testing.T) {
	out, err := createTestHandler(t).Execute(context.Background(), &Input{
		Demand: models.Demand{SKU: "PARA-500", Quantity: 1000},
		Vendors: []models.Vendor{
			{VendorID: "short", AvailableQty: 0, LandedCost: 10, DeliveryDays: 5, QualityScore: 5, ReliabilityScore: 5},
			{VendorID: "exact", AvailableQty: 1000, LandedCost: 10, DeliveryDays: 5, QualityScore: 5, ReliabilityScore: 5},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, out.TopVendor)
	assert.Equal(t, "exact", out.TopVendor.VendorID)
	require.Len(t, out.OtherVendors, 1)
	assert.Greater(t, out.TopVendor.ScoreValue(), out.OtherVendors[0].ScoreValue())
	assert.Equal(t, matching.BalancedWeights(), out.Weights)
	for _, v := range append([]models.Vendor{*out.TopVendor}, out.OtherVendors...) {
		assert.GreaterOrEqual(t, v.ScoreValue(), 0.0)
		assert.LessOrEqual(t, v.ScoreValue(), 10.0)
	}
}

func TestHandler_Execute_ExplicitWeights(t *testing.T) {
	deliveryOnly := matching.WeightVector{Delivery: 1}
	out, err := createTestHandler(t).Execute(context.Background(), &Input{
		Demand:      models.Demand{SKU: "X"},
		Preferences: []string{"quantity"},
		Weights:     &deliveryOnly,
		Vendors: []models.Vendor{
			{VendorID: "slow", DeliveryDays: 10},
			{VendorID: "fast", DeliveryDays: 2},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "fast", out.TopVendor.VendorID)
	assert.InDelta(t, 5.0, out.TopVendor.ScoreValue(), 1e-9)
	assert.Equal(t, deliveryOnly, out.Weights)
}

func TestHandler_Execute_PreScoredPassThrough(t *testing.T) {
	out, err := createTestHandler(t).Execute(context.Background(), &Input{
		Demand:    models.Demand{SKU: "X"},
		PreScored: true,
		Top:       2,
		Vendors: []models.Vendor{
			models.Vendor{VendorID: "c"}.WithScore(1),
			models.Vendor{VendorID: "a"}.WithScore(8),
			models.Vendor{VendorID: "b"}.WithScore(6),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "a", out.TopVendor.VendorID)
	assert.InDelta(t, 8, out.TopVendor.ScoreValue(), 1e-9)
	require.Len(t, out.OtherVendors, 1)
	assert.Equal(t, "b", out.OtherVendors[0].VendorID)
}

func TestHandler_Execute_Empty(t *testing.T) {
	out, err := createTestHandler(t).Execute(context.Background(), &Input{Demand: models.Demand{SKU: "X"}})

	require.NoError(t, err)
	assert.True(t, out.NoVendors)
	assert.Nil(t, out.TopVendor)
	assert.NotNil(t, out.OtherVendors)
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t)

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"demand":  map[string]interface{}{"inn_name": "amoxicillin", "quantity": 50},
		"vendors": []interface{}{map[string]interface{}{"vendorId": "v1", "landedCost": "1.5", "deliveryDays": nil}},
	}))
	require.NoError(t, err)
	require.Len(t, input.Vendors, 1)
	assert.InDelta(t, 1.5, input.Vendors[0].LandedCost.Float64(), 1e-9)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{
		"vendors": map[string]interface{}{"vendorId": "v1"},
	}))
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidVendorData, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}
