// internal/workers/procurement/score-vendor-candidates/handler.go
package scorevendorcandidates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vendor-matching/internal/common/errors"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/common/metrics"
	"vendor-matching/internal/common/validation"
	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "score-vendor-candidates"

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(cfg *Config, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidVendorDataError(fmt.Sprintf("parse variables: %v", err))
	}

	if demand, ok := variables["demand"]; ok && demand != nil {
		if result, err := validation.Validate(validation.SchemaDemand, demand); err != nil {
			return nil, errors.NewInternalError(err)
		} else if !result.Valid {
			return nil, errors.NewInvalidDemandError(result.Error())
		}
	}
	if vendors, ok := variables["vendors"]; ok && vendors != nil {
		if result, err := validation.Validate(validation.SchemaCandidates, vendors); err != nil {
			return nil, errors.NewInternalError(err)
		} else if !result.Valid {
			return nil, errors.NewInvalidVendorDataError(result.Error())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidVendorDataError(err.Error())
	}
	return &input, nil
}

// Execute scores and ranks the candidates. Explicit weights win over
// preferences; pre-scored candidates are only ordered and capped, never
// re-scored.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidVendorDataError("input cannot be nil")
	}

	weights := matching.ResolveWeights(matching.NewPreferenceSet(input.Preferences...))
	if input.Weights != nil {
		weights = *input.Weights
	}

	var ranking matching.Ranking
	if input.PreScored {
		sorted := append([]models.Vendor(nil), input.Vendors...)
		matching.SortByScore(sorted)
		ranking = matching.NewRanking(matching.Limit(sorted, input.Top))
	} else {
		ranking = matching.Rank(input.Demand, input.Vendors, weights, input.Top)
	}
	metrics.VendorsScored.Observe(float64(len(input.Vendors)))

	output := &Output{
		DemandKey:    input.Demand.IdentityKey(),
		TopVendor:    ranking.Top,
		OtherVendors: ranking.Others,
		NoVendors:    ranking.Empty(),
		Weights:      weights,
	}

	fields := map[string]interface{}{
		"demandKey":  output.DemandKey,
		"candidates": len(input.Vendors),
	}
	if ranking.Top != nil {
		fields["topVendorId"] = ranking.Top.VendorID
		fields["topScore"] = ranking.Top.ScoreValue()
	}
	h.logger.Info("vendors ranked", fields)

	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
	}
}
