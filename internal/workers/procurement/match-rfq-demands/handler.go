// internal/workers/procurement/match-rfq-demands/handler.go
package matchrfqdemands

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
	"vendor-matching/internal/search"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "match-rfq-demands"

type Handler struct {
	config       *Config
	searcher     *search.Searcher
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(cfg *Config, searcher *search.Searcher, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if searcher == nil {
		return nil, fmt.Errorf("%s requires a searcher", TaskType)
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		searcher:     searcher,
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
		return nil, errors.NewInvalidDemandError(fmt.Sprintf("parse variables: %v", err))
	}

	demands, ok := variables["demands"].([]interface{})
	if !ok {
		return nil, errors.NewInvalidDemandError("demands must be a list of line items")
	}
	for i, d := range demands {
		result, err := validation.Validate(validation.SchemaDemand, d)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		if !result.Valid {
			return nil, errors.NewInvalidDemandError(fmt.Sprintf("demands[%d]: %s", i, result.Error()))
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidDemandError(err.Error())
	}
	return &input, nil
}

// Execute ranks vendors for every line item with bounded concurrency.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidDemandError("input cannot be nil")
	}

	top := input.Top
	if top <= 0 {
		top = h.config.DefaultTop
	}

	prefs := matching.NewPreferenceSet(input.Preferences...)
	results, err := h.searcher.MatchAll(ctx, input.Demands, prefs, top, h.config.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("match rfq %s: %w", input.RFQID, err)
	}

	output := &Output{
		RFQID:     input.RFQID,
		Results:   results,
		Unmatched: []string{},
	}
	for _, r := range results {
		if r.NoVendors {
			output.Unmatched = append(output.Unmatched, r.DemandKey)
			continue
		}
		output.Matched++
	}

	h.logger.Info("rfq demands matched", map[string]interface{}{
		"rfqId":     input.RFQID,
		"lineItems": len(results),
		"matched":   output.Matched,
	})
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
