// internal/workers/procurement/fetch-vendor-candidates/handler.go
package fetchvendorcandidates

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
	"vendor-matching/internal/vendorquery"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "fetch-vendor-candidates"

// CandidateFetcher is satisfied by *vendorquery.Client.
type CandidateFetcher interface {
	Fetch(ctx context.Context, q vendorquery.Query) vendorquery.CandidateSet
}

type Handler struct {
	config       *Config
	fetcher      CandidateFetcher
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(cfg *Config, fetcher CandidateFetcher, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%s requires a vendor query client", TaskType)
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		fetcher:      fetcher,
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

	demand, ok := variables["demand"]
	if !ok || demand == nil {
		return nil, errors.NewInvalidDemandError("demand is required")
	}
	if result, err := validation.Validate(validation.SchemaDemand, demand); err != nil {
		return nil, errors.NewInternalError(err)
	} else if !result.Valid {
		return nil, errors.NewInvalidDemandError(result.Error())
	}
	if prefs, ok := variables["preferences"]; ok && prefs != nil {
		if result, err := validation.Validate(validation.SchemaPreferences, prefs); err != nil {
			return nil, errors.NewInternalError(err)
		} else if !result.Valid {
			return nil, errors.NewInvalidPreferencesError(result.Error())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidDemandError(err.Error())
	}
	return &input, nil
}

// Execute looks up candidates for one demand. Lookup failures are reported
// in the output, never as an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidDemandError("input cannot be nil")
	}

	prefs := matching.NewPreferenceSet(input.Preferences...)
	query := vendorquery.NewQuery(input.Demand, prefs, input.Top)
	set := h.fetcher.Fetch(ctx, query)

	output := &Output{
		DemandKey: input.Demand.IdentityKey(),
		QueryTerm: query.Term,
		Vendors:   set.Vendors,
		PreScored: set.PreScored,
		NoVendors: len(set.Vendors) == 0,
	}
	if set.Failed() {
		output.QueryError = set.Err.Error()
	}

	h.logger.Info("vendor candidates fetched", map[string]interface{}{
		"demandKey": output.DemandKey,
		"count":     len(output.Vendors),
		"preScored": output.PreScored,
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
