// internal/workers/procurement/resolve-vendor-preferences/handler.go
package resolvevendorpreferences

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

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-vendor-preferences"

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
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			return
		}
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidPreferencesError(fmt.Sprintf("parse variables: %v", err))
	}

	input := &Input{}
	raw, ok := variables["preferences"]
	if !ok || raw == nil {
		return input, nil
	}

	result, err := validation.Validate(validation.SchemaPreferences, raw)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewInvalidPreferencesError(result.Error())
	}

	if err := json.Unmarshal([]byte(job.GetVariables()), input); err != nil {
		return nil, errors.NewInvalidPreferencesError(err.Error())
	}
	return input, nil
}

// Execute resolves the weight vector for the given preferences.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidPreferencesError("input cannot be nil")
	}

	prefs := matching.NewPreferenceSet(input.Preferences...)
	weights := matching.ResolveWeights(prefs)

	var unknown []string
	for _, p := range prefs.Tokens() {
		if !p.Known() {
			unknown = append(unknown, string(p))
		}
	}
	if len(unknown) > 0 {
		h.logger.Warn("unknown preferences resolved as balanced", map[string]interface{}{
			"unknown": unknown,
		})
	}

	return &Output{
		Preferences: prefs.Strings(),
		Weights:     weights,
		WeightSum:   weights.Sum(),
		Balanced:    prefs.IsEmpty(),
		Unknown:     unknown,
	}, nil
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
