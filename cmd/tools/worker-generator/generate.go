// cmd/tools/worker-generator/generate.go
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"vendor-matching/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name         string
	PackageName  string
	TaskType     string
	Description  string
	Timeout      time.Duration
	InputFields  []Field
	OutputFields []Field
	ErrorCodes   []string
}

type Field struct {
	Name    string
	GoType  string
	JSONTag string
}

// schemaFields reads either a JSON schema ("properties") or the registry's
// shorthand of field name to type name.
func schemaFields(schema map[string]interface{}) []Field {
	props := schema
	if p, ok := schema["properties"].(map[string]interface{}); ok {
		props = p
	}

	fields := make([]Field, 0, len(props))
	for name, raw := range props {
		var typ string
		switch v := raw.(type) {
		case string:
			typ = v
		case map[string]interface{}:
			typ, _ = v["type"].(string)
			if typ == "array" {
				if items, ok := v["items"].(map[string]interface{}); ok {
					itemType, _ := items["type"].(string)
					typ = itemType + "[]"
				}
			}
		}
		fields = append(fields, Field{Name: exportedName(name), GoType: goType(typ), JSONTag: name})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].JSONTag < fields[j].JSONTag })
	return fields
}

func goType(jsonType string) string {
	if elem, isSlice := strings.CutSuffix(jsonType, "[]"); isSlice {
		return "[]" + goType(elem)
	}
	switch jsonType {
	case "string":
		return "string"
	case "number":
		return "float64"
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	default:
		return "interface{}"
	}
}

// exportedName turns demandKey or line_item_id into DemandKey or LineItemID.
func exportedName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		if strings.EqualFold(p, "id") {
			b.WriteString("ID")
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

func newWorkerData(act registry.Activity) (WorkerData, error) {
	timeout := 30 * time.Second
	if act.Timeout != "" {
		d, err := time.ParseDuration(act.Timeout)
		if err != nil {
			return WorkerData{}, fmt.Errorf("activity %s timeout: %w", act.ID, err)
		}
		timeout = d
	}
	return WorkerData{
		Name:         act.DisplayName,
		PackageName:  strings.ReplaceAll(act.ID, "-", ""),
		TaskType:     act.TaskType,
		Description:  act.Description,
		Timeout:      timeout,
		InputFields:  schemaFields(act.InputSchema),
		OutputFields: schemaFields(act.OutputSchema),
		ErrorCodes:   act.ErrorCodes,
	}, nil
}

var funcMap = template.FuncMap{
	"seconds": func(d time.Duration) int { return int(d / time.Second) },
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

// generate writes a gofmt'd worker scaffold to <outputDir>/<category>/<id>
// and returns the files it wrote.
func generate(act registry.Activity, outputDir string, force bool) ([]string, error) {
	data, err := newWorkerData(act)
	if err != nil {
		return nil, err
	}

	workerDir := filepath.Join(outputDir, strings.ToLower(act.Category), act.ID)
	if err := os.MkdirAll(workerDir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		path := filepath.Join(workerDir, name)
		if _, err := os.Stat(path); err == nil && !force {
			return written, fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		tmpl, err := template.New(name).Funcs(funcMap).Parse(templates[name])
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", name, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("execute template %s: %w", name, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return written, fmt.Errorf("format %s: %w", name, err)
		}

		if err := os.WriteFile(path, src, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

const configTemplate = `package {{ .PackageName }}

import (
	"fmt"
	"time"

	"vendor-matching/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       {{ seconds .Timeout }} * time.Second,
	}
}

// ConfigFromApp reads the workers.{{ .TaskType }} section.
func ConfigFromApp(appCfg *config.Config) *Config {
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}
	w := config.GetWorkerConfig(appCfg, TaskType)
	cfg.Enabled = w.Enabled
	if w.MaxJobsActive > 0 {
		cfg.MaxJobsActive = w.MaxJobsActive
	}
	if w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
`

const modelsTemplate = `package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .GoType }} ` + "`json:\"{{ .JSONTag }},omitempty\"`" + `
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .GoType }} ` + "`json:\"{{ .JSONTag }}\"`" + `
{{- end }}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vendor-matching/internal/common/errors"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "{{ .TaskType }}"

{{ if .Description }}// Handler: {{ .Description }}.
{{ end -}}
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
	return &Handler{config: cfg, logger: l, errorHandler: errors.NewErrorHandler(l)}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		err = errors.NewInternalError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

{{ if .ErrorCodes }}// Execute may fail with {{ range $i, $c := .ErrorCodes }}{{ if $i }}, {{ end }}{{ $c }}{{ end }}.
{{ end -}}
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInternalError(fmt.Errorf("input cannot be nil"))
	}
	return &Output{}, nil
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"vendor-matching/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	h, err := NewHandler(DefaultConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotNil(t, out)

	_, err = h.Execute(context.Background(), nil)
	assert.Error(t, err)
}
`
