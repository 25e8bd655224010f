// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names accepted by Validate.
const (
	SchemaDemand      = "demand"
	SchemaPreferences = "preferences"
	SchemaCandidates  = "candidates"
	SchemaSelection   = "selection"
)

// lenientNumber allows the quoted numerics and nulls the upstream inventory service emits.
const lenientNumber = `{"type": ["number", "string", "null"]}`

var schemas = map[string]string{
	SchemaDemand: `{
  "type": "object",
  "properties": {
    "sku":          {"type": ["string", "null"]},
    "inn_name":     {"type": ["string", "null"]},
    "id":           {"type": ["string", "number", "null"]},
    "line_item_id": {"type": ["string", "number", "null"]},
    "quantity":     ` + lenientNumber + `,
    "dosage":       {"type": ["string", "null"]},
    "form":         {"type": ["string", "null"]}
  }
}`,
	SchemaPreferences: `{
  "type": "array",
  "items": {"type": "string", "maxLength": 64}
}`,
	SchemaCandidates: `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "vendorId":         {"type": ["string", "null"]},
      "name":             {"type": ["string", "null"]},
      "country":          {"type": ["string", "null"]},
      "availableQty":     ` + lenientNumber + `,
      "landedCost":       ` + lenientNumber + `,
      "deliveryDays":     ` + lenientNumber + `,
      "qualityScore":     ` + lenientNumber + `,
      "reliabilityScore": ` + lenientNumber + `,
      "score":            {"type": ["number", "null"]}
    }
  }
}`,
	SchemaSelection: `{
  "type": "object",
  "required": ["rfqId", "vendor"],
  "properties": {
    "rfqId":     {"type": "string", "minLength": 1},
    "demandKey": {"type": "string"},
    "demand":    {"type": ["object", "null"]},
    "vendor":    {"type": "object", "required": ["vendorId"]}
  }
}`,}

var compiled = map[string]*gojsonschema.Schema{}

func init() {
	for name, raw := range schemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("invalid %s schema: %v", name, err))
		}
		compiled[name] = s
	}
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks a decoded JSON document (maps, slices, scalars) against a named schema.
func Validate(schemaName string, document interface{}) (*ValidationResult, error) {
	schema, ok := compiled[schemaName]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", schemaName, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Error joins all messages, for wrapping into a StandardError.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

var taskTypePattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)+$`)

// ValidateTaskType checks a zeebe task type follows the verb-noun-noun convention.
func ValidateTaskType(taskType string) error {
	if !taskTypePattern.MatchString(taskType) {
		return fmt.Errorf("task type must be lowercase words joined by dashes (e.g. score-vendor-candidates)")
	}
	return nil
}
