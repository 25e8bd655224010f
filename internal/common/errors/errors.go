// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidDemand      ErrorCode = "INVALID_DEMAND"
	ErrCodeInvalidPreferences ErrorCode = "INVALID_PREFERENCES"
	ErrCodeInvalidVendorData  ErrorCode = "INVALID_VENDOR_DATA"

	ErrCodeVendorQueryFailed  ErrorCode = "VENDOR_QUERY_FAILED"
	ErrCodeVendorQueryTimeout ErrorCode = "VENDOR_QUERY_TIMEOUT"
	ErrCodeSearchSuperseded   ErrorCode = "SEARCH_SUPERSEDED"

	ErrCodeScoringFailed ErrorCode = "SCORING_FAILED"

	ErrCodeSelectionFailed   ErrorCode = "SELECTION_FAILED"
	ErrCodeSelectionNotFound ErrorCode = "SELECTION_NOT_FOUND"
	ErrCodeLedgerUnavailable ErrorCode = "LEDGER_UNAVAILABLE"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err to a *StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDemandError creates a non-retryable demand validation error.
func NewInvalidDemandError(details string) *StandardError {
	return newError(ErrCodeInvalidDemand, "Demand line item is invalid", details, false)
}

// NewInvalidPreferencesError creates a non-retryable preference error.
func NewInvalidPreferencesError(details string) *StandardError {
	return newError(ErrCodeInvalidPreferences, "Preference set is invalid", details, false)
}

// NewInvalidVendorDataError creates a non-retryable vendor payload error.
func NewInvalidVendorDataError(details string) *StandardError {
	return newError(ErrCodeInvalidVendorData, "Vendor payload is invalid", details, false)
}

// NewVendorQueryFailedError creates a retryable vendor service error.
func NewVendorQueryFailedError(term string, err error) *StandardError {
	return newError(ErrCodeVendorQueryFailed, "Vendor inventory query failed",
		fmt.Sprintf("term: %s, error: %s", term, err.Error()), true)
}

// NewVendorQueryTimeoutError creates a retryable vendor service timeout error.
func NewVendorQueryTimeoutError(term string) *StandardError {
	return newError(ErrCodeVendorQueryTimeout, "Vendor inventory query timeout",
		fmt.Sprintf("term: %s", term), true)
}

// NewSearchSupersededError marks a result replaced by a newer request.
func NewSearchSupersededError(demandKey string) *StandardError {
	return newError(ErrCodeSearchSuperseded, "Vendor search superseded by a newer request",
		fmt.Sprintf("demandKey: %s", demandKey), false)
}

// NewScoringFailedError creates a non-retryable scoring error.
func NewScoringFailedError(details string) *StandardError {
	return newError(ErrCodeScoringFailed, "Vendor scoring failed", details, false)
}

// NewSelectionFailedError creates a retryable ledger write error.
func NewSelectionFailedError(demandKey string, err error) *StandardError {
	return newError(ErrCodeSelectionFailed, "Recording vendor selection failed",
		fmt.Sprintf("demandKey: %s, error: %s", demandKey, err.Error()), true)
}

// NewSelectionNotFoundError creates a non-retryable lookup miss.
func NewSelectionNotFoundError(demandKey string) *StandardError {
	return newError(ErrCodeSelectionNotFound, "No vendor selected for demand",
		fmt.Sprintf("demandKey: %s", demandKey), false)
}

// NewLedgerUnavailableError creates a retryable ledger backend error.
func NewLedgerUnavailableError(backend string, err error) *StandardError {
	return newError(ErrCodeLedgerUnavailable, "Selection ledger unavailable",
		fmt.Sprintf("backend: %s, error: %s", backend, err.Error()), true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewCacheUnavailableError creates a retryable cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Candidate cache unavailable", err.Error(), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

// NewBrokerUnavailableError creates a retryable zeebe gateway error.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Workflow broker unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidDemand:            "INVALID_DEMAND",
	ErrCodeInvalidPreferences:       "INVALID_PREFERENCES",
	ErrCodeInvalidVendorData:        "INVALID_VENDOR_DATA",
	ErrCodeVendorQueryFailed:        "VENDOR_QUERY_FAILED",
	ErrCodeVendorQueryTimeout:       "VENDOR_QUERY_TIMEOUT",
	ErrCodeSearchSuperseded:         "SEARCH_SUPERSEDED",
	ErrCodeScoringFailed:            "SCORING_FAILED",
	ErrCodeSelectionFailed:          "SELECTION_FAILED",
	ErrCodeSelectionNotFound:        "SELECTION_NOT_FOUND",
	ErrCodeLedgerUnavailable:        "LEDGER_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeCacheUnavailable:         "CACHE_UNAVAILABLE",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeBrokerUnavailable:        "BROKER_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeVendorQueryFailed,
		ErrCodeSelectionFailed,
		ErrCodeLedgerUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeVendorQueryTimeout,
		ErrCodeCacheUnavailable:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "VENDOR_QUERY") || strings.Contains(codeStr, "SEARCH"):
		return "VENDOR_QUERY"
	case strings.Contains(codeStr, "SCORING"):
		return "SCORING"
	case strings.Contains(codeStr, "SELECTION") || strings.Contains(codeStr, "LEDGER"):
		return "LEDGER"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "CACHE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "BROKER"):
		return "WORKFLOW"
	default:
		return "INTERNAL"
	}
}
