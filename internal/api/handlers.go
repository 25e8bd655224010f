// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"vendor-matching/internal/common/errors"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/matching"
	"vendor-matching/internal/models"
	"vendor-matching/internal/search"

	"github.com/gin-gonic/gin"
)

// Matcher is satisfied by *search.Searcher.
type Matcher interface {
	Search(ctx context.Context, req search.Request) (search.Result, error)
	MatchAll(ctx context.Context, demands []models.Demand, prefs matching.PreferenceSet, top, concurrency int) ([]search.Result, error)
}

// SelectionLedger is satisfied by *ledger.Ledger.
type SelectionLedger interface {
	SelectByKey(ctx context.Context, rfqID, demandKey string, vendor models.Vendor) (models.Selection, error)
	Selection(ctx context.Context, rfqID, demandKey string) (models.Selection, error)
}

// sessionHeader names the caller's matching session. Within one session a
// newer search for a demand supersedes an older one; without it searches are
// independent.
const sessionHeader = "X-Session-ID"

type MatchRequest struct {
	SessionID   string        `json:"sessionId,omitempty"`
	Demand      models.Demand `json:"demand"`
	Preferences []string      `json:"preferences"`
	Top         int           `json:"top"`
}

type RFQMatchRequest struct {
	RFQID       string          `json:"rfqId"`
	Demands     []models.Demand `json:"demands"`
	Preferences []string        `json:"preferences"`
	Top         int             `json:"top"`
}

type RFQMatchResponse struct {
	RFQID   string          `json:"rfqId,omitempty"`
	Matches []search.Result `json:"matches"`
	Matched int             `json:"matchedCount"`
}

type SelectionRequest struct {
	Vendor models.Vendor `json:"vendor"`
}

type MatchHandler struct {
	matcher     Matcher
	concurrency int
	logger      logger.Logger
}

func NewMatchHandler(m Matcher, concurrency int, log logger.Logger) *MatchHandler {
	return &MatchHandler{matcher: m, concurrency: concurrency, logger: log}
}

// Vendors answers in the same pre-split shape a pre-scoring inventory service
// returns, so this service can itself act as one.
func (h *MatchHandler) Vendors(c *gin.Context) {
	demand := models.Demand{
		SKU:     c.Query("sku"),
		INNName: c.Query("inn_name"),
	}
	if demand.QueryTerm() == "" {
		respondAppError(c, errors.NewInvalidDemandError("sku or inn_name is required"))
		return
	}
	if raw := c.Query("quantity"); raw != "" {
		qty, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondAppError(c, errors.NewInvalidDemandError("quantity must be numeric"))
			return
		}
		demand.Quantity = models.Number(qty)
	}
	top, err := queryInt(c, "top")
	if err != nil {
		respondAppError(c, errors.NewInvalidDemandError("top must be an integer"))
		return
	}

	result, err := h.matcher.Search(c.Request.Context(), search.Request{
		Session:     strings.TrimSpace(c.GetHeader(sessionHeader)),
		Demand:      demand,
		Preferences: matching.ParsePreferenceSet(c.Query("prefs")),
		Top:         top,
	})
	if err != nil {
		respondAppError(c, err)
		return
	}
	RespondOK(c, result.Wire())
}

func (h *MatchHandler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAppError(c, errors.NewInvalidDemandError(err.Error()))
		return
	}

	session := strings.TrimSpace(req.SessionID)
	if session == "" {
		session = strings.TrimSpace(c.GetHeader(sessionHeader))
	}

	result, err := h.matcher.Search(c.Request.Context(), search.Request{
		Session:     session,
		Demand:      req.Demand,
		Preferences: matching.NewPreferenceSet(req.Preferences...),
		Top:         req.Top,
	})
	if err != nil {
		respondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

func (h *MatchHandler) MatchRFQ(c *gin.Context) {
	var req RFQMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAppError(c, errors.NewInvalidDemandError(err.Error()))
		return
	}
	if len(req.Demands) == 0 {
		respondAppError(c, errors.NewInvalidDemandError("demands must not be empty"))
		return
	}

	results, err := h.matcher.MatchAll(c.Request.Context(), req.Demands,
		matching.NewPreferenceSet(req.Preferences...), req.Top, h.concurrency)
	if err != nil {
		respondAppError(c, err)
		return
	}

	resp := RFQMatchResponse{RFQID: req.RFQID, Matches: results}
	for _, r := range results {
		if !r.NoVendors {
			resp.Matched++
		}
	}
	RespondOK(c, resp)
}

type SelectionHandler struct {
	ledger SelectionLedger
	logger logger.Logger
}

func NewSelectionHandler(l SelectionLedger, log logger.Logger) *SelectionHandler {
	return &SelectionHandler{ledger: l, logger: log}
}

func (h *SelectionHandler) Put(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAppError(c, errors.NewInvalidVendorDataError(err.Error()))
		return
	}

	sel, err := h.ledger.SelectByKey(c.Request.Context(), c.Param("rfqId"), c.Param("demandKey"), req.Vendor)
	if err != nil {
		respondAppError(c, err)
		return
	}
	RespondOK(c, sel)
}

func (h *SelectionHandler) Get(c *gin.Context) {
	sel, err := h.ledger.Selection(c.Request.Context(), c.Param("rfqId"), c.Param("demandKey"))
	if err != nil {
		respondAppError(c, err)
		return
	}
	RespondOK(c, sel)
}

// Check is a named readiness check against one dependency.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready runs every check and reports 503 if any fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Fn(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			report[check.Name] = err.Error()
			continue
		}
		report[check.Name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
