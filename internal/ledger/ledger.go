// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	apperrors "vendor-matching/internal/common/errors"
	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/common/metrics"
	"vendor-matching/internal/models"

	"github.com/google/uuid"
)

// ErrNoSelection is returned when nothing has been selected for a demand.
var ErrNoSelection = errors.New("no selection recorded")

// Store persists one selection per RFQ and demand key. Put must replace any
// prior selection for the same pair atomically.
type Store interface {
	Name() string
	Put(ctx context.Context, sel models.Selection) error
	Get(ctx context.Context, rfqID, demandKey string) (models.Selection, error)
}

// Key is the flat store key of one demand's selection within an RFQ. Both
// parts are path-escaped, so a "/" in either cannot make two pairs collide.
func Key(rfqID, demandKey string) string {
	return url.PathEscape(rfqID) + "/" + url.PathEscape(demandKey)
}

// Publisher is notified after a selection is stored.
type Publisher interface {
	PublishSelection(ctx context.Context, sel models.Selection) error
}

// Ledger records which vendor was picked for each demand of an RFQ. RFQs are
// independent of each other, as are demands within one RFQ. Selections can be
// replaced but not cleared.
type Ledger struct {
	store     Store
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*Ledger)

// WithPublisher emits a selection event after each successful write.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func New(store Store, log logger.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "ledger", "backend": store.Name()}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Select records vendor as the choice for the demand within the RFQ,
// replacing any earlier one.
func (l *Ledger) Select(ctx context.Context, rfqID string, demand models.Demand, vendor models.Vendor) (models.Selection, error) {
	return l.SelectByKey(ctx, rfqID, demand.IdentityKey(), vendor)
}

// SelectByKey is Select for callers that only hold the identity key.
func (l *Ledger) SelectByKey(ctx context.Context, rfqID, demandKey string, vendor models.Vendor) (models.Selection, error) {
	rfqID = strings.TrimSpace(rfqID)
	if rfqID == "" {
		return models.Selection{}, apperrors.NewInvalidDemandError("rfq id is empty")
	}
	demandKey = strings.TrimSpace(demandKey)
	if demandKey == "" {
		return models.Selection{}, apperrors.NewInvalidDemandError("demand key is empty")
	}
	if strings.TrimSpace(vendor.VendorID) == "" {
		return models.Selection{}, apperrors.NewInvalidVendorDataError("selected vendor has no vendorId")
	}

	sel := models.Selection{
		ID:         uuid.NewString(),
		RFQID:      rfqID,
		DemandKey:  demandKey,
		Vendor:     vendor,
		SelectedAt: l.now().UTC(),
	}

	if err := l.store.Put(ctx, sel); err != nil {
		return models.Selection{}, apperrors.NewSelectionFailedError(Key(rfqID, demandKey), err)
	}
	metrics.SelectionsRecorded.WithLabelValues(l.store.Name()).Inc()

	l.logger.Info("vendor selected", map[string]interface{}{
		"rfqId":     rfqID,
		"demandKey": demandKey,
		"vendorId":  vendor.VendorID,
	})

	if l.publisher != nil {
		if err := l.publisher.PublishSelection(ctx, sel); err != nil {
			l.logger.Warn("selection event not published", map[string]interface{}{
				"rfqId":     rfqID,
				"demandKey": demandKey,
				"error":     err,
			})
		}
	}

	return sel, nil
}

// Selection returns the current selection for the demand within the RFQ or
// ErrNoSelection.
func (l *Ledger) Selection(ctx context.Context, rfqID, demandKey string) (models.Selection, error) {
	sel, err := l.store.Get(ctx, strings.TrimSpace(rfqID), strings.TrimSpace(demandKey))
	if err != nil {
		if errors.Is(err, ErrNoSelection) {
			return models.Selection{}, ErrNoSelection
		}
		return models.Selection{}, apperrors.NewLedgerUnavailableError(l.store.Name(), err)
	}
	return sel, nil
}
