package probe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rwscout/internal/catalog"
	"rwscout/internal/model"
)

// SlotLookup is the backend's availability endpoint.
type SlotLookup interface {
	Availability(ctx context.Context, q catalog.AvailabilityQuery) (catalog.AvailabilityResponse, error)
}

// Prober checks one restaurant for open slots.
type Prober struct {
	lookup SlotLookup
	logger *zap.Logger
}

// New creates a prober. A nil logger discards output.
func New(lookup SlotLookup, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{lookup: lookup, logger: logger}
}

// ValidateQuery checks the date and party size shared by every probe of a run.
func ValidateQuery(date string, partySize int) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", model.ErrInvalidQuery, date)
	}
	if partySize < 1 {
		return fmt.Errorf("%w: party size must be at least 1", model.ErrInvalidQuery)
	}
	return nil
}

// BuildQuery picks the lookup parameters for r: the OpenTable id when known,
// otherwise a recognized platform URL. ok is false when r has no usable integration.
func BuildQuery(r model.Restaurant, date string, partySize int) (q catalog.AvailabilityQuery, ok bool) {
	q = catalog.AvailabilityQuery{Date: date, PartySize: partySize}
	switch r.Reservation.Platform() {
	case model.PlatformOpenTable, model.PlatformResy:
	default:
		return q, false
	}
	if r.Reservation.Kind == model.ReservationOpenTableID {
		q.OpenTableID = r.Reservation.Value
	} else {
		q.PlatformURL = r.Reservation.Value
	}
	return q, true
}

// Probe asks the backend for r's slots. The returned error is non-nil only when ctx
// ended while the call was outstanding; the outcome must then be discarded.
func (p *Prober) Probe(ctx context.Context, r model.Restaurant, date string, partySize int) (model.ProbeOutcome, error) {
	q, ok := BuildQuery(r, date, partySize)
	if !ok {
		return model.Failed(model.ErrNoIntegration.Error()), nil
	}
	if err := ctx.Err(); err != nil {
		return model.ProbeOutcome{}, err
	}

	resp, err := p.lookup.Availability(ctx, q)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.ProbeOutcome{}, ctxErr
	}
	if err != nil {
		p.logger.Warn("availability probe failed",
			zap.String("restaurant", r.Name),
			zap.String("platform", string(r.Reservation.Platform())),
			zap.Error(err),
		)
		return model.Failed(model.ErrProbeFailed.Error()), nil
	}
	if resp.HasError {
		p.logger.Info("backend reported probe error",
			zap.String("restaurant", r.Name),
			zap.String("message", resp.Error),
		)
		return model.Failed(resp.Error), nil
	}
	return model.Succeeded(resp.Slots), nil
}
