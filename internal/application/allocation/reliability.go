package allocation

import (
	"context"
	"time"

	domalloc "github.com/aabine/flow-inventory/internal/domain/allocation"
	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
	"github.com/aabine/flow-inventory/pkg/logger"
)

// Sub-score weights of the vendor reliability estimate.
const (
	weightAvailability   = 0.30
	weightConsistency    = 0.25
	weightResponsiveness = 0.20
	weightQuality        = 0.25
)

// Neutral defaults substituted when a sub-computation fails or has no data.
// The estimator degrades instead of blocking allocation.
const (
	defaultAvailability   = 30.0
	defaultConsistency    = 35.0
	noMovementConsistency = 40.0
	defaultResponsiveness = 45.0
	defaultQuality        = 55.0
	noChecksQuality       = 60.0

	// fallbackReliability is returned when the whole estimate fails.
	fallbackReliability = 75.0
)

// Lookback windows and caps.
const (
	movementWindow   = 30 * 24 * time.Hour
	updateWindow     = 7 * 24 * time.Hour
	vendorCheckLimit = 100
)

// ReliabilityEstimator derives a 0-100 vendor trust score from four
// independent sub-scores: availability, stock-movement consistency,
// responsiveness and cylinder-quality history.
type ReliabilityEstimator struct {
	locations repository.LocationRepository
	stocks    repository.StockRepository
	movements repository.StockMovementRepository
	checks    repository.QualityCheckRepository
	timeout   time.Duration
	log       *logger.Logger
}

// NewReliabilityEstimator builds the estimator. timeout bounds the data
// lookups of one Score call; zero means 2s.
func NewReliabilityEstimator(
	locations repository.LocationRepository,
	stocks repository.StockRepository,
	movements repository.StockMovementRepository,
	checks repository.QualityCheckRepository,
	timeout time.Duration,
	log *logger.Logger,
) *ReliabilityEstimator {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ReliabilityEstimator{
		locations: locations,
		stocks:    stocks,
		movements: movements,
		checks:    checks,
		timeout:   timeout,
		log:       log,
	}
}

// Score computes the vendor reliability estimate. Base 50, plus the four
// weighted sub-scores, each clamped to [0,100] before weighting; the final
// value is clamped to [0,100]. A sub-score failure substitutes its neutral
// default; an unexpected estimator failure returns the conservative 75.
func (e *ReliabilityEstimator) Score(ctx context.Context, vendorID string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("vendor_id", vendorID).Interface("panic", r).
				Msg("reliability estimate failed, using fallback")
			score = fallbackReliability
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	availability, availDefault := e.AvailabilityScore(ctx, vendorID)
	consistency, consDefault := e.ConsistencyScore(ctx, vendorID)
	responsiveness, respDefault := e.ResponsivenessScore(ctx, vendorID)
	quality, qualDefault := e.QualityScore(ctx, vendorID)

	if availDefault || consDefault || respDefault || qualDefault {
		e.log.Debug().Str("vendor_id", vendorID).
			Bool("availability_default", availDefault).
			Bool("consistency_default", consDefault).
			Bool("responsiveness_default", respDefault).
			Bool("quality_default", qualDefault).
			Msg("reliability sub-scores degraded")
	}

	score = 50 +
		domalloc.Clamp(availability)*weightAvailability +
		domalloc.Clamp(consistency)*weightConsistency +
		domalloc.Clamp(responsiveness)*weightResponsiveness +
		domalloc.Clamp(quality)*weightQuality
	return domalloc.Clamp(score)
}

// AvailabilityScore: half from the fraction of the vendor's active
// locations currently holding stock, half from the fraction of stock rows
// above their minimum threshold. Returns (value, usedDefault).
func (e *ReliabilityEstimator) AvailabilityScore(ctx context.Context, vendorID string) (float64, bool) {
	locations, err := e.locations.ListByVendor(ctx, vendorID)
	if err != nil {
		return defaultAvailability, true
	}
	active := map[string]bool{}
	for _, loc := range locations {
		if loc.IsActive {
			active[loc.ID] = true
		}
	}
	if len(active) == 0 {
		return 0, false
	}

	stocks, err := e.stocks.ListByVendor(ctx, vendorID)
	if err != nil {
		return defaultAvailability, true
	}
	if len(stocks) == 0 {
		return 0, false
	}

	withStock := map[string]bool{}
	adequate := 0
	for _, s := range stocks {
		if !active[s.LocationID] {
			continue
		}
		if s.AvailableQuantity > 0 {
			withStock[s.LocationID] = true
		}
		if s.AvailableQuantity > s.MinimumThreshold {
			adequate++
		}
	}
	locationScore := float64(len(withStock)) / float64(len(active)) * 50
	stockScore := float64(adequate) / float64(len(stocks)) * 50
	return locationScore + stockScore, false
}

// ConsistencyScore: trailing 30 days of stock movements; up to 50 points
// from inbound restocking (5 each), up to 50 from outbound fulfillment
// (2 each). No history is the neutral 40.
func (e *ReliabilityEstimator) ConsistencyScore(ctx context.Context, vendorID string) (float64, bool) {
	movements, err := e.movements.ListByVendorSince(ctx, vendorID, time.Now().Add(-movementWindow))
	if err != nil {
		return defaultConsistency, true
	}
	if len(movements) == 0 {
		return noMovementConsistency, true
	}

	inbound, outbound := 0, 0
	for _, m := range movements {
		switch {
		case m.Inbound():
			inbound++
		case m.Outbound():
			outbound++
		}
	}
	restocking := float64(inbound) * 5
	if restocking > 50 {
		restocking = 50
	}
	fulfillment := float64(outbound) * 2
	if fulfillment > 50 {
		fulfillment = 50
	}
	return restocking + fulfillment, false
}

// ResponsivenessScore: up to 60 points from active locations (15 each),
// up to 40 from locations updated in the trailing 7 days (10 each).
func (e *ReliabilityEstimator) ResponsivenessScore(ctx context.Context, vendorID string) (float64, bool) {
	locations, err := e.locations.ListByVendor(ctx, vendorID)
	if err != nil {
		return defaultResponsiveness, true
	}

	active, recent := 0, 0
	cutoff := time.Now().Add(-updateWindow)
	for _, loc := range locations {
		if loc.IsActive {
			active++
		}
		if loc.UpdatedAt.After(cutoff) {
			recent++
		}
	}
	activity := float64(active) * 15
	if activity > 60 {
		activity = 60
	}
	updates := float64(recent) * 10
	if updates > 40 {
		updates = 40
	}
	return activity + updates, false
}

// QualityScore: pass rate over the vendor's most recent checks (trailing
// 90 days, capped at 100). Above 95% is a flat 100; 85-95% is the rate
// itself; below that, max(20, rate*0.8). No checks is the neutral 60.
func (e *ReliabilityEstimator) QualityScore(ctx context.Context, vendorID string) (float64, bool) {
	checks, err := e.checks.ListByVendorSince(ctx, vendorID, time.Now().Add(-qualityWindow), vendorCheckLimit)
	if err != nil {
		return defaultQuality, true
	}
	if len(checks) == 0 {
		return noChecksQuality, true
	}

	passed := 0
	for _, qc := range checks {
		if qc.Status == entity.CheckPassed {
			passed++
		}
	}
	rate := float64(passed) / float64(len(checks)) * 100
	switch {
	case rate > 95:
		return 100, false
	case rate > 85:
		return rate, false
	default:
		if penalized := rate * 0.8; penalized > 20 {
			return penalized, false
		}
		return 20, false
	}
}
