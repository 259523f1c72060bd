package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aabine/flow-inventory/internal/application/dto"
	"github.com/aabine/flow-inventory/internal/domain"
	domalloc "github.com/aabine/flow-inventory/internal/domain/allocation"
	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/geo"
	"github.com/aabine/flow-inventory/internal/domain/repository"
	"github.com/aabine/flow-inventory/pkg/logger"
)

// qualityWindow is the lookback for quality checks, both per-cylinder and
// per-vendor.
const qualityWindow = 90 * 24 * time.Hour

// defaultCylinderQuality applies to a selected cylinder with no checks in
// the window.
const defaultCylinderQuality = 70.0

// Config holds the tunable parameters of the allocation engine.
type Config struct {
	UnitBaseCost       decimal.Decimal // per-cylinder base price
	PerKmRate          decimal.Decimal // delivery cost per km
	Currency           string
	MaxCandidates      int           // bound on the eligibility query
	ReliabilityTimeout time.Duration // budget for reliability lookups per vendor
}

// applyDefaults fills zero values with the production defaults.
func (c *Config) applyDefaults() {
	if c.UnitBaseCost.IsZero() {
		c.UnitBaseCost = decimal.NewFromInt(150)
	}
	if c.PerKmRate.IsZero() {
		c.PerKmRate = decimal.NewFromInt(8)
	}
	if c.Currency == "" {
		c.Currency = "NGN"
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 500
	}
	if c.ReliabilityTimeout <= 0 {
		c.ReliabilityTimeout = 2 * time.Second
	}
}

// AllocateUseCase runs one allocation query: eligibility filter, grouping
// by (vendor, location), per-site cylinder selection, option metrics,
// vendor reliability and composite ranking. Read-only; reservation is a
// separate use case.
type AllocateUseCase struct {
	cylinders   repository.CylinderRepository
	checks      repository.QualityCheckRepository
	locations   repository.LocationRepository
	reliability *ReliabilityEstimator
	cfg         Config
	log         *logger.Logger
}

// NewAllocateUseCase builds the use case.
func NewAllocateUseCase(
	cylinders repository.CylinderRepository,
	checks repository.QualityCheckRepository,
	locations repository.LocationRepository,
	reliability *ReliabilityEstimator,
	cfg Config,
	log *logger.Logger,
) *AllocateUseCase {
	cfg.applyDefaults()
	return &AllocateUseCase{
		cylinders:   cylinders,
		checks:      checks,
		locations:   locations,
		reliability: reliability,
		cfg:         cfg,
		log:         log,
	}
}

// option is a fulfillable group before ranking.
type option struct {
	vendorID   string
	locationID string
	cylinders  []*entity.Cylinder
	distanceKm float64

	totalCapacity decimal.Decimal
	averageFill   float64
	totalCost     decimal.Decimal
	deliveryMins  int
	quality       float64
	reliability   float64
	composite     float64
}

// Allocate searches and ranks fulfillment options for the request.
// An empty option list is a valid result, not an error.
func (uc *AllocateUseCase) Allocate(ctx context.Context, req dto.AllocationSearchRequest) (*dto.AllocationSearchResponse, error) {
	applyRequestDefaults(&req)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	candidates, err := uc.cylinders.FindEligible(ctx, repository.EligibilityCriteria{
		Size:               req.Size,
		MinFillPercentage:  req.MinFillPercentage,
		EmergencyReadyOnly: req.Urgent,
		PreferredVendorID:  req.PreferredVendorID,
		RequiredCheckTypes: req.RequiredCheckTypes,
		CheckWindow:        qualityWindow,
		Limit:              uc.cfg.MaxCandidates,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	groups := groupByLocation(candidates)

	// Reliability is memoized per vendor for the duration of this query.
	reliabilityByVendor := map[string]float64{}

	options := make([]*option, 0, len(groups))
	for _, group := range groups {
		if len(group) < req.Quantity {
			continue
		}
		vendorID, locationID := group[0].VendorID, group[0].LocationID

		loc, err := uc.locations.GetByID(ctx, locationID)
		if err != nil || loc == nil {
			uc.log.Warn().Err(err).Str("location_id", locationID).Msg("skipping group: location lookup failed")
			continue
		}
		distance := geo.Distance(loc.Latitude, loc.Longitude, req.DeliveryLatitude, req.DeliveryLongitude)
		if distance > req.MaxDistanceKm {
			continue
		}

		selected := selectBestCylinders(group, req.Quantity, now, req.Urgent)

		opt := &option{
			vendorID:   vendorID,
			locationID: locationID,
			cylinders:  selected,
			distanceKm: distance,
		}
		uc.fillMetrics(ctx, opt, req)

		rel, ok := reliabilityByVendor[vendorID]
		if !ok {
			rel = uc.reliability.Score(ctx, vendorID)
			reliabilityByVendor[vendorID] = rel
		}
		opt.reliability = rel
		opt.composite = domalloc.CompositeScore(
			opt.distanceKm, opt.totalCost.InexactFloat64(), opt.quality, opt.reliability, req.Urgent,
		)
		options = append(options, opt)
	}

	rankOptions(options)
	return uc.toResponse(req, options), nil
}

// fillMetrics computes capacity, fill, cost, delivery time and quality for
// the selected cylinder subset.
func (uc *AllocateUseCase) fillMetrics(ctx context.Context, opt *option, req dto.AllocationSearchRequest) {
	total := decimal.Zero
	fillSum := 0.0
	for _, c := range opt.cylinders {
		total = total.Add(c.CapacityLiters)
		fillSum += c.FillPercentage
	}
	opt.totalCapacity = total
	opt.averageFill = fillSum / float64(len(opt.cylinders))

	baseCost := uc.cfg.UnitBaseCost.Mul(decimal.NewFromInt(int64(len(opt.cylinders))))
	deliveryCost := decimal.NewFromFloat(opt.distanceKm).Mul(uc.cfg.PerKmRate)
	if req.Urgent {
		deliveryCost = deliveryCost.Mul(decimal.NewFromFloat(1.5))
	}
	opt.totalCost = baseCost.Add(deliveryCost)
	opt.deliveryMins = estimateDeliveryTime(opt.distanceKm, req.Urgent)
	opt.quality = uc.qualityScore(ctx, opt.cylinders)
}

// qualityScore averages the pass rate of each selected cylinder's checks
// over the quality window. Data-access failure degrades to the default
// instead of failing the allocation.
func (uc *AllocateUseCase) qualityScore(ctx context.Context, cylinders []*entity.Cylinder) float64 {
	ids := make([]string, len(cylinders))
	for i, c := range cylinders {
		ids[i] = c.ID
	}
	checks, err := uc.checks.ListByCylindersSince(ctx, ids, time.Now().Add(-qualityWindow))
	if err != nil {
		uc.log.Warn().Err(err).Msg("quality score degraded to default")
		return defaultCylinderQuality
	}

	passed := map[string]int{}
	totals := map[string]int{}
	for _, qc := range checks {
		totals[qc.CylinderID]++
		if qc.Status == entity.CheckPassed {
			passed[qc.CylinderID]++
		}
	}

	sum := 0.0
	for _, id := range ids {
		if totals[id] == 0 {
			sum += defaultCylinderQuality
			continue
		}
		sum += float64(passed[id]) / float64(totals[id]) * 100
	}
	return sum / float64(len(ids))
}

// groupByLocation partitions candidates by (vendor, location) so quantity
// sufficiency is checked per physical site. One option never assembles
// cylinders across sites.
func groupByLocation(candidates []*entity.Cylinder) map[string][]*entity.Cylinder {
	groups := map[string][]*entity.Cylinder{}
	for _, c := range candidates {
		key := c.VendorID + "|" + c.LocationID
		groups[key] = append(groups[key], c)
	}
	return groups
}

// selectBestCylinders picks the top-quantity units by score, ids breaking
// ties so results are reproducible.
func selectBestCylinders(group []*entity.Cylinder, quantity int, now time.Time, urgent bool) []*entity.Cylinder {
	type scored struct {
		c     *entity.Cylinder
		score float64
	}
	ranked := make([]scored, len(group))
	for i, c := range group {
		ranked[i] = scored{c: c, score: domalloc.CylinderScore(c, now, urgent)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].c.ID < ranked[j].c.ID
	})
	out := make([]*entity.Cylinder, quantity)
	for i := 0; i < quantity; i++ {
		out[i] = ranked[i].c
	}
	return out
}

// rankOptions sorts descending by composite score; ties by ascending
// distance, then ascending cost.
func rankOptions(options []*option) {
	sort.Slice(options, func(i, j int) bool {
		a, b := options[i], options[j]
		if a.composite != b.composite {
			return a.composite > b.composite
		}
		if a.distanceKm != b.distanceKm {
			return a.distanceKm < b.distanceKm
		}
		return a.totalCost.LessThan(b.totalCost)
	})
}

// estimateDeliveryTime returns minutes: 2.5 per km with a floor of 60, or
// roughly 40% faster with a floor of 30 when urgent.
func estimateDeliveryTime(distanceKm float64, urgent bool) int {
	base := distanceKm * 2.5
	if urgent {
		if t := int(base * 0.6); t > 30 {
			return t
		}
		return 30
	}
	if t := int(base); t > 60 {
		return t
	}
	return 60
}

// applyRequestDefaults fills unset (zero) optional fields. Explicit
// negatives are left for validation to reject.
func applyRequestDefaults(req *dto.AllocationSearchRequest) {
	if req.MaxDistanceKm == 0 {
		req.MaxDistanceKm = 50
	}
	if req.MinFillPercentage == 0 {
		req.MinFillPercentage = 90
	}
}

func validateRequest(req dto.AllocationSearchRequest) error {
	switch req.Size {
	case entity.SizeSmall, entity.SizeMedium, entity.SizeLarge, entity.SizeExtraLarge:
	default:
		return domain.ErrInvalidInput
	}
	if req.Quantity < 1 || req.Quantity > 100 {
		return domain.ErrInvalidInput
	}
	if req.DeliveryLatitude < -90 || req.DeliveryLatitude > 90 {
		return domain.ErrInvalidInput
	}
	if req.DeliveryLongitude < -180 || req.DeliveryLongitude > 180 {
		return domain.ErrInvalidInput
	}
	if req.MaxDistanceKm < 0 || req.MaxDistanceKm > 200 {
		return domain.ErrInvalidInput
	}
	if req.MinFillPercentage < 0 || req.MinFillPercentage > 100 {
		return domain.ErrInvalidInput
	}
	return nil
}

func (uc *AllocateUseCase) toResponse(req dto.AllocationSearchRequest, options []*option) *dto.AllocationSearchResponse {
	resp := &dto.AllocationSearchResponse{
		OrderID: req.OrderID,
		Options: make([]dto.AllocationOptionDTO, len(options)),
		Count:   len(options),
	}
	for i, opt := range options {
		ids := make([]string, len(opt.cylinders))
		for j, c := range opt.cylinders {
			ids[j] = c.ID
		}
		resp.Options[i] = dto.AllocationOptionDTO{
			VendorID:              opt.vendorID,
			LocationID:            opt.locationID,
			CylinderIDs:           ids,
			DistanceKm:            opt.distanceKm,
			TotalCapacityLiters:   opt.totalCapacity,
			AverageFillPercentage: opt.averageFill,
			TotalCost:             opt.totalCost,
			Currency:              uc.cfg.Currency,
			DeliveryTimeMinutes:   opt.deliveryMins,
			QualityScore:          opt.quality,
			ReliabilityScore:      opt.reliability,
			CompositeScore:        opt.composite,
		}
	}
	if len(resp.Options) > 0 {
		resp.Recommended = &resp.Options[0]
	}
	return resp
}
