package allocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aabine/flow-inventory/internal/application/allocation"
	"github.com/aabine/flow-inventory/internal/application/dto"
	"github.com/aabine/flow-inventory/internal/domain"
	domalloc "github.com/aabine/flow-inventory/internal/domain/allocation"
	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/geo"
	"github.com/aabine/flow-inventory/pkg/logger"
)

func newUseCase(
	cyl *fakeCylinderRepo,
	checks *fakeCheckRepo,
	locs *fakeLocationRepo,
	stocks *fakeStockRepo,
	movs *fakeMovementRepo,
) *allocation.AllocateUseCase {
	est := allocation.NewReliabilityEstimator(locs, stocks, movs, checks, time.Second, logger.Nop())
	return allocation.NewAllocateUseCase(cyl, checks, locs, est, allocation.Config{}, logger.Nop())
}

func activeCylinder(id, vendorID, locationID string, fill float64, condition string) *entity.Cylinder {
	return &entity.Cylinder{
		ID:              id,
		SerialNumber:    "SN-" + id,
		VendorID:        vendorID,
		LocationID:      locationID,
		Size:            entity.SizeMedium,
		CapacityLiters:  decimal.NewFromInt(50),
		FillPercentage:  fill,
		Condition:       condition,
		LifecycleState:  entity.StateActive,
		IsAvailable:     true,
		ManufactureDate: time.Now().AddDate(-3, 0, 0),
	}
}

func TestAllocate_Validation(t *testing.T) {
	uc := newUseCase(&fakeCylinderRepo{}, &fakeCheckRepo{}, &fakeLocationRepo{}, &fakeStockRepo{}, &fakeMovementRepo{})

	cases := []struct {
		name string
		req  dto.AllocationSearchRequest
	}{
		{"unknown size", dto.AllocationSearchRequest{Size: "gigantic", Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37}},
		{"zero quantity", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 0, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37}},
		{"quantity over cap", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 101, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37}},
		{"latitude out of range", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 95, DeliveryLongitude: 3.37}},
		{"longitude out of range", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 181}},
		{"max distance over cap", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, MaxDistanceKm: 300}},
		{"negative max distance", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, MaxDistanceKm: -10}},
		{"min fill over 100", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, MinFillPercentage: 120}},
		{"negative min fill", dto.AllocationSearchRequest{Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, MinFillPercentage: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Allocate(context.Background(), tc.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAllocate_EmptyResultIsNotAnError(t *testing.T) {
	uc := newUseCase(&fakeCylinderRepo{}, &fakeCheckRepo{}, &fakeLocationRepo{}, &fakeStockRepo{}, &fakeMovementRepo{})

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 2, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Options)
	assert.Zero(t, resp.Count)
	assert.Nil(t, resp.Recommended)
}

func TestAllocate_EligibilityFilters(t *testing.T) {
	// One good candidate among unavailable, bound, wrong-size, low-fill,
	// poor-condition and non-active units at the same site. The group only
	// has one eligible unit, so a quantity of 1 must surface exactly it.
	loc := &entity.InventoryLocation{ID: "l1", VendorID: "v1", Latitude: 6.52, Longitude: 3.37, IsActive: true}

	eligible := activeCylinder("c-ok", "v1", "l1", 95, entity.ConditionGood)
	unavailable := activeCylinder("c-unavail", "v1", "l1", 95, entity.ConditionGood)
	unavailable.IsAvailable = false
	bound := activeCylinder("c-bound", "v1", "l1", 95, entity.ConditionGood)
	bound.CurrentOrderID = "order-9"
	wrongSize := activeCylinder("c-size", "v1", "l1", 95, entity.ConditionGood)
	wrongSize.Size = entity.SizeLarge
	lowFill := activeCylinder("c-fill", "v1", "l1", 40, entity.ConditionGood)
	poor := activeCylinder("c-poor", "v1", "l1", 95, entity.ConditionPoor)
	maintenance := activeCylinder("c-maint", "v1", "l1", 95, entity.ConditionGood)
	maintenance.LifecycleState = entity.StateMaintenance

	uc := newUseCase(
		&fakeCylinderRepo{cylinders: []*entity.Cylinder{eligible, unavailable, bound, wrongSize, lowFill, poor, maintenance}},
		&fakeCheckRepo{},
		&fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l1": loc}},
		&fakeStockRepo{},
		&fakeMovementRepo{},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, MinFillPercentage: 50,
	})
	require.NoError(t, err)
	require.Len(t, resp.Options, 1)
	assert.Equal(t, []string{"c-ok"}, resp.Options[0].CylinderIDs)
}

func TestAllocate_GroupSmallerThanQuantityDiscarded(t *testing.T) {
	loc := &entity.InventoryLocation{ID: "l1", VendorID: "v1", Latitude: 6.52, Longitude: 3.37, IsActive: true}
	uc := newUseCase(
		&fakeCylinderRepo{cylinders: []*entity.Cylinder{
			activeCylinder("c1", "v1", "l1", 95, entity.ConditionGood),
			activeCylinder("c2", "v1", "l1", 95, entity.ConditionGood),
		}},
		&fakeCheckRepo{},
		&fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l1": loc}},
		&fakeStockRepo{},
		&fakeMovementRepo{},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 3, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Options)
}

func TestAllocate_DistanceBound(t *testing.T) {
	// Roughly 60 km north of the delivery point; outside the default 50 km.
	far := &entity.InventoryLocation{ID: "l-far", VendorID: "v1", Latitude: 7.06, Longitude: 3.37, IsActive: true}
	uc := newUseCase(
		&fakeCylinderRepo{cylinders: []*entity.Cylinder{activeCylinder("c1", "v1", "l-far", 95, entity.ConditionGood)}},
		&fakeCheckRepo{},
		&fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l-far": far}},
		&fakeStockRepo{},
		&fakeMovementRepo{},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Options)

	// Widening the radius brings the site back in.
	resp, err = uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, MaxDistanceKm: 100,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Options, 1)
}

func TestAllocate_UrgentRequiresEmergencyReady(t *testing.T) {
	loc := &entity.InventoryLocation{ID: "l1", VendorID: "v1", Latitude: 6.52, Longitude: 3.37, IsActive: true}
	plain := activeCylinder("c-plain", "v1", "l1", 95, entity.ConditionGood)
	ready := activeCylinder("c-ready", "v1", "l1", 95, entity.ConditionGood)
	ready.EmergencyReady = true

	uc := newUseCase(
		&fakeCylinderRepo{cylinders: []*entity.Cylinder{plain, ready}},
		&fakeCheckRepo{},
		&fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l1": loc}},
		&fakeStockRepo{},
		&fakeMovementRepo{},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, Urgent: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Options, 1)
	assert.Equal(t, []string{"c-ready"}, resp.Options[0].CylinderIDs)
}

func TestAllocate_SelectsHighestFillUnits(t *testing.T) {
	loc := &entity.InventoryLocation{ID: "l1", VendorID: "v1", Latitude: 6.52, Longitude: 3.37, IsActive: true}
	uc := newUseCase(
		&fakeCylinderRepo{cylinders: []*entity.Cylinder{
			activeCylinder("c-60", "v1", "l1", 60, entity.ConditionGood),
			activeCylinder("c-90", "v1", "l1", 90, entity.ConditionGood),
			activeCylinder("c-70", "v1", "l1", 70, entity.ConditionGood),
			activeCylinder("c-85", "v1", "l1", 85, entity.ConditionGood),
		}},
		&fakeCheckRepo{},
		&fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l1": loc}},
		&fakeStockRepo{},
		&fakeMovementRepo{},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 2, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37, MinFillPercentage: 50,
	})
	require.NoError(t, err)
	require.Len(t, resp.Options, 1)
	assert.ElementsMatch(t, []string{"c-90", "c-85"}, resp.Options[0].CylinderIDs)
	assert.InDelta(t, 87.5, resp.Options[0].AverageFillPercentage, 1e-9)
}

// TestAllocate_NearGoodBeatsFarExcellent ranks a nearby vendor with decent
// stock against a distant vendor with pristine stock and verifies the
// composite math end to end by recomputing it from the response inputs.
func TestAllocate_NearGoodBeatsFarExcellent(t *testing.T) {
	const (
		deliveryLat = 6.52
		deliveryLon = 3.37
	)
	// ~5 km and ~40 km due north of the delivery point.
	near := &entity.InventoryLocation{ID: "l-near", VendorID: "v-near", Latitude: 6.564966, Longitude: deliveryLon, IsActive: true}
	far := &entity.InventoryLocation{ID: "l-far", VendorID: "v-far", Latitude: 6.879729, Longitude: deliveryLon, IsActive: true}

	cylinders := []*entity.Cylinder{
		activeCylinder("n1", "v-near", "l-near", 90, entity.ConditionGood),
		activeCylinder("n2", "v-near", "l-near", 85, entity.ConditionGood),
		activeCylinder("n3", "v-near", "l-near", 80, entity.ConditionGood),
		activeCylinder("n4", "v-near", "l-near", 70, entity.ConditionGood),
		activeCylinder("n5", "v-near", "l-near", 60, entity.ConditionGood),
		activeCylinder("f1", "v-far", "l-far", 95, entity.ConditionExcellent),
		activeCylinder("f2", "v-far", "l-far", 95, entity.ConditionExcellent),
		activeCylinder("f3", "v-far", "l-far", 95, entity.ConditionExcellent),
	}

	// Reliability data sources fail for both vendors, so every sub-score
	// degrades to its neutral default and both vendors tie on reliability.
	locs := &fakeLocationRepo{
		byID:    map[string]*entity.InventoryLocation{"l-near": near, "l-far": far},
		listErr: errStore,
	}
	uc := newUseCase(
		&fakeCylinderRepo{cylinders: cylinders},
		&fakeCheckRepo{vendorErr: errStore},
		locs,
		&fakeStockRepo{err: errStore},
		&fakeMovementRepo{err: errStore},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		OrderID:           "order-42",
		Size:              entity.SizeMedium,
		Quantity:          3,
		DeliveryLatitude:  deliveryLat,
		DeliveryLongitude: deliveryLon,
		MinFillPercentage: 50,
	})
	require.NoError(t, err)
	require.Len(t, resp.Options, 2)

	top, second := resp.Options[0], resp.Options[1]
	assert.Equal(t, "v-near", top.VendorID)
	assert.Equal(t, "v-far", second.VendorID)
	require.NotNil(t, resp.Recommended)
	assert.Equal(t, "v-near", resp.Recommended.VendorID)

	// Proximity wins: the three best near units, not the pristine far ones.
	assert.ElementsMatch(t, []string{"n1", "n2", "n3"}, top.CylinderIDs)
	assert.InDelta(t, 85, top.AverageFillPercentage, 1e-9)
	assert.True(t, decimal.NewFromInt(150).Equal(top.TotalCapacityLiters))

	// Recompute each option's metrics from first principles.
	relDefaults := 50 + 30*0.30 + 35*0.25 + 45*0.20 + 55*0.25 // 90.5
	for i, loc := range []*entity.InventoryLocation{near, far} {
		opt := resp.Options[i]
		d := geo.Distance(loc.Latitude, loc.Longitude, deliveryLat, deliveryLon)
		assert.InDelta(t, d, opt.DistanceKm, 1e-9)

		cost := 150*3 + d*8
		assert.InDelta(t, cost, opt.TotalCost.InexactFloat64(), 1e-6)
		assert.Equal(t, "NGN", opt.Currency)

		mins := int(d * 2.5)
		if mins < 60 {
			mins = 60
		}
		assert.Equal(t, mins, opt.DeliveryTimeMinutes)

		assert.InDelta(t, 70, opt.QualityScore, 1e-9) // no checks on record
		assert.InDelta(t, relDefaults, opt.ReliabilityScore, 1e-9)

		want := domalloc.CompositeScore(d, cost, 70, relDefaults, false)
		assert.InDelta(t, want, opt.CompositeScore, 1e-9)
	}
	assert.Greater(t, top.CompositeScore, second.CompositeScore)
}

func TestAllocate_PassesCriteriaToRepository(t *testing.T) {
	repo := &fakeCylinderRepo{}
	uc := newUseCase(repo, &fakeCheckRepo{}, &fakeLocationRepo{}, &fakeStockRepo{}, &fakeMovementRepo{})

	_, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size:               entity.SizeLarge,
		Quantity:           2,
		DeliveryLatitude:   6.52,
		DeliveryLongitude:  3.37,
		Urgent:             true,
		MinFillPercentage:  60,
		PreferredVendorID:  "v9",
		RequiredCheckTypes: []string{entity.CheckPressure, entity.CheckLeak},
	})
	require.NoError(t, err)

	got := repo.lastCriteria
	assert.Equal(t, entity.SizeLarge, got.Size)
	assert.Equal(t, 60.0, got.MinFillPercentage)
	assert.True(t, got.EmergencyReadyOnly)
	assert.Equal(t, "v9", got.PreferredVendorID)
	assert.Equal(t, []string{entity.CheckPressure, entity.CheckLeak}, got.RequiredCheckTypes)
	assert.Equal(t, 90*24*time.Hour, got.CheckWindow)
	assert.Equal(t, 500, got.Limit)
}

func TestAllocate_QualityRequirementsFilterCandidates(t *testing.T) {
	loc := &entity.InventoryLocation{ID: "l1", VendorID: "v1", Latitude: 6.52, Longitude: 3.37, IsActive: true}
	now := time.Now()

	// c-certified carries recent passing checks of both required types.
	// c-partial lacks a passing leak test: the one on record failed.
	// c-stale passed both, but the leak test predates the 90-day window.
	repo := &fakeCylinderRepo{
		cylinders: []*entity.Cylinder{
			activeCylinder("c-certified", "v1", "l1", 95, entity.ConditionGood),
			activeCylinder("c-partial", "v1", "l1", 95, entity.ConditionGood),
			activeCylinder("c-stale", "v1", "l1", 95, entity.ConditionGood),
		},
		checks: []*entity.QualityCheck{
			{CylinderID: "c-certified", CheckType: entity.CheckPressure, CheckDate: now.AddDate(0, 0, -10), Status: entity.CheckPassed},
			{CylinderID: "c-certified", CheckType: entity.CheckLeak, CheckDate: now.AddDate(0, 0, -5), Status: entity.CheckPassed},
			{CylinderID: "c-partial", CheckType: entity.CheckPressure, CheckDate: now.AddDate(0, 0, -10), Status: entity.CheckPassed},
			{CylinderID: "c-partial", CheckType: entity.CheckLeak, CheckDate: now.AddDate(0, 0, -5), Status: entity.CheckFailed},
			{CylinderID: "c-stale", CheckType: entity.CheckPressure, CheckDate: now.AddDate(0, 0, -10), Status: entity.CheckPassed},
			{CylinderID: "c-stale", CheckType: entity.CheckLeak, CheckDate: now.AddDate(0, -4, 0), Status: entity.CheckPassed},
		},
	}
	uc := newUseCase(repo, &fakeCheckRepo{}, &fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l1": loc}}, &fakeStockRepo{}, &fakeMovementRepo{})

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size:               entity.SizeMedium,
		Quantity:           1,
		DeliveryLatitude:   6.52,
		DeliveryLongitude:  3.37,
		RequiredCheckTypes: []string{entity.CheckPressure, entity.CheckLeak},
	})
	require.NoError(t, err)
	require.Len(t, resp.Options, 1)
	assert.Equal(t, []string{"c-certified"}, resp.Options[0].CylinderIDs)
}

func TestAllocate_PreferredVendorRestrictsResults(t *testing.T) {
	l1 := &entity.InventoryLocation{ID: "l1", VendorID: "v1", Latitude: 6.52, Longitude: 3.37, IsActive: true}
	l2 := &entity.InventoryLocation{ID: "l2", VendorID: "v2", Latitude: 6.53, Longitude: 3.38, IsActive: true}
	uc := newUseCase(
		&fakeCylinderRepo{cylinders: []*entity.Cylinder{
			activeCylinder("c1", "v1", "l1", 95, entity.ConditionGood),
			activeCylinder("c2", "v2", "l2", 95, entity.ConditionGood),
		}},
		&fakeCheckRepo{},
		&fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l1": l1, "l2": l2}},
		&fakeStockRepo{},
		&fakeMovementRepo{},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37,
		PreferredVendorID: "v2",
	})
	require.NoError(t, err)
	require.Len(t, resp.Options, 1)
	assert.Equal(t, "v2", resp.Options[0].VendorID)
}

func TestAllocate_QualityScoreFromChecks(t *testing.T) {
	loc := &entity.InventoryLocation{ID: "l1", VendorID: "v1", Latitude: 6.52, Longitude: 3.37, IsActive: true}
	now := time.Now()
	checks := &fakeCheckRepo{checks: []*entity.QualityCheck{
		{ID: "q1", CylinderID: "c1", CheckType: entity.CheckVisual, CheckDate: now.AddDate(0, 0, -5), Status: entity.CheckPassed},
		{ID: "q2", CylinderID: "c1", CheckType: entity.CheckLeak, CheckDate: now.AddDate(0, 0, -4), Status: entity.CheckPassed},
		{ID: "q3", CylinderID: "c2", CheckType: entity.CheckVisual, CheckDate: now.AddDate(0, 0, -3), Status: entity.CheckPassed},
		{ID: "q4", CylinderID: "c2", CheckType: entity.CheckLeak, CheckDate: now.AddDate(0, 0, -2), Status: entity.CheckFailed},
		// Outside the 90-day window; must not count.
		{ID: "q5", CylinderID: "c2", CheckType: entity.CheckLeak, CheckDate: now.AddDate(0, -6, 0), Status: entity.CheckFailed},
	}}
	uc := newUseCase(
		&fakeCylinderRepo{cylinders: []*entity.Cylinder{
			activeCylinder("c1", "v1", "l1", 95, entity.ConditionGood),
			activeCylinder("c2", "v1", "l1", 95, entity.ConditionGood),
		}},
		checks,
		&fakeLocationRepo{byID: map[string]*entity.InventoryLocation{"l1": loc}},
		&fakeStockRepo{},
		&fakeMovementRepo{},
	)

	resp, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 2, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37,
	})
	require.NoError(t, err)
	require.Len(t, resp.Options, 1)
	// c1: 2/2 passed = 100; c2: 1/2 passed = 50; mean 75.
	assert.InDelta(t, 75, resp.Options[0].QualityScore, 1e-9)
}

func TestAllocate_EligibilityQueryFailurePropagates(t *testing.T) {
	uc := newUseCase(&fakeCylinderRepo{findErr: errStore}, &fakeCheckRepo{}, &fakeLocationRepo{}, &fakeStockRepo{}, &fakeMovementRepo{})

	_, err := uc.Allocate(context.Background(), dto.AllocationSearchRequest{
		Size: entity.SizeMedium, Quantity: 1, DeliveryLatitude: 6.52, DeliveryLongitude: 3.37,
	})
	assert.ErrorIs(t, err, errStore)
}
