package allocation_test

import (
	"context"
	"errors"
	"time"

	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
)

var errStore = errors.New("store unavailable")

// fakeCylinderRepo serves eligibility queries from an in-memory slice,
// applying the same filter semantics as the SQL query. The criteria of
// the last query is kept for assertions.
type fakeCylinderRepo struct {
	cylinders []*entity.Cylinder
	checks    []*entity.QualityCheck
	findErr   error

	lastCriteria repository.EligibilityCriteria
}

func (f *fakeCylinderRepo) FindEligible(_ context.Context, criteria repository.EligibilityCriteria) ([]*entity.Cylinder, error) {
	f.lastCriteria = criteria
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*entity.Cylinder
	for _, c := range f.cylinders {
		if c.Size != criteria.Size || !c.IsAvailable || c.CurrentOrderID != "" {
			continue
		}
		if c.LifecycleState != entity.StateActive || !c.Usable() {
			continue
		}
		if c.FillPercentage < criteria.MinFillPercentage {
			continue
		}
		if criteria.EmergencyReadyOnly && !c.EmergencyReady {
			continue
		}
		if criteria.PreferredVendorID != "" && c.VendorID != criteria.PreferredVendorID {
			continue
		}
		if !f.meetsCheckRequirements(c.ID, criteria) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// meetsCheckRequirements mirrors the SQL subquery: every required check
// type needs a passing check inside the window.
func (f *fakeCylinderRepo) meetsCheckRequirements(cylinderID string, criteria repository.EligibilityCriteria) bool {
	if len(criteria.RequiredCheckTypes) == 0 {
		return true
	}
	since := time.Now().Add(-criteria.CheckWindow)
	passed := map[string]bool{}
	for _, qc := range f.checks {
		if qc.CylinderID == cylinderID && qc.Status == entity.CheckPassed && !qc.CheckDate.Before(since) {
			passed[qc.CheckType] = true
		}
	}
	for _, checkType := range criteria.RequiredCheckTypes {
		if !passed[checkType] {
			return false
		}
	}
	return true
}

func (f *fakeCylinderRepo) Create(context.Context, *entity.Cylinder) error { return nil }
func (f *fakeCylinderRepo) GetByID(context.Context, string) (*entity.Cylinder, error) {
	return nil, nil
}
func (f *fakeCylinderRepo) GetBySerial(context.Context, string) (*entity.Cylinder, error) {
	return nil, nil
}
func (f *fakeCylinderRepo) SetInspected(context.Context, string, time.Time) error { return nil }
func (f *fakeCylinderRepo) SetConditionState(context.Context, string, string, string) error {
	return nil
}
func (f *fakeCylinderRepo) ReserveBatch(context.Context, []string, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakeCylinderRepo) ReleaseBatchLock(context.Context, []string, string) ([]*entity.Cylinder, error) {
	return nil, nil
}
func (f *fakeCylinderRepo) ReleaseBatch(context.Context, []string) error { return nil }

type fakeLocationRepo struct {
	byID    map[string]*entity.InventoryLocation
	listErr error
}

func (f *fakeLocationRepo) GetByID(_ context.Context, id string) (*entity.InventoryLocation, error) {
	return f.byID[id], nil
}

func (f *fakeLocationRepo) ListByVendor(_ context.Context, vendorID string) ([]*entity.InventoryLocation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*entity.InventoryLocation
	for _, loc := range f.byID {
		if loc.VendorID == vendorID {
			out = append(out, loc)
		}
	}
	return out, nil
}

type fakeStockRepo struct {
	byVendor map[string][]*entity.CylinderStock
	err      error
}

func (f *fakeStockRepo) ListByVendor(_ context.Context, vendorID string) ([]*entity.CylinderStock, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byVendor[vendorID], nil
}

type fakeMovementRepo struct {
	byVendor map[string][]*entity.StockMovement
	err      error
}

func (f *fakeMovementRepo) ListByVendorSince(_ context.Context, vendorID string, since time.Time) ([]*entity.StockMovement, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.StockMovement
	for _, m := range f.byVendor[vendorID] {
		if !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCheckRepo struct {
	checks      []*entity.QualityCheck
	vendorByCyl map[string]string
	listErr     error
	vendorErr   error
}

func (f *fakeCheckRepo) Create(context.Context, *entity.QualityCheck) error { return nil }

func (f *fakeCheckRepo) ListByCylindersSince(_ context.Context, cylinderIDs []string, since time.Time) ([]*entity.QualityCheck, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := map[string]bool{}
	for _, id := range cylinderIDs {
		want[id] = true
	}
	var out []*entity.QualityCheck
	for _, qc := range f.checks {
		if want[qc.CylinderID] && !qc.CheckDate.Before(since) {
			out = append(out, qc)
		}
	}
	return out, nil
}

func (f *fakeCheckRepo) ListByVendorSince(_ context.Context, vendorID string, since time.Time, limit int) ([]*entity.QualityCheck, error) {
	if f.vendorErr != nil {
		return nil, f.vendorErr
	}
	var out []*entity.QualityCheck
	for _, qc := range f.checks {
		if f.vendorByCyl[qc.CylinderID] == vendorID && !qc.CheckDate.Before(since) {
			out = append(out, qc)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
