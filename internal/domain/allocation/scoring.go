package allocation

import (
	"time"

	"github.com/aabine/flow-inventory/internal/domain/entity"
)

// Ranking weights for the composite option score.
const (
	WeightDistance    = 0.4
	WeightCost        = 0.3
	WeightQuality     = 0.2
	WeightReliability = 0.1
)

// urgentMultiplier applies to the composite score of every option when
// the request is urgent.
const urgentMultiplier = 1.1

// conditionPoints is the per-unit condition contribution (max 25).
var conditionPoints = map[string]float64{
	entity.ConditionExcellent: 25,
	entity.ConditionGood:      20,
	entity.ConditionFair:      10,
	entity.ConditionPoor:      5,
	entity.ConditionDamaged:   0,
	entity.ConditionUnsafe:    0,
}

// CylinderScore ranks a single cylinder for selection within one location.
// Higher is better. Deterministic: same inputs, same score.
//
//	fill        0-30  (fill percentage x 0.3)
//	condition   0-25
//	age         0-20  (20 minus 2 per year since manufacture, floored at 0)
//	maintenance 0-15  (15 minus days since last inspection / 30; 0 if never)
//	emergency   +10   (urgent request and emergency-ready unit)
func CylinderScore(c *entity.Cylinder, now time.Time, urgent bool) float64 {
	score := c.FillPercentage * 0.3

	score += conditionPoints[c.Condition]

	years := now.Sub(c.ManufactureDate).Hours() / 24 / 365
	if age := 20 - years*2; age > 0 {
		score += age
	}

	if c.LastInspectionDate != nil {
		days := now.Sub(*c.LastInspectionDate).Hours() / 24
		if maint := 15 - days/30; maint > 0 {
			score += maint
		}
	}

	if urgent && c.EmergencyReady {
		score += 10
	}
	return score
}

// DistanceScore normalizes distance to 0-100 (closer is better).
func DistanceScore(distanceKm float64) float64 {
	return clamp0(100 - distanceKm*2)
}

// CostScore normalizes total cost to 0-100 (cheaper is better).
func CostScore(totalCost float64) float64 {
	return clamp0(100 - totalCost/10)
}

// CompositeScore combines the four normalized criteria into the final
// ranking value for one option. Quality and reliability are already 0-100.
func CompositeScore(distanceKm, totalCost, quality, reliability float64, urgent bool) float64 {
	score := DistanceScore(distanceKm)*WeightDistance +
		CostScore(totalCost)*WeightCost +
		quality*WeightQuality +
		reliability*WeightReliability
	if urgent {
		score *= urgentMultiplier
	}
	return score
}

func clamp0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Clamp bounds a sub-score to the [0,100] range before weighting.
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
