package entity

import "time"

// Quality-check types.
const (
	CheckPressure    = "pressure_test"
	CheckPurity      = "purity_analysis"
	CheckValve       = "valve_inspection"
	CheckVisual      = "visual_inspection"
	CheckLeak        = "leak_test"
	CheckHydrostatic = "hydrostatic_test"
)

// Quality-check outcomes.
const (
	CheckPassed = "passed"
	CheckFailed = "failed"
)

// QualityCheck records one inspection event. Immutable once evaluated.
type QualityCheck struct {
	ID         string
	CylinderID string
	CheckType  string
	CheckDate  time.Time

	MeasuredValue float64
	MinAcceptable float64
	MaxAcceptable float64

	Status           string // passed / failed
	RequiresFollowUp bool
	InspectorID      string
	Notes            string
	CreatedAt        time.Time
}

// SafetyCritical reports whether a failed check of this type must pull the
// cylinder out of circulation.
func (q *QualityCheck) SafetyCritical() bool {
	switch q.CheckType {
	case CheckPressure, CheckValve, CheckLeak, CheckHydrostatic:
		return true
	}
	return false
}
