package route

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// criteriaSumTolerance is the allowed deviation of the weight sum from 1.0.
const criteriaSumTolerance = 1e-6

// ErrInvalidCriteria is the sentinel error for criteria whose weights are
// negative or do not sum to 1.0.
var ErrInvalidCriteria = errors.New("optimization criteria are invalid")

// ErrCriteriaIsNotConstructed is returned when using a zero-value Criteria.
var ErrCriteriaIsNotConstructed = errs.NewValueIsRequiredError(
	"criteria must be created via NewCriteria constructor")

// Criteria is the weighted criteria vector steering route optimization.
// The four weights cover travel distance, vendor preparation wait, traffic
// delay, and delivery-window lateness risk. All weights are non-negative and
// must sum to 1.0 within a small tolerance, which makes them directly
// comparable after per-component normalization.
//
// Criteria is an immutable value object; invalid criteria are rejected at
// construction, before any optimizer sees them.
type Criteria struct {
	distanceWeight    float64
	preparationWeight float64
	trafficWeight     float64
	windowWeight      float64
	guard             guard.ConstructorGuard
}

// NewCriteria creates a validated criteria vector.
// Each weight must be non-negative and the four must sum to 1.0 (±1e-6).
func NewCriteria(distanceWeight, preparationWeight, trafficWeight, windowWeight float64) (Criteria, error) {
	weights := map[string]float64{
		"distance weight":        distanceWeight,
		"preparation weight":     preparationWeight,
		"traffic weight":         trafficWeight,
		"delivery window weight": windowWeight,
	}
	for name, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return Criteria{}, fmt.Errorf("%w: %s is %f, must be non-negative", ErrInvalidCriteria, name, w)
		}
	}

	sum := distanceWeight + preparationWeight + trafficWeight + windowWeight
	if math.Abs(sum-1.0) > criteriaSumTolerance {
		return Criteria{}, fmt.Errorf("%w: weights sum to %f, must sum to 1.0", ErrInvalidCriteria, sum)
	}

	return Criteria{
		distanceWeight:    distanceWeight,
		preparationWeight: preparationWeight,
		trafficWeight:     trafficWeight,
		windowWeight:      windowWeight,
		guard:             guard.NewConstructorGuard(),
	}, nil
}

// DefaultCriteria returns a balanced criteria vector favoring distance.
func DefaultCriteria() Criteria {
	criteria, err := NewCriteria(0.4, 0.2, 0.2, 0.2)
	if err != nil {
		// The constants above always satisfy the constraints.
		panic(err)
	}
	return criteria
}

// Validate checks if the Criteria was properly constructed via NewCriteria.
func (c Criteria) Validate() error {
	return c.guard.Validate(ErrCriteriaIsNotConstructed)
}

// DistanceWeight returns the weight applied to normalized travel distance.
func (c Criteria) DistanceWeight() float64 {
	return c.distanceWeight
}

// PreparationWeight returns the weight applied to normalized vendor wait time.
func (c Criteria) PreparationWeight() float64 {
	return c.preparationWeight
}

// TrafficWeight returns the weight applied to normalized traffic delay.
func (c Criteria) TrafficWeight() float64 {
	return c.trafficWeight
}

// WindowWeight returns the weight applied to normalized lateness risk.
func (c Criteria) WindowWeight() float64 {
	return c.windowWeight
}
