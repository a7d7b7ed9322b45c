// Package prep predicts vendor preparation windows for orders.
package prep

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// StaticPreparationEstimator predicts ready windows from a fixed lead time.
// Every order is assumed ready between now+leadTime and now+leadTime+span.
// A real deployment would replace this with a vendor-fed model; the optimizer
// only depends on the window contract.
type StaticPreparationEstimator struct {
	leadTime time.Duration
	span     time.Duration
	now      func() time.Time
}

// NewStaticPreparationEstimator creates an estimator with the given lead time
// and window span. The now function defaults to time.Now when nil.
func NewStaticPreparationEstimator(
	leadTime time.Duration,
	span time.Duration,
	now func() time.Time,
) (*StaticPreparationEstimator, error) {
	if leadTime < 0 {
		return nil, errs.NewValueIsInvalidError("leadTime")
	}
	if span <= 0 {
		return nil, errs.NewValueIsInvalidError("span")
	}
	if now == nil {
		now = time.Now
	}

	return &StaticPreparationEstimator{
		leadTime: leadTime,
		span:     span,
		now:      now,
	}, nil
}

// Predict returns one ready window per order, keyed by order ID.
func (e *StaticPreparationEstimator) Predict(
	ctx context.Context,
	orders []*order.Order,
) (map[kernel.UUID]ports.PreparationWindow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readyFrom := e.now().Add(e.leadTime)
	windows := make(map[kernel.UUID]ports.PreparationWindow, len(orders))
	for _, o := range orders {
		if o == nil {
			return nil, errs.NewValueIsRequiredError("order")
		}
		windows[o.ID()] = ports.PreparationWindow{
			ReadyFrom: readyFrom,
			ReadyTo:   readyFrom.Add(e.span),
		}
	}
	return windows, nil
}
