package route

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// ErrProgressIsNotConstructed is returned when using a zero-value Progress.
var ErrProgressIsNotConstructed = errors.New("Progress must be created via NewProgress constructor")

// Progress tracks how far a courier has advanced through a route.
// It is derived state, owned by the batch aggregate and updated only by
// waypoint-completion events.
//
// Completion events are applied strictly in the order received; an event for a
// sequence at or below the last recorded one is a no-op, which makes progress
// idempotent under duplicate or out-of-order delivery. The percentage is
// always 100 * completed / total, clamped to [0,100], and therefore
// monotonically non-decreasing.
type Progress struct {
	routeID                 kernel.UUID
	totalWaypoints          int
	currentWaypointSequence int
	completedWaypointIDs    map[kernel.UUID]bool
	lastUpdated             time.Time
	isConstructed           bool
}

// NewProgress creates progress tracking for a route, positioned before the
// first waypoint (current sequence 1, nothing completed).
func NewProgress(routeID kernel.UUID, totalWaypoints int) (*Progress, error) {
	if err := routeID.Validate(); err != nil {
		return nil, err
	}

	return &Progress{
		routeID:                 routeID,
		totalWaypoints:          totalWaypoints,
		currentWaypointSequence: 1,
		completedWaypointIDs:    make(map[kernel.UUID]bool),
		isConstructed:           true,
	}, nil
}

// Validate ensures the Progress was created via NewProgress.
func (p *Progress) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrProgressIsNotConstructed
	}
	return nil
}

// RouteID returns the identifier of the tracked route.
func (p *Progress) RouteID() kernel.UUID {
	return p.routeID
}

// CurrentWaypointSequence returns the sequence number the courier is
// currently headed to.
func (p *Progress) CurrentWaypointSequence() int {
	return p.currentWaypointSequence
}

// CompletedWaypointIDs returns the set of completed waypoint ids.
func (p *Progress) CompletedWaypointIDs() map[kernel.UUID]bool {
	completed := make(map[kernel.UUID]bool, len(p.completedWaypointIDs))
	for id := range p.completedWaypointIDs {
		completed[id] = true
	}
	return completed
}

// IsCompleted reports whether the given waypoint has been completed.
func (p *Progress) IsCompleted(waypointID kernel.UUID) bool {
	return p.completedWaypointIDs[waypointID]
}

// Percentage returns the completion percentage, clamped to [0,100].
func (p *Progress) Percentage() float64 {
	if p.totalWaypoints == 0 {
		return 0
	}

	pct := 100 * float64(len(p.completedWaypointIDs)) / float64(p.totalWaypoints)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// LastUpdated returns when the last completion event was applied.
func (p *Progress) LastUpdated() time.Time {
	return p.lastUpdated
}

// MarkCompleted applies a waypoint-completion event. Events for sequences
// below the currently recorded one, or for already-completed waypoints, are
// no-ops. Returns true if the event changed the progress state.
func (p *Progress) MarkCompleted(waypointID kernel.UUID, sequence int, at time.Time) bool {
	if p.completedWaypointIDs[waypointID] {
		return false
	}
	if sequence < p.currentWaypointSequence {
		return false
	}

	p.completedWaypointIDs[waypointID] = true
	p.currentWaypointSequence = sequence + 1
	p.lastUpdated = at
	return true
}

// RebaseTotal adjusts the total waypoint count after a reoptimization changed
// the route's size (mid-batch order add/remove). Completed waypoints are kept.
func (p *Progress) RebaseTotal(totalWaypoints int) {
	if totalWaypoints >= 0 {
		p.totalWaypoints = totalWaypoints
	}
}
