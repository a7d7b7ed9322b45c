// Package route holds the value objects of route optimization: waypoints,
// criteria vectors, the immutable OptimizedRoute result, derived Progress
// state, and the in-process Event evidence fed into reoptimization decisions.
//
// Everything here is constructed through validating factory functions; the
// route invariants (contiguous unique sequences, pickup-before-dropoff
// precedence, score within [0,1]) are enforced at construction so that no
// invalid route value can circulate in the system.
package route
