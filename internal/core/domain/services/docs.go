// Package services provides domain services that orchestrate business operations
// across multiple domain entities in the dispatch system. It implements complex
// business workflows that don't naturally belong to a single aggregate root.
//
// The package includes:
//   - RouteOptimizer: A domain service sequencing batch pickups and drop-offs
//     into courier routes and incrementally reoptimizing them as conditions change
//
// Domain services coordinate between aggregates, implementing business logic that
// spans multiple bounded contexts following Domain-Driven Design principles.
package services
