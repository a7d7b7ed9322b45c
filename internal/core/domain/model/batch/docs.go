// Package batch implements the delivery batch aggregate: a group of orders
// traveling together with a single courier.
//
// The aggregate owns the batch lifecycle state machine
// (Planned -> Active <-> Paused -> Completed, Cancelled from any non-terminal
// state), the accepted OptimizedRoute, and the derived route Progress. Batch
// and route state are mutated exclusively through the aggregate's methods;
// per-order status changes are delegated to the order status state machine
// and never coerced on rejection.
//
// The Registry addresses one live aggregate per batch id, replacing an
// implicit dependency-injection graph with explicit ownership.
package batch
