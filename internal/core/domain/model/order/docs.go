// Package order implements the order aggregate and its driver-facing status
// state machine.
//
// The state machine is an explicit adjacency table over the canonical status
// vocabulary. Transition validation is pure and side-effect-free: it is
// consulted before every status write in the surrounding system and never
// bypassed. Legacy status vocabulary from older callers is mapped onto the
// canonical set by NormalizeStatus, which deliberately degrades unrecognized
// values to a safe mid-pipeline state instead of failing closed.
package order
