// Package guard provides the ConstructorGuard pattern used across the domain
// model to ensure value objects and commands are only created through their
// designated constructor functions.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the guarded object
// was not constructed properly and no specific error was provided.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard detects whether a struct was created through its constructor
// or as a bare zero value. Embedding a guard in a struct and validating it before
// use keeps domain invariants from being bypassed by direct initialization.
//
// The zero value of ConstructorGuard is intentionally invalid; only
// NewConstructorGuard produces a valid guard.
//
// Example:
//
//	type Money struct {
//	    amount int
//	    guard  guard.ConstructorGuard
//	}
//
//	func NewMoney(amount int) (Money, error) {
//	    if amount < 0 {
//	        return Money{}, errors.New("amount cannot be negative")
//	    }
//	    return Money{amount: amount, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (m Money) Validate() error {
//	    return m.guard.Validate(ErrMoneyNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a guard marking the owning object as properly
// constructed. Call it from the object's constructor only.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil if the guarded object was created through its
// constructor. For zero-value objects it returns validationError, or
// ErrDefaultConstructorGuard when validationError is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}

	if validationError == nil {
		return ErrDefaultConstructorGuard
	}

	return validationError
}
