package fixture

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrConfiguration           = errors.New("invalid format configuration")
	ErrCapacity                = errors.New("insufficient capacity")
	ErrConstraintUnsatisfiable = errors.New("constraint unsatisfiable")
)

// ValidationError reports malformed input: a bad window or team list.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConfigurationError reports a format-specific minimum that was not met.
type ConfigurationError struct {
	Format string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Format, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// CapacityError reports that the window cannot hold the required matches.
type CapacityError struct {
	Required     int
	Available    int
	SlotCapacity int
	PairingLimit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%d matches required but the window holds at most %d (slots %d, rest-day pairing limit %d)",
		e.Required, e.Available, e.SlotCapacity, e.PairingLimit)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// UnplaceableMatchError names the match that found no date, slot and venue.
type UnplaceableMatchError struct {
	Match     Match
	Required  int
	Capacity  int
	Scheduled int
}

func (e *UnplaceableMatchError) Error() string {
	return fmt.Sprintf("could not place %s: %d of %d matches placed, capacity %d",
		e.Match, e.Scheduled, e.Required, e.Capacity)
}

func (e *UnplaceableMatchError) Unwrap() error { return ErrConstraintUnsatisfiable }
