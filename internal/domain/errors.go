package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Typed errors below match one of these through errors.Is,
// so callers and the HTTP layer switch on kind without knowing the type.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrNoEligibleVehicles  = errors.New("no eligible vehicles")
	ErrTariffUnavailable   = errors.New("tariff unavailable")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NotFoundError names the kind and id of the record that was looked up.
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFound(kind string, id any) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransitionError reports a leg operation attempted from the wrong state.
type TransitionError struct {
	LegID    string
	Current  LegState
	Required LegState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("leg %s: invalid transition: current state %q, required %q", e.LegID, e.Current, e.Required)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// CapacityError reports cargo exceeding one vehicle dimension.
type CapacityError struct {
	VehicleID int64
	Dimension string // "weight" or "volume"
	Unit      string
	Cargo     decimal.Decimal
	Max       decimal.Decimal
}

// Excess is the amount by which the cargo exceeds the vehicle maximum.
func (e *CapacityError) Excess() decimal.Decimal { return e.Cargo.Sub(e.Max) }

func (e *CapacityError) Error() string {
	return fmt.Sprintf(
		"vehicle %d: cargo %s (%s %s) exceeds maximum (%s %s), excess %s %s",
		e.VehicleID, e.Dimension,
		e.Cargo.StringFixed(2), e.Unit,
		e.Max.StringFixed(2), e.Unit,
		e.Excess().StringFixed(2), e.Unit,
	)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }
