package transfer

import (
	"fmt"

	"chemcpu/labware"
)

// ConstructionError reports a missing or malformed field of a task spec.
type ConstructionError struct {
	Field  string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("transfer: invalid task field %s: %s", e.Field, e.Reason)
}

// CapacityKind tells which side of a transfer ran out of room.
type CapacityKind int

const (
	// Depletion: the source would drop below its dead volume.
	Depletion CapacityKind = iota
	// Overflow: the destination would exceed its maximum volume.
	Overflow
)

func (k CapacityKind) String() string {
	if k == Overflow {
		return "overflow"
	}
	return "depletion"
}

// CapacityError is raised when a transfer would break a container's volume
// bounds. Index is the position of the offending triple within its task.
type CapacityError struct {
	Kind      CapacityKind
	Container string
	Position  labware.Position
	Label     string
	Available float64
	Requested float64
	Index     int
}

func (e *CapacityError) Error() string {
	side := "source"
	if e.Kind == Overflow {
		side = "destination"
	}
	return fmt.Sprintf("transfer: %s %s, position %s: %s (%g nL available, %g nL requested, transfer %d)",
		side, e.Container, e.Label, e.Kind, e.Available, e.Requested, e.Index)
}
