package rpl

import "errors"

// Sentinel errors for the recoverable conditions enumerated by the core's
// error handling design. None of these represent a bug; each is a normal,
// locally-recovered outcome that the caller may choose to log.
var (
	// ErrNoNeighborEntry is returned by the Manager's link callbacks when
	// they name a parent with no backing neighbor-table entry. Best-parent
	// comparison does not return it; it falls back to the preferred parent.
	ErrNoNeighborEntry = errors.New("rpl: parent has no neighbor-table entry")

	// ErrFeatherMode is returned when DAO scheduling is requested while
	// the instance operates in feather (passive, no downward routes) mode.
	ErrFeatherMode = errors.New("rpl: instance is in feather mode")

	// ErrUnknownParent is returned when a lookup by arena ID misses.
	ErrUnknownParent = errors.New("rpl: unknown parent id")

	// ErrUnknownDAG is returned when a lookup by arena ID misses.
	ErrUnknownDAG = errors.New("rpl: unknown dag id")
)
