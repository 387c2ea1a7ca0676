package rpl

// DefaultRankIncrement is used by calculate_rank when no parent is
// present to supply an instance-specific MinHopRankIncrease.
const DefaultRankIncrement uint16 = 256

// InfiniteRank is the sentinel rank returned on overflow or when no base
// rank can be established.
const InfiniteRank uint16 = 0xFFFF

// TrickleState is the per-Instance Trickle DIO scheduler state.
type TrickleState struct {
	IntMin     uint8 // dio_intmin
	IntDoubl   uint8 // dio_intdoubl
	IntCurrent uint8 // dio_intcurrent
	Counter    uint16
	Redundancy uint16
	NextDelay  int64 // ticks (nanoseconds), residual delay within an interval
	Send       bool  // dio_send

	// stats, kept when CollectStats is enabled.
	TotalIntervals int
	TotalSent      int
	TotalReceived  int
}

// Instance is one routing instance: the Trickle state plus the current
// DAG and MinHopRankIncrease used by calculate_rank.
type Instance struct {
	ID ID

	MinHopRankIncrease uint16
	CurrentDAG         ID
	DAGs               []ID

	Trickle TrickleState

	// LeafOnly mirrors RPL_LEAF_ONLY. It is not read by the core: the
	// Trickle scheduler's reset suppression is gated on
	// FeatureGates.LeafOnly instead.
	LeafOnly bool

	// Feather mirrors RPL_MODE_FEATHER: DAO scheduling is a no-op.
	Feather bool

	DefaultLifetime uint8
	LifetimeUnit    uint16
}

// NewInstance creates an instance with Trickle parameters seeded at the
// minimum interval, matching rpl_reset_dio_timer's starting point.
func NewInstance(minHopRankIncrease uint16, intMin, intDoubl uint8, redundancy uint16) *Instance {
	return &Instance{
		MinHopRankIncrease: minHopRankIncrease,
		CurrentDAG:         noID,
		Trickle: TrickleState{
			IntMin:     intMin,
			IntDoubl:   intDoubl,
			IntCurrent: intMin,
			Redundancy: redundancy,
			Send:       true,
		},
	}
}

// calculateRank computes a candidate rank from a parent's advertised
// rank plus a hop increment. parent may be nil to request the "no
// parent present" branch.
func calculateRank(parent *Parent, baseRank uint16, instanceMinHopRankIncrease uint16) uint16 {
	base := baseRank
	var increment uint16
	if baseRank == 0 {
		if parent == nil {
			return InfiniteRank
		}
		base = parent.Rank
	}
	if parent != nil {
		increment = instanceMinHopRankIncrease
	} else {
		increment = DefaultRankIncrement
	}
	sum := base + increment
	if sum < base {
		return InfiniteRank
	}
	return sum
}
