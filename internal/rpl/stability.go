package rpl

// Stability is the non-mobility-aware objective function variant
// (MOBIRPL_MOBILITY_DETECTION disabled in the reference): identical to
// RHOF except step 3 of best_parent compares Zone instead of the
// mobility-derived flag.
type Stability struct {
	baseOF
}

// NewStability returns the stability objective function variant.
func NewStability() *Stability { return &Stability{} }

// BestParent implements the stability variant's parent-selection
// algorithm: zone replaces the mobility flag as the primary
// discriminator, otherwise identical to RHOF.
//
// This pairwise comparison stays a pure, transitive total order over
// Zone and does not itself refuse a BLACK candidate — that refusal is
// applied once, at the final selection boundary, by SelectPreferred in
// connectivity.go, which is the only caller that can see the full
// candidate set and therefore knows whether a non-BLACK alternative
// exists.
func (of *Stability) BestParent(p1, p2 *Parent, preferred *Parent, instance *Instance, node *Node, t Tunables, connectivityManagement bool) *Parent {
	if p1 == nil || p2 == nil {
		return preferred
	}
	if !p1.HasNeighborEntry() || !p2.HasNeighborEntry() {
		return preferred
	}

	r1 := dagRank(p1.Rank, instance) * uint32(instance.MinHopRankIncrease)
	r2 := dagRank(p2.Rank, instance) * uint32(instance.MinHopRankIncrease)

	if p1.Zone != p2.Zone {
		if p1.Zone < p2.Zone {
			return p1
		}
		return p2
	}

	if r1 != r2 {
		if r1 < r2 {
			return p1
		}
		return p2
	}

	return tieBreak(p1, p2, preferred, t, connectivityManagement)
}
