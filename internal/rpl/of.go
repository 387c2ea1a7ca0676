package rpl

// ObjectiveFunction is the pluggable six-operation record that picks
// parents and ranks. Two variants are provided: RHOF (mobility-aware)
// and Stability.
type ObjectiveFunction interface {
	// Reset is invoked when a DAG is (re)joined. The reference's variant
	// only logs; kept for interface completeness and future hooks.
	Reset(dag *DAG)

	// NeighborLinkCallback processes a MAC TX outcome against a
	// candidate parent.
	NeighborLinkCallback(p *Parent, outcome LinkOutcome, rssi int16, node *Node, t Tunables, connectivityManagement bool)

	// BestParent picks the better of two candidates. Both parents must
	// belong to the same DAG. preferred is the DAG's current preferred
	// parent, used to canonicalize RSSI-hysteresis ties.
	BestParent(p1, p2 *Parent, preferred *Parent, instance *Instance, node *Node, t Tunables, connectivityManagement bool) *Parent

	// BestDAG picks the better of two DAGs — shared by both variants,
	// not overridden, but exposed on the interface to match the
	// reference's per-OF dispatch table.
	BestDAG(d1, d2 *DAG) *DAG

	// CalculateRank derives a candidate rank from a parent — shared by
	// both variants.
	CalculateRank(parent *Parent, baseRank uint16, instance *Instance) uint16

	// UpdateMetricContainer is a no-op in both variants: this port
	// carries no metric container (RPL_DAG_MC_NONE).
	UpdateMetricContainer(instance *Instance)
}

// baseOF implements the operations shared verbatim by both variants
// (Reset, DAG comparison, rank calculation, the metric-container no-op,
// and the link callback), so RHOF and Stability only need to supply
// BestParent.
type baseOF struct{}

func (baseOF) Reset(*DAG) {}

func (baseOF) BestDAG(d1, d2 *DAG) *DAG {
	return bestDAG(d1, d2)
}

func (baseOF) CalculateRank(parent *Parent, baseRank uint16, instance *Instance) uint16 {
	var inc uint16
	if instance != nil {
		inc = instance.MinHopRankIncrease
	}
	return calculateRank(parent, baseRank, inc)
}

func (baseOF) UpdateMetricContainer(instance *Instance) {
	// RPL_DAG_MC_NONE: this port carries no metric container, matching
	// the reference's update_metric_container for both variants.
}

func (baseOF) NeighborLinkCallback(p *Parent, outcome LinkOutcome, rssi int16, node *Node, t Tunables, connectivityManagement bool) {
	if p == nil || !p.HasNeighborEntry() {
		return
	}
	// Preferred-vs-non-preferred callback bookkeeping requires knowing
	// the owning DAG's current preferred parent; the Manager, which has
	// that context, bumps Parent.PreferredCallbacks/NonPreferredCallbacks
	// itself before delegating here (see manager.go's
	// DispatchLinkCallback), matching neighbor_link_callback's counters
	// which read the DAG's preferred_parent field directly in C.
	p.ApplyLinkOutcome(outcome, rssi, t, connectivityManagement, false)
}

// calculateFlag derives the trace-log flag ordinal from the local node's
// and the candidate's mobility classification and zone. Only meaningful
// when mobility detection is enabled; callers in the stability variant
// never call this.
func calculateFlag(p *Parent, node *Node) uint8 {
	const (
		flag1 = 1
		flag2 = 2
		flag3 = 3
		flag4 = 4
	)

	localMobile := node.Mobility == MobileNode
	neighborMobile := p.Mobility == 1
	whiteOrBetter := p.Zone <= ZoneWhite

	if localMobile {
		switch {
		case whiteOrBetter && !neighborMobile:
			return flag1
		case whiteOrBetter && neighborMobile:
			return flag2
		case !whiteOrBetter && !neighborMobile:
			return flag3
		default:
			return flag4
		}
	}

	// static local node: flag depends solely on the neighbor's declared
	// mobility and zone, per the table's STATIC rows.
	if !neighborMobile {
		if whiteOrBetter {
			return flag1
		}
		return flag2
	}
	if whiteOrBetter {
		return flag3
	}
	return flag4
}
