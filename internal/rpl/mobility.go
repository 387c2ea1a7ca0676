package rpl

// DetectMobility runs once per second against the given Node to update
// its mobility classification. It returns true if the EWMA metric was
// recomputed this tick (mirroring mobility_update_flag), which the
// connectivity manager consults in its timeout-recomputation pass. Every
// recompute emits the "r:u|..." trace line via trace.
func DetectMobility(n *Node, t Tunables, trace *TraceLogger) bool {
	n.mobilityUpdated = false
	flag := n.PPChangeFlag

	switch n.PPChangeFlag {
	case UnjoinedNode, RootNode:
		return false
	}

	n.ewmaCurrent++

	if n.PPChangeFlag == ParentSwitch {
		n.ewmaAverage = ewmaUpdate(n.ewmaAverage, n.ewmaCurrent, t)
		n.ewmaMetric = n.ewmaAverage
		n.ewmaWindow = n.ewmaMetric / t.EWMAScale
		n.ewmaCurrent = 0
		n.mobilityUpdated = true
	} else if n.ewmaWindow > 0 {
		n.ewmaWindow--
		if n.ewmaWindow == 0 {
			n.ewmaMetric = ewmaUpdate(n.ewmaAverage, n.ewmaCurrent, t)
			n.ewmaWindow = n.ewmaMetric / t.EWMAScale
			n.mobilityUpdated = true
		}
	}

	if n.ewmaMetric < t.StabilityThreshold {
		n.Mobility = MobileNode
	} else {
		n.Mobility = StaticNode
	}

	if n.mobilityUpdated {
		trace.TraceMobilityUpdate(flag, true, n.Mobility, n.ewmaAverage, n.ewmaMetric, n.ewmaCurrent)
	}

	if n.PPChangeFlag == ParentSwitch {
		n.PPChangeFlag = NoParentSwitch
	}

	return n.mobilityUpdated
}

// ewmaUpdate implements the fixed-point EWMA formula shared by the
// switch-event and idle-decay branches:
//
//	avg' = (avg*alpha + current*scale*(scale-alpha)) / scale
func ewmaUpdate(average, current uint32, t Tunables) uint32 {
	return (average*t.EWMAAlpha + current*t.EWMAScale*(t.EWMAScale-t.EWMAAlpha)) / t.EWMAScale
}

// MobilityUpdated reports whether the most recent DetectMobility call
// recomputed the EWMA metric (mobility_update_flag).
func (n *Node) MobilityUpdated() bool { return n.mobilityUpdated }

// EWMASnapshot exposes the EWMA internals for tests and the status
// surface without exporting the mutable fields directly.
type EWMASnapshot struct {
	Current uint32
	Average uint32
	Metric  uint32
	Window  uint32
}

// EWMA returns the current EWMA state.
func (n *Node) EWMA() EWMASnapshot {
	return EWMASnapshot{
		Current: n.ewmaCurrent,
		Average: n.ewmaAverage,
		Metric:  n.ewmaMetric,
		Window:  n.ewmaWindow,
	}
}

// SetEWMA overrides the EWMA state; used by tests to reproduce an exact
// starting EWMA without driving DetectMobility through it tick by tick.
func (n *Node) SetEWMA(s EWMASnapshot) {
	n.ewmaCurrent = s.Current
	n.ewmaAverage = s.Average
	n.ewmaMetric = s.Metric
	n.ewmaWindow = s.Window
}
