package rpl

import "fmt"

// MobilityState classifies the local node as static or mobile, derived
// from the preferred-parent-switch EWMA.
type MobilityState uint8

const (
	StaticNode MobilityState = iota
	MobileNode
)

var mobilityNames = [...]string{"STATIC", "MOBILE"}

func (m MobilityState) String() string {
	if int(m) >= len(mobilityNames) {
		return fmt.Sprintf("MobilityState(%d)", uint8(m))
	}
	return mobilityNames[m]
}

// PPChangeFlag tracks why the mobility detector should (or should not)
// treat this tick as a parent-switch event.
type PPChangeFlag uint8

const (
	UnjoinedNode PPChangeFlag = iota
	RootNode
	NoParentSwitch
	ParentSwitch
)

var ppChangeFlagNames = [...]string{"UNJOINED", "ROOT", "NO_SWITCH", "SWITCH"}

func (f PPChangeFlag) String() string {
	if int(f) >= len(ppChangeFlagNames) {
		return fmt.Sprintf("PPChangeFlag(%d)", uint8(f))
	}
	return ppChangeFlagNames[f]
}

// Node holds the node-global scalars the reference keeps as process-wide
// statics, collected here as fields of a single Node context struct. One
// Node exists per running core.
type Node struct {
	IsRoot bool

	Mobility     MobilityState
	PPChangeFlag PPChangeFlag

	// EWMA state, scaled by Tunables.EWMAScale.
	ewmaCurrent uint32
	ewmaAverage uint32
	ewmaMetric  uint32
	ewmaWindow  uint32

	mobilityUpdated bool

	// Connectivity manager timeout-period state.
	TimeoutPeriodIntCurr uint8
	TimeoutPeriodCurrent uint16
	ProbeInterval        uint16

	// Reactive discovery latch.
	firstReactiveDiscovery bool
	nextReactiveDiscovery  uint16
	reactiveDiscoveryNum   uint32

	// Proactive discovery state.
	proactiveDiscoveryRequested bool
	nextProactiveDiscovery      uint16
	proactiveDiscoveryNum       uint32

	probeNum uint32
}

// NewNode creates a Node and resets it to its just-booted state.
func NewNode(isRoot bool, dioIntMin uint8, t Tunables, trace *TraceLogger) *Node {
	n := &Node{IsRoot: isRoot}
	n.Reset(dioIntMin, t, trace)
	return n
}

// Reset reproduces reset_mobirpl: reseed the EWMA, reinitialize the
// connectivity timeout period to its initial value, and reset the
// reactive-discovery latch. Called on node boot and whenever the
// connectivity manager gives up on a barren parent set. Emits the
// "r:l|..." trace line for the reinitialized timeout period.
func (n *Node) Reset(dioIntMin uint8, t Tunables, trace *TraceLogger) {
	if n.IsRoot {
		n.Mobility = StaticNode
		n.PPChangeFlag = RootNode
		return
	}

	n.Mobility = MobileNode
	n.PPChangeFlag = UnjoinedNode
	n.ewmaCurrent = 0
	// (1 << dio_intmin) milliseconds, converted to the same *100 fixed
	// point as the metric, matching reset_mobirpl's seed exactly.
	n.ewmaAverage = (uint32(1) << dioIntMin) / 1000 * t.EWMAScale
	n.ewmaMetric = n.ewmaAverage
	n.ewmaWindow = n.ewmaMetric / t.EWMAScale

	initialIntCurr := dioIntMin + 2 // MOBIRPL_LIFETIME_MINIMUM_INTCURR
	n.TimeoutPeriodIntCurr = initialIntCurr
	timeMs := uint32(1) << initialIntCurr
	n.TimeoutPeriodCurrent = uint16(timeMs / 1000)
	n.ProbeInterval = n.TimeoutPeriodCurrent / uint16(t.LinkLossThreshold+1)

	n.firstReactiveDiscovery = true
	n.nextReactiveDiscovery = 0

	trace.TraceLifetimeInit(n.TimeoutPeriodIntCurr, t.LinkLossThreshold, n.PPChangeFlag)
}
