package rpl

import "net/netip"

// Flags is the per-parent bitset.
type Flags uint8

const (
	// FlagLinkMetricValid mirrors RPL_PARENT_FLAG_LINK_METRIC_VALID.
	FlagLinkMetricValid Flags = 1 << iota
	// FlagUpdated mirrors RPL_PARENT_FLAG_UPDATED.
	FlagUpdated
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// LinkOutcome is the MAC transmission outcome delivered by
// neighbor_link_callback.
type LinkOutcome uint8

const (
	LinkOK LinkOutcome = iota
	LinkNOACK
)

// Parent is one candidate upstream neighbor. It holds no pointer to its
// owning DAG or Instance; those relationships are arena IDs (arena.go).
type Parent struct {
	ID   ID
	DAG  ID
	Addr netip.Addr

	Rank  uint16
	RSSI  int16
	Zone  Zone
	Flags Flags

	LinkLossCount uint8
	Lifetime      uint16
	Mobility      uint8 // neighbor's self-declared mobility, 0 or 1

	LastTxTime int64 // monotonic nanoseconds

	// callback counters, kept for parity with the reference's trace
	// lines and for tests; not consulted by selection logic.
	PreferredCallbacks    uint32
	NonPreferredCallbacks uint32

	hasNeighborEntry bool
}

// NewParent creates a parent record in its just-discovered state: zone
// WHITE, RSSI sentinel, no lifetime, no flags. The reference discovers
// parents on first DIO reception; callers are expected to call this from
// that collaborator and then register the result with a DAG/Manager.
func NewParent(addr netip.Addr, dag ID) *Parent {
	return &Parent{
		DAG:              dag,
		Addr:             addr,
		RSSI:             RSSISentinel,
		Zone:             ZoneWhite,
		hasNeighborEntry: true,
	}
}

// SetNeighborEntry controls whether this parent currently has a backing
// neighbor-table entry. Both link callbacks and best_parent comparisons
// treat a parent without one as absent.
func (p *Parent) SetNeighborEntry(present bool) { p.hasNeighborEntry = present }

// HasNeighborEntry reports the neighbor-table presence flag.
func (p *Parent) HasNeighborEntry() bool { return p.hasNeighborEntry }

// ApplyLinkOutcome implements the shared link-quality update common to
// both neighbor_link_callback (MAC TX outcomes) and the unicast-reception
// callback: RSSI reuse on NOACK, zone hysteresis, LINK_METRIC_VALID, and
// the connectivity-management-gated link-loss counter. rxPath selects
// the reception variant, which always clears the loss counter regardless
// of outcome and never increments it.
func (p *Parent) ApplyLinkOutcome(outcome LinkOutcome, rssi int16, t Tunables, connectivityManagement bool, rxPath bool) {
	if !p.hasNeighborEntry {
		return
	}

	if outcome == LinkNOACK && !rxPath {
		// RSSI reuse on NOACK — measurement unavailable.
	} else {
		p.RSSI = rssi
	}

	p.Zone = classifyZone(p.Zone, p.RSSI, t)
	p.Flags |= FlagLinkMetricValid

	if !connectivityManagement {
		return
	}
	if rxPath {
		p.LinkLossCount = 0
		return
	}
	if outcome == LinkOK {
		p.LinkLossCount = 0
	} else {
		p.LinkLossCount++
	}
}

// LinkMetricPolicy selects how the flattened link metric reported to the
// neighbor table is derived. The reference always uses FlattenedMetric;
// NegativeRSSI reproduces the reference's commented-out alternative,
// exposed here as a runtime policy choice rather than hard-coded.
type LinkMetricPolicy uint8

const (
	FlattenedMetric LinkMetricPolicy = iota
	NegativeRSSIMetric
)

// LinkMetric returns the value that should be written to the neighbor
// table's link-metric field for p under the given policy.
func (p *Parent) LinkMetric(policy LinkMetricPolicy, minHopRankIncrease uint16) int32 {
	switch policy {
	case NegativeRSSIMetric:
		return int32(-p.RSSI)
	default:
		return int32(minHopRankIncrease)
	}
}
