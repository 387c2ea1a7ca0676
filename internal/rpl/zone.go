package rpl

import "fmt"

// Zone classifies the link quality of a candidate parent. Ordered
// WHITE < GRAY < BLACK; BLACK is entered only by the connectivity
// manager (link-loss threshold or lifetime expiry), never by RSSI alone.
type Zone uint8

const (
	ZoneWhite Zone = iota
	ZoneGray
	ZoneBlack
)

var zoneNames = [...]string{"WHITE", "GRAY", "BLACK"}

func (z Zone) String() string {
	if int(z) >= len(zoneNames) {
		return fmt.Sprintf("Zone(%d)", uint8(z))
	}
	return zoneNames[z]
}

// Tunables bundles the tunable-constant table. Every field has a
// runtime-configurable default matching the reference implementation's
// compile-time constants, resolved in internal/config.
type Tunables struct {
	// RSSILowThreshold is the white/gray RSSI boundary in dBm.
	RSSILowThreshold int16
	// RSSIDifferenceHysteresis is the hysteresis band in dB.
	RSSIDifferenceHysteresis int16
	// LinkLossThreshold is the number of consecutive NOACKs before a
	// parent is blackened.
	LinkLossThreshold uint8
	// EWMAScale and EWMAAlpha are the mobility detector's fixed-point
	// base and weight (MOBIRPL_SCALE / MOBIRPL_ALPHA).
	EWMAScale uint32
	EWMAAlpha uint32
	// StabilityThreshold is the EWMA metric boundary below which the
	// node classifies itself as mobile.
	StabilityThreshold uint32
	// MinHopRankIncrease is RFC 6550's MinHopRankIncrease, carried here
	// from the configuration. Rank calculation and best-parent comparison
	// read Instance.MinHopRankIncrease instead; this field is not read by
	// the core.
	MinHopRankIncrease uint16
	// ProbingDenominator is the configured probe-interval divisor
	// (LINK_LOSS_THRESHOLD + 1 in the reference). It is not consulted:
	// Node.Reset and the connectivity manager always compute the probe
	// interval as timeout_period_current / (LinkLossThreshold + 1).
	ProbingDenominator uint16
	// DISInterval upper-bounds the reactive discovery barren-state
	// countdown alongside ProbeInterval.
	DISInterval uint16
}

// DefaultTunables returns the reference implementation's constant
// defaults.
func DefaultTunables() Tunables {
	return Tunables{
		RSSILowThreshold:         -83,
		RSSIDifferenceHysteresis: 4,
		LinkLossThreshold:        2,
		EWMAScale:                100,
		EWMAAlpha:                70,
		StabilityThreshold:       60 * 2 * 100,
		MinHopRankIncrease:       DefaultRankIncrement,
		ProbingDenominator:       3, // LinkLossThreshold + 1
		DISInterval:              20,
	}
}

// RSSISentinel is the initial RSSI value assigned to a freshly created
// parent record before any measurement has arrived.
const RSSISentinel int16 = -100

// NoACKRSSI is the value supplied by the MAC layer when a transmission
// outcome is NOACK and no RSSI measurement is available; the zone
// classifier never sees this value since classifyZone is only invoked
// with the reused prior RSSI on NOACK (see parent.go ApplyLinkOutcome).
const NoACKRSSI int16 = -100

// classifyZone implements the RSSI hysteresis transition between WHITE
// and GRAY. BLACK is never produced here; only the connectivity manager
// blackens a parent. A BLACK current zone is treated like GRAY (raised
// threshold), so the next link callback on a blackened parent moves it
// back to WHITE or GRAY.
func classifyZone(current Zone, rssi int16, t Tunables) Zone {
	threshold := t.RSSILowThreshold
	if current >= ZoneGray {
		threshold += t.RSSIDifferenceHysteresis
	}
	if rssi >= threshold {
		return ZoneWhite
	}
	return ZoneGray
}
