package rpl

import (
	"fmt"
	"io"
)

// TraceLogger emits the stable, line-oriented "r:<tag>|f1|f2|..."
// records. Offline analysis tooling depends on this exact format, so
// it is never routed through slog: one write per record, no timestamps,
// no key=value structure, matching the reference's printf("r:...") calls
// verbatim in field order.
type TraceLogger struct {
	w io.Writer
}

// NewTraceLogger wraps w. A nil w is valid and makes every method a no-op,
// useful when trace output is disabled.
func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{w: w}
}

func (t *TraceLogger) emit(format string, args ...any) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, format, args...)
}

// TraceLink reproduces the "r:a_cb" / "r:r_cb" TX/RX link-callback trace
// line. rx selects the tag; link_loss_count is -1 when connectivity
// management is disabled (the reference omits the field entirely in that
// build; here the field is always written, holding -1).
func (t *TraceLogger) TraceLink(rx bool, nodeID uint16, preferredCB, nonPreferredCB uint32, rssi int16, linkLossCount int, zone Zone, lifetime uint16, mobility MobilityState, flag uint8) {
	tag := "a_cb"
	if rx {
		tag = "r_cb"
	}
	t.emit("r:%s|%d|%d|%d||%d|%d|%d|%d|%d|%d\n",
		tag, nodeID, preferredCB, nonPreferredCB, rssi, linkLossCount, int(zone), lifetime, int(mobility), flag)
}

// TraceReset reproduces "r:R".
func (t *TraceLogger) TraceReset() {
	t.emit("r:R\n")
}

// TraceLifetimeInit reproduces "r:l|intcurr|threshold|ppflag" (mobility
// detection enabled) on node reset.
func (t *TraceLogger) TraceLifetimeInit(intCurr uint8, linkLossThreshold uint8, ppFlag PPChangeFlag) {
	t.emit("r:l|%d|%d|%d\n", intCurr, linkLossThreshold, int(ppFlag))
}

// TraceTimeoutRecompute reproduces "r:l|last_intcurr|new_intcurr".
func (t *TraceLogger) TraceTimeoutRecompute(lastIntCurr, newIntCurr uint8) {
	t.emit("r:l|%d|%d\n", lastIntCurr, newIntCurr)
}

// TraceMobilityUpdate reproduces "r:u|flag|updated|mobility|avg|metric|current".
func (t *TraceLogger) TraceMobilityUpdate(flag PPChangeFlag, updated bool, mobility MobilityState, average, metric, current uint32) {
	u := 0
	if updated {
		u = 1
	}
	t.emit("r:u|%d|%d|%d|%d|%d|%d\n", int(flag), u, int(mobility), average/100, metric/100, current)
}

// TraceResetLifetime reproduces "r:rs|nodeid|lifetime".
func (t *TraceLogger) TraceResetLifetime(nodeID uint16, lifetime uint16) {
	t.emit("r:rs|%d|%d\n", nodeID, lifetime)
}

// TraceExpireLifetime reproduces "r:ep|nodeid|lifetime".
func (t *TraceLogger) TraceExpireLifetime(nodeID uint16, lifetime uint16) {
	t.emit("r:ep|%d|%d\n", nodeID, lifetime)
}

// TraceLinkLoss reproduces "r:cl|nodeid".
func (t *TraceLogger) TraceLinkLoss(nodeID uint16) {
	t.emit("r:cl|%d\n", nodeID)
}

// TraceTimeout reproduces "r:to|nodeid".
func (t *TraceLogger) TraceTimeout(nodeID uint16) {
	t.emit("r:to|%d\n", nodeID)
}

// TraceProbe reproduces "r:p|probe_num".
func (t *TraceLogger) TraceProbe(probeNum uint32) {
	t.emit("r:p|%d\n", probeNum)
}

// TraceDiscovery reproduces "r:dc|p_or_r|proactive_num|reactive_num".
func (t *TraceLogger) TraceDiscovery(proactive bool, proactiveNum, reactiveNum uint32) {
	kind := "r"
	if proactive {
		kind = "p"
	}
	t.emit("r:dc|%s|%d|%d\n", kind, proactiveNum, reactiveNum)
}

// TraceDIOTimerReset reproduces "r:r_d_t|reset_num".
func (t *TraceLogger) TraceDIOTimerReset(resetNum uint32) {
	t.emit("r:r_d_t|%d\n", resetNum)
}
