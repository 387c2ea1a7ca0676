package rpl

import "net/netip"

// NodeIDFromAddr extracts the trace-log node identifier from an IPv6
// link-local address, mirroring the reference's
// LOG_NODEID_FROM_IPADDR(addr) macro (the address's last octet).
func NodeIDFromAddr(addr netip.Addr) uint16 {
	if !addr.Is6() {
		return 0
	}
	b := addr.As16()
	return uint16(b[15])
}

// ConnectivityManager runs the per-tick sweep that expires lifetimes,
// blackens parents on excessive link loss, recomputes the timeout
// period, and schedules unicast probes and proactive/reactive multicast
// discovery.
type ConnectivityManager struct {
	Tunables Tunables
	Features FeatureGates
	Trace    *TraceLogger
	Host     Host
	Metrics  MetricsReporter
}

// NewConnectivityManager constructs a manager over the given tunables,
// feature gates, trace sink, host collaborator, and metrics reporter.
func NewConnectivityManager(t Tunables, f FeatureGates, trace *TraceLogger, host Host, metrics MetricsReporter) *ConnectivityManager {
	return &ConnectivityManager{Tunables: t, Features: f, Trace: trace, Host: host, Metrics: metrics}
}

// Tick runs one second's worth of connectivity management over parents,
// which must belong to a single DAG and be iterated in a stable order.
// preferred is that DAG's current preferred parent, or nil.
// instance supplies dio_intmin/dio_intdoubl for the timeout-period
// bounds. It returns the parent that unicast probing targeted this tick,
// or nil if none.
func (cm *ConnectivityManager) Tick(node *Node, parents []*Parent, preferred *Parent, instance *Instance) *Parent {
	if node.IsRoot || !cm.Features.ManageConnectivity {
		return nil
	}

	cm.sweepLinkLoss(parents)
	cm.decayLifetimes(parents)

	if cm.Features.DetectMobility && node.MobilityUpdated() {
		cm.recomputeTimeoutPeriod(node, parents, instance)
	}

	var probed *Parent
	if cm.Features.UnicastProbe {
		probed = cm.probePreferred(node, preferred)
	}

	return probed
}

// sweepLinkLoss is pass 1: parents exceeding the consecutive-loss
// threshold are blackened, their lifetime expired, LINK_METRIC_VALID
// cleared, UPDATED set.
func (cm *ConnectivityManager) sweepLinkLoss(parents []*Parent) {
	for _, p := range parents {
		if p.LinkLossCount >= cm.Tunables.LinkLossThreshold && p.Zone < ZoneBlack {
			cm.Trace.TraceLinkLoss(NodeIDFromAddr(p.Addr))
			from := p.Zone
			p.Zone = ZoneBlack
			cm.Metrics.RecordZoneTransition(from, p.Zone)
			p.Lifetime = 0
			cm.Trace.TraceExpireLifetime(NodeIDFromAddr(p.Addr), p.Lifetime)
			p.Flags &^= FlagLinkMetricValid
			p.Flags |= FlagUpdated
		}
	}
}

// decayLifetimes is pass 2: every parent with a positive lifetime
// decrements; reaching zero blackens it.
func (cm *ConnectivityManager) decayLifetimes(parents []*Parent) {
	for _, p := range parents {
		if p.Lifetime >= 1 {
			p.Lifetime--
			if p.Lifetime == 0 {
				cm.Trace.TraceTimeout(NodeIDFromAddr(p.Addr))
				from := p.Zone
				p.Zone = ZoneBlack
				cm.Metrics.RecordZoneTransition(from, p.Zone)
				p.Flags &^= FlagLinkMetricValid
				p.Flags |= FlagUpdated
			}
		}
	}
}

// recomputeTimeoutPeriod is pass 3, gated on the mobility detector having
// just recomputed its metric this tick.
func (cm *ConnectivityManager) recomputeTimeoutPeriod(node *Node, parents []*Parent, instance *Instance) {
	lastIntCurr := node.TimeoutPeriodIntCurr

	minIntCurr := instance.Trickle.IntMin + 2
	maxIntCurr := instance.Trickle.IntMin + instance.Trickle.IntDoubl

	if node.Mobility == MobileNode {
		node.TimeoutPeriodIntCurr = minIntCurr
	} else if node.TimeoutPeriodIntCurr < maxIntCurr {
		node.TimeoutPeriodIntCurr++
	}

	timeMs := uint32(1) << node.TimeoutPeriodIntCurr
	node.TimeoutPeriodCurrent = uint16(timeMs / 1000)
	node.ProbeInterval = node.TimeoutPeriodCurrent / uint16(cm.Tunables.LinkLossThreshold+1)

	cm.Trace.TraceTimeoutRecompute(lastIntCurr, node.TimeoutPeriodIntCurr)

	cm.rescaleLifetimes(parents, lastIntCurr, node.TimeoutPeriodIntCurr, node.TimeoutPeriodCurrent)
}

// rescaleLifetimes proportionally rescales lifetimes when the timeout
// interval changes: shrinking it by d bits divides (and adds 1 to keep
// nonzero lifetimes alive); growing it by d bits multiplies, capped at
// the new timeout period.
func (cm *ConnectivityManager) rescaleLifetimes(parents []*Parent, lastIntCurr, newIntCurr uint8, timeoutPeriodCurrent uint16) {
	switch {
	case lastIntCurr > newIntCurr:
		d := lastIntCurr - newIntCurr
		for _, p := range parents {
			if p.Lifetime == 0 {
				continue
			}
			p.Lifetime = (p.Lifetime >> d) + 1
		}
	case lastIntCurr < newIntCurr:
		d := newIntCurr - lastIntCurr
		for _, p := range parents {
			if p.Lifetime == 0 {
				continue
			}
			scaled := p.Lifetime << d
			if scaled > timeoutPeriodCurrent {
				scaled = timeoutPeriodCurrent
			}
			p.Lifetime = scaled
		}
	}
}

// probePreferred is pass 4: emit a unicast DIS to the preferred parent
// when its lifetime sits in (0, timeout_period_current) and the elapsed
// fraction lands exactly on a probe-interval boundary.
func (cm *ConnectivityManager) probePreferred(node *Node, preferred *Parent) *Parent {
	if preferred == nil || node.ProbeInterval == 0 {
		return nil
	}
	if node.TimeoutPeriodCurrent > preferred.Lifetime &&
		preferred.Lifetime > 0 &&
		(node.TimeoutPeriodCurrent-preferred.Lifetime)%node.ProbeInterval == 0 {
		node.probeNum++
		cm.Trace.TraceProbe(node.probeNum)
		cm.Metrics.IncProbes()
		cm.Host.DISOutput(preferred.Addr, false)
		return preferred
	}
	return nil
}

// ResetLifetime sets p's lifetime to the node's current timeout period,
// matching mobirpl_reset_lifetime — called when a parent is (re)selected
// as preferred or otherwise judged alive again.
func (cm *ConnectivityManager) ResetLifetime(node *Node, p *Parent) {
	p.Lifetime = node.TimeoutPeriodCurrent
	cm.Trace.TraceResetLifetime(NodeIDFromAddr(p.Addr), p.Lifetime)
}

// ExpireLifetime zeroes p's lifetime, matching mobirpl_expire_lifetime.
func (cm *ConnectivityManager) ExpireLifetime(p *Parent) {
	p.Lifetime = 0
	cm.Trace.TraceExpireLifetime(NodeIDFromAddr(p.Addr), p.Lifetime)
}

// NonBlackParentCount implements mobirpl_non_black_parent_num.
func NonBlackParentCount(parents []*Parent) int {
	n := 0
	for _, p := range parents {
		if p.Zone != ZoneBlack {
			n++
		}
	}
	return n
}

// RequestProactiveDiscovery flags that the next periodic tick should
// emit a proactive multicast DIS, matching
// mobirpl_set_proactive_discovery_flag(1). Callable by the objective
// function or routing engine on rank recomputation (SPEC_FULL.md §9).
func (cm *ConnectivityManager) RequestProactiveDiscovery(node *Node) {
	if cm.Features.ProactiveDiscover {
		node.proactiveDiscoveryRequested = true
	}
}

// ProactiveDiscovery implements mobirpl_proactive_discovery: a
// multicast DIS emitted once the countdown reaches zero and a request is
// pending, then rearmed to the current probe interval.
func (cm *ConnectivityManager) ProactiveDiscovery(node *Node) {
	if node.IsRoot || !cm.Features.ProactiveDiscover {
		return
	}
	if node.nextProactiveDiscovery > 0 {
		node.nextProactiveDiscovery--
		node.proactiveDiscoveryRequested = false
		return
	}
	if node.proactiveDiscoveryRequested {
		node.proactiveDiscoveryNum++
		cm.Trace.TraceDiscovery(true, node.proactiveDiscoveryNum, node.reactiveDiscoveryNum)
		cm.Host.DISOutput(netip.Addr{}, true)
		node.nextProactiveDiscovery = node.ProbeInterval
		node.proactiveDiscoveryRequested = false
	}
}

// ReactiveDiscovery implements the reactive/periodic-discovery block of
// handle_periodic_timer: while no non-BLACK parent exists, count up
// toward probe_interval or Tunables.DISInterval (RPL_DIS_INTERVAL) and then
// reset all connectivity state via Node.Reset before soliciting again.
// dioIntMin is forwarded to Node.Reset for the EWMA reseed.
func (cm *ConnectivityManager) ReactiveDiscovery(node *Node, parents []*Parent, dioIntMin uint8) {
	if node.IsRoot {
		return
	}

	if NonBlackParentCount(parents) == 0 {
		if node.firstReactiveDiscovery {
			node.reactiveDiscoveryNum++
			cm.Trace.TraceDiscovery(false, node.proactiveDiscoveryNum, node.reactiveDiscoveryNum)
			cm.Host.DISOutput(netip.Addr{}, false)
			node.firstReactiveDiscovery = false
			node.nextReactiveDiscovery = 0
			return
		}
		node.nextReactiveDiscovery++

		if node.nextReactiveDiscovery >= node.ProbeInterval || node.nextReactiveDiscovery >= cm.Tunables.DISInterval {
			cm.Trace.TraceReset()
			node.Reset(dioIntMin, cm.Tunables, cm.Trace)
			node.nextReactiveDiscovery = 0

			node.reactiveDiscoveryNum++
			cm.Trace.TraceDiscovery(false, node.proactiveDiscoveryNum, node.reactiveDiscoveryNum)
			cm.Host.DISOutput(netip.Addr{}, false)
		}
	} else {
		node.firstReactiveDiscovery = true
		node.nextReactiveDiscovery = 0
	}
}

// SelectPreferred scans candidates (all belonging to the same DAG) and
// returns the best one using of, refusing to let a BLACK parent win over
// a non-BLACK alternative (DESIGN.md Open Question decision 1). It
// returns nil if candidates is empty.
func SelectPreferred(of ObjectiveFunction, candidates []*Parent, preferred *Parent, instance *Instance, node *Node, t Tunables, connectivityManagement bool) *Parent {
	nonBlack := make([]*Parent, 0, len(candidates))
	for _, p := range candidates {
		if p.Zone != ZoneBlack {
			nonBlack = append(nonBlack, p)
		}
	}
	pool := candidates
	if len(nonBlack) > 0 {
		pool = nonBlack
	}
	if len(pool) == 0 {
		return nil
	}

	best := pool[0]
	for _, p := range pool[1:] {
		best = of.BestParent(best, p, preferred, instance, node, t, connectivityManagement)
	}
	return best
}
