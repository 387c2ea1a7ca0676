package rpl

import (
	"net/netip"
	"sync"
	"time"
)

// ManagerOption configures a Manager at construction time, mirroring the
// teacher's functional-options convention.
type ManagerOption func(*Manager)

// WithObjectiveFunction overrides the default RHOF objective function.
func WithObjectiveFunction(of ObjectiveFunction) ManagerOption {
	return func(m *Manager) { m.of = of }
}

// WithTunables overrides the default tunable constants.
func WithTunables(t Tunables) ManagerOption {
	return func(m *Manager) { m.tunables = t }
}

// WithFeatures overrides the default feature gates.
func WithFeatures(f FeatureGates) ManagerOption {
	return func(m *Manager) { m.features = f }
}

// WithClock overrides the default system clock.
func WithClock(c Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

// WithTrace overrides the default (no-op) trace logger.
func WithTrace(t *TraceLogger) ManagerOption {
	return func(m *Manager) { m.trace = t }
}

// WithRand overrides the default math/rand-backed jitter source.
func WithRand(f func() float64) ManagerOption {
	return func(m *Manager) { m.rand = f }
}

// WithMetrics overrides the default (no-op) metrics reporter.
func WithMetrics(mr MetricsReporter) ManagerOption {
	return func(m *Manager) { m.metrics = mr }
}

// Manager owns one node's routing-core state: the Node context, a single
// Instance, its DAGs, and the arena-indexed parent table, plus the
// mobility detector, connectivity manager, Trickle scheduler and DAO
// scheduler bound to them. All mutation is expected to occur on the
// single goroutine that calls Run; the RWMutex exists only so a
// status-reporting HTTP handler on another goroutine can take a
// consistent snapshot without racing the run loop's writes.
type Manager struct {
	mu sync.RWMutex

	isRoot   bool
	tunables Tunables
	features FeatureGates
	clock    Clock
	rand     func() float64

	node     *Node
	instance *Instance
	dags     *arena[*DAG]
	parents  *arena[*Parent]

	of      ObjectiveFunction
	cm      *ConnectivityManager
	dio     *TrickleScheduler
	daoS    *DAOScheduler
	host    Host
	trace   *TraceLogger
	metrics MetricsReporter

	periodicTimer Timer
}

// NewManager constructs a Manager for one node, bound to instance
// parameters (dio_intmin/doubl/redundancy, min_hoprankinc) and a Host.
func NewManager(isRoot bool, minHopRankIncrease uint16, dioIntMin, dioIntDoubl uint8, redundancy uint16, host Host, opts ...ManagerOption) *Manager {
	m := &Manager{
		isRoot:   isRoot,
		tunables: DefaultTunables(),
		features: DefaultFeatureGates(),
		clock:    NewSystemClock(),
		rand:     defaultRand,
		host:     host,
		dags:     newArena[*DAG](),
		parents:  newArena[*Parent](),
		trace:    NewTraceLogger(nil),
		metrics:  NopMetrics{},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.instance = NewInstance(minHopRankIncrease, dioIntMin, dioIntDoubl, redundancy)
	if m.of == nil {
		if m.features.DetectMobility {
			m.of = NewRHOF()
		} else {
			m.of = NewStability()
		}
	}
	m.node = NewNode(isRoot, dioIntMin, m.tunables, m.trace)
	m.cm = NewConnectivityManager(m.tunables, m.features, m.trace, m.host, m.metrics)
	m.dio = NewTrickleScheduler(m.instance, m.host, m.clock, m.trace, m.features, m.rand)
	m.daoS = NewDAOScheduler(m.instance, m.host, m.clock, m.rand)

	return m
}

func defaultRand() float64 {
	// A deterministic-free default is intentionally not provided here;
	// cmd/mobirpld wires math/rand/v2's Float64 via WithRand. Returning
	// 0.5 keeps zero-value Managers usable in tests that don't care
	// about jitter, without importing math/rand from this package.
	return 0.5
}

// Instance returns the managed routing instance.
func (m *Manager) Instance() *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instance
}

// Node returns the node-global state.
func (m *Manager) Node() *Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.node
}

// CreateDAG allocates a new DAG bound to the managed instance and returns
// its ID.
func (m *Manager) CreateDAG() ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	dag := NewDAG(0)
	id := m.dags.alloc(dag)
	dag.ID = id
	m.instance.DAGs = append(m.instance.DAGs, id)
	if m.instance.CurrentDAG == noID {
		m.instance.CurrentDAG = id
	}
	return id
}

// DAG returns the DAG with the given ID.
func (m *Manager) DAG(id ID) (*DAG, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dags.get(id)
}

// CurrentDAG returns the instance's current DAG.
func (m *Manager) CurrentDAG() (*DAG, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dags.get(m.instance.CurrentDAG)
}

// AddParent creates a parent record for addr under dagID and registers
// it in both the arena and the DAG's parent list. Parent records are
// created on first DIO from an eligible neighbor.
func (m *Manager) AddParent(dagID ID, addr netip.Addr) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dag, ok := m.dags.get(dagID)
	if !ok {
		return noID, ErrUnknownDAG
	}
	p := NewParent(addr, dagID)
	id := m.parents.alloc(p)
	p.ID = id
	dag.Parents = append(dag.Parents, id)
	return id, nil
}

// Parent returns the parent record with the given ID.
func (m *Manager) Parent(id ID) (*Parent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parents.get(id)
}

// RemoveParent evicts a parent from its DAG's list and the arena: a
// parent is destroyed when the DAG evicts it.
func (m *Manager) RemoveParent(id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parents.get(id)
	if !ok {
		return ErrUnknownParent
	}
	if dag, ok := m.dags.get(p.DAG); ok {
		dag.Parents = removeID(dag.Parents, id)
		if dag.PreferredParent == id {
			dag.PreferredParent = noID
		}
	}
	m.parents.free_(id)
	return nil
}

func removeID(s []ID, id ID) []ID {
	for i, v := range s {
		if v == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// DAGParents returns the live parent records belonging to dagID, in
// stable discovery order.
func (m *Manager) DAGParents(dagID ID) []*Parent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dag, ok := m.dags.get(dagID)
	if !ok {
		return nil
	}
	out := make([]*Parent, 0, len(dag.Parents))
	for _, id := range dag.Parents {
		if p, ok := m.parents.get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// DispatchLinkCallback handles the MAC-TX-outcome link callback,
// bumping the preferred/non-preferred callback counters (which require
// knowing the owning DAG's current preferred parent, hence living here
// rather than in baseOF) before delegating to the objective function and
// emitting the "r:a_cb" trace line.
func (m *Manager) DispatchLinkCallback(parentID ID, outcome LinkOutcome, rssi int16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parents.get(parentID)
	if !ok || !p.HasNeighborEntry() {
		return ErrNoNeighborEntry
	}

	dag, _ := m.dags.get(p.DAG)
	if dag != nil && dag.PreferredParent == p.ID {
		p.PreferredCallbacks++
	} else {
		p.NonPreferredCallbacks++
	}

	m.of.NeighborLinkCallback(p, outcome, rssi, m.node, m.tunables, m.features.ManageConnectivity)

	var lossCount int
	if m.features.ManageConnectivity {
		lossCount = int(p.LinkLossCount)
	} else {
		lossCount = -1
	}
	flag := m.flagFor(p)
	m.trace.TraceLink(false, NodeIDFromAddr(p.Addr), p.PreferredCallbacks, p.NonPreferredCallbacks, rssi, lossCount, p.Zone, p.Lifetime, m.node.Mobility, flag)
	return nil
}

// DispatchRXCallback handles the unicast-reception link callback
// (mobirpl_rx_callback): identical zone/RSSI handling, always resets the
// loss counter, no preferred/non-preferred callback bookkeeping (the
// reference's RX callback omits it).
func (m *Manager) DispatchRXCallback(parentID ID, rssi int16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parents.get(parentID)
	if !ok || !p.HasNeighborEntry() {
		return ErrNoNeighborEntry
	}

	p.ApplyLinkOutcome(LinkOK, rssi, m.tunables, m.features.ManageConnectivity, true)

	var lossCount int
	if m.features.ManageConnectivity {
		lossCount = int(p.LinkLossCount)
	} else {
		lossCount = -1
	}
	flag := m.flagFor(p)
	m.trace.TraceLink(true, NodeIDFromAddr(p.Addr), p.PreferredCallbacks, p.NonPreferredCallbacks, rssi, lossCount, p.Zone, p.Lifetime, m.node.Mobility, flag)
	return nil
}

func (m *Manager) flagFor(p *Parent) uint8 {
	if !m.features.DetectMobility {
		return 0
	}
	return calculateFlag(p, m.node)
}

// SetPreferredParent changes dagID's preferred parent to parentID (which
// may be noID to clear it). A change away from the previous preferred
// parent sets PPChangeFlag to ParentSwitch (consumed by the mobility
// detector on its next tick) and resets the new preferred parent's
// lifetime; the very first selection after UNJOINED instead establishes
// NoParentSwitch as a baseline, since there is no prior parent to have
// "switched" from (DESIGN.md open-question-adjacent decision, since this
// transition's trigger point lives outside the files this port is
// grounded on).
func (m *Manager) SetPreferredParent(dagID, parentID ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dag, ok := m.dags.get(dagID)
	if !ok {
		return ErrUnknownDAG
	}
	if dag.PreferredParent == parentID {
		return nil
	}

	wasUnjoined := m.node.PPChangeFlag == UnjoinedNode
	dag.PreferredParent = parentID

	if !m.node.IsRoot {
		if wasUnjoined {
			m.node.PPChangeFlag = NoParentSwitch
		} else {
			m.node.PPChangeFlag = ParentSwitch
		}
	}

	if parentID != noID {
		if p, ok := m.parents.get(parentID); ok {
			m.cm.ResetLifetime(m.node, p)
			m.metrics.RecordPreferredParentSwitch(p.Addr)
		}
	}
	return nil
}

// SelectAndSetPreferred recomputes dagID's preferred parent from its
// current candidate set via SelectPreferred and applies the result with
// SetPreferredParent.
func (m *Manager) SelectAndSetPreferred(dagID ID) error {
	m.mu.RLock()
	dag, ok := m.dags.get(dagID)
	if !ok {
		m.mu.RUnlock()
		return ErrUnknownDAG
	}
	candidates := make([]*Parent, 0, len(dag.Parents))
	for _, id := range dag.Parents {
		if p, ok := m.parents.get(id); ok {
			candidates = append(candidates, p)
		}
	}
	var preferred *Parent
	if dag.PreferredParent != noID {
		preferred, _ = m.parents.get(dag.PreferredParent)
	}
	of := m.of
	instance := m.instance
	node := m.node
	tunables := m.tunables
	connMgmt := m.features.ManageConnectivity
	m.mu.RUnlock()

	best := SelectPreferred(of, candidates, preferred, instance, node, tunables, connMgmt)
	var bestID ID
	if best != nil {
		bestID = best.ID
	}
	return m.SetPreferredParent(dagID, bestID)
}

// Tick runs one second of the mobility detector and connectivity manager
// over the current DAG, plus the proactive/reactive discovery handling
// from handle_periodic_timer. Root nodes skip connectivity management
// entirely but the caller is still expected to invoke Tick once per
// second uniformly (the root-node short-circuit lives inside the
// manager's callees, which skip it entirely on the root node).
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.features.DetectMobility {
		DetectMobility(m.node, m.tunables, m.trace)
		if m.node.MobilityUpdated() {
			m.metrics.RecordMobilityClassification(m.node.Mobility, m.node.ewmaMetric)
		}
	}

	dag, _ := m.dags.get(m.instance.CurrentDAG)
	var parents []*Parent
	var preferred *Parent
	if dag != nil {
		parents = make([]*Parent, 0, len(dag.Parents))
		for _, id := range dag.Parents {
			if p, ok := m.parents.get(id); ok {
				parents = append(parents, p)
			}
		}
		if dag.PreferredParent != noID {
			preferred, _ = m.parents.get(dag.PreferredParent)
		}
	}

	m.cm.Tick(m.node, parents, preferred, m.instance)

	m.host.PurgeRoutes()
	m.host.RecalculateRanks()

	m.cm.ProactiveDiscovery(m.node)
	m.cm.ReactiveDiscovery(m.node, parents, m.instance.Trickle.IntMin)
}

// Trickle returns the Trickle DIO scheduler for the managed instance.
func (m *Manager) Trickle() *TrickleScheduler { return m.dio }

// DAOScheduler returns the DAO scheduler for the managed instance.
func (m *Manager) DAOScheduler() *DAOScheduler { return m.daoS }

// Connectivity returns the connectivity manager.
func (m *Manager) Connectivity() *ConnectivityManager { return m.cm }

// Run drives the periodic one-second tick, the Trickle DIO timer, and
// the DAO timers from a single goroutine's select loop: every mutation
// below happens on this one goroutine, so no locking is required between
// them (the Manager's RWMutex exists solely for concurrent readers, e.g.
// a status HTTP handler, per the Manager doc comment).
func (m *Manager) Run(stop <-chan struct{}) {
	m.trace.TraceReset()
	m.periodicTimer = m.clock.NewTimer(time.Second)
	m.dio.Arm()

	for {
		var dioC, periodicC, daoC, daoLifetimeC <-chan time.Time
		if t := m.dio.Timer(); t != nil {
			dioC = t.C()
		}
		periodicC = m.periodicTimer.C()
		if t := m.daoS.Timer(); t != nil {
			daoC = t.C()
		}
		if t := m.daoS.LifetimeTimer(); t != nil {
			daoLifetimeC = t.C()
		}

		select {
		case <-stop:
			stopTimer(m.periodicTimer)
			m.dio.Stop()
			m.daoS.Cancel()
			return
		case <-dioC:
			m.dio.HandleFire()
		case <-periodicC:
			m.Tick()
			m.periodicTimer.Reset(time.Second)
		case <-daoC:
			m.mu.RLock()
			dag, _ := m.dags.get(m.instance.CurrentDAG)
			var preferred *Parent
			if dag != nil && dag.PreferredParent != noID {
				preferred, _ = m.parents.get(dag.PreferredParent)
			}
			m.mu.RUnlock()
			m.daoS.HandleFire(preferred)
		case <-daoLifetimeC:
			m.daoS.HandleLifetimeFire()
		}
	}
}
