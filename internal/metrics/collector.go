// Package rplmetrics exposes the routing core's events as Prometheus
// metrics.
package rplmetrics

import (
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "mobirpl"
	subsystem = "rpl"
)

// Label names for routing-core metrics.
const (
	labelParentAddr = "parent_addr"
	labelZone       = "zone"
	labelFromZone   = "from_zone"
	labelToZone     = "to_zone"
	labelClass      = "class"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Routing-Core Metrics
// -------------------------------------------------------------------------

// Collector holds all routing-core Prometheus metrics.
//
//   - Parents/DAGs track the live topology shape.
//   - Zone transition counters record WHITE/GRAY/BLACK classification churn.
//   - Mobility counters record each mobility-detector recompute, labeled
//     by the resulting class (static or mobile), plus the current metric.
//   - DIO/DAO/DIS counters track control-message emission volume.
//   - PreferredParentSwitches and Probes track connectivity-management
//     activity.
type Collector struct {
	// Parents tracks the number of parent records currently known, per
	// zone.
	Parents *prometheus.GaugeVec

	// DAGs tracks the number of DODAGs currently joined.
	DAGs prometheus.Gauge

	// ZoneTransitions counts parent zone reclassifications, labeled by
	// the from/to zone pair.
	ZoneTransitions *prometheus.CounterVec

	// MobilityClassifications counts mobility-detector classification
	// events, labeled by the resulting class (static or mobile).
	MobilityClassifications *prometheus.CounterVec

	// MobilityMetric reports the current EWMA stability metric.
	MobilityMetric prometheus.Gauge

	// DIOSent, DAOSent, DISSent count control-message emissions.
	DIOSent prometheus.Counter
	DAOSent prometheus.Counter
	DISSent prometheus.Counter

	// PreferredParentSwitches counts preferred-parent changes, labeled
	// by the newly selected parent's address.
	PreferredParentSwitches *prometheus.CounterVec

	// Probes counts unicast DIS probes sent to a stale-but-not-yet-black
	// preferred parent.
	Probes prometheus.Counter
}

// NewCollector creates a Collector with all routing-core metrics
// registered against reg. If reg is nil, prometheus.DefaultRegisterer is
// used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Parents,
		c.DAGs,
		c.ZoneTransitions,
		c.MobilityClassifications,
		c.MobilityMetric,
		c.DIOSent,
		c.DAOSent,
		c.DISSent,
		c.PreferredParentSwitches,
		c.Probes,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	return &Collector{
		Parents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "parents",
			Help:      "Number of known parent records, by zone.",
		}, []string{labelZone}),

		DAGs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dags",
			Help:      "Number of DODAGs currently joined.",
		}),

		ZoneTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "zone_transitions_total",
			Help:      "Total parent zone reclassifications.",
		}, []string{labelFromZone, labelToZone}),

		MobilityClassifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mobility_classifications_total",
			Help:      "Total mobility-detector classification events.",
		}, []string{labelClass}),

		MobilityMetric: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mobility_metric",
			Help:      "Current EWMA stability metric (fixed-point, scale 100).",
		}),

		DIOSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dio_sent_total",
			Help:      "Total DODAG Information Object messages sent.",
		}),

		DAOSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dao_sent_total",
			Help:      "Total Destination Advertisement Object messages sent.",
		}),

		DISSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dis_sent_total",
			Help:      "Total DODAG Information Solicitation messages sent.",
		}),

		PreferredParentSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "preferred_parent_switches_total",
			Help:      "Total preferred-parent changes, labeled by the newly selected parent.",
		}, []string{labelParentAddr}),

		Probes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "probes_total",
			Help:      "Total unicast DIS probes sent to a stale preferred parent.",
		}),
	}
}

// -------------------------------------------------------------------------
// Topology Gauges
// -------------------------------------------------------------------------

// SetParentCount sets the gauge tracking known parent records in zone.
func (c *Collector) SetParentCount(zone string, n int) {
	c.Parents.WithLabelValues(zone).Set(float64(n))
}

// SetDAGCount sets the gauge tracking joined DODAGs.
func (c *Collector) SetDAGCount(n int) {
	c.DAGs.Set(float64(n))
}

// -------------------------------------------------------------------------
// Zone Transitions
// -------------------------------------------------------------------------

// RecordZoneTransition increments the zone transition counter for the
// from/to zone pair. The routing core calls it when the connectivity
// manager blackens a parent; WHITE/GRAY reclassifications made by the
// link callbacks are not reported.
func (c *Collector) RecordZoneTransition(from, to string) {
	c.ZoneTransitions.WithLabelValues(from, to).Inc()
}

// -------------------------------------------------------------------------
// Mobility
// -------------------------------------------------------------------------

// RecordMobilityClassification increments the classification counter for
// class ("static" or "mobile") and updates the current metric gauge.
func (c *Collector) RecordMobilityClassification(class string, metric uint32) {
	c.MobilityClassifications.WithLabelValues(class).Inc()
	c.MobilityMetric.Set(float64(metric))
}

// -------------------------------------------------------------------------
// Control-Message Emission
// -------------------------------------------------------------------------

// IncDIOSent increments the DIO emission counter.
func (c *Collector) IncDIOSent() { c.DIOSent.Inc() }

// IncDAOSent increments the DAO emission counter.
func (c *Collector) IncDAOSent() { c.DAOSent.Inc() }

// IncDISSent increments the DIS emission counter.
func (c *Collector) IncDISSent() { c.DISSent.Inc() }

// -------------------------------------------------------------------------
// Connectivity Management
// -------------------------------------------------------------------------

// RecordPreferredParentSwitch increments the preferred-parent switch
// counter for the newly selected parent's address.
func (c *Collector) RecordPreferredParentSwitch(parent netip.Addr) {
	c.PreferredParentSwitches.WithLabelValues(parent.String()).Inc()
}

// IncProbes increments the unicast probe counter.
func (c *Collector) IncProbes() { c.Probes.Inc() }
