package rplmetrics_test

import (
	"net/netip"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	rplmetrics "github.com/hckim/mobirpl/internal/metrics"
)

func testParent() netip.Addr {
	return netip.MustParseAddr("fd00::1")
}

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := rplmetrics.NewCollector(reg)

	if c.Parents == nil {
		t.Error("Parents is nil")
	}
	if c.DAGs == nil {
		t.Error("DAGs is nil")
	}
	if c.ZoneTransitions == nil {
		t.Error("ZoneTransitions is nil")
	}
	if c.MobilityClassifications == nil {
		t.Error("MobilityClassifications is nil")
	}
	if c.DIOSent == nil {
		t.Error("DIOSent is nil")
	}
	if c.DAOSent == nil {
		t.Error("DAOSent is nil")
	}
	if c.DISSent == nil {
		t.Error("DISSent is nil")
	}
	if c.PreferredParentSwitches == nil {
		t.Error("PreferredParentSwitches is nil")
	}
	if c.Probes == nil {
		t.Error("Probes is nil")
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestParentAndDAGGauges(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := rplmetrics.NewCollector(reg)

	c.SetParentCount("WHITE", 3)
	c.SetParentCount("GRAY", 1)
	c.SetDAGCount(1)

	if v := gaugeVecValue(t, c.Parents, "WHITE"); v != 3 {
		t.Errorf("Parents[WHITE] = %v, want 3", v)
	}
	if v := gaugeVecValue(t, c.Parents, "GRAY"); v != 1 {
		t.Errorf("Parents[GRAY] = %v, want 1", v)
	}
	if v := gaugeValue(t, c.DAGs); v != 1 {
		t.Errorf("DAGs = %v, want 1", v)
	}
}

func TestZoneTransitions(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := rplmetrics.NewCollector(reg)

	c.RecordZoneTransition("WHITE", "GRAY")
	c.RecordZoneTransition("WHITE", "GRAY")
	c.RecordZoneTransition("GRAY", "BLACK")

	if v := counterVecValue(t, c.ZoneTransitions, "WHITE", "GRAY"); v != 2 {
		t.Errorf("ZoneTransitions[WHITE->GRAY] = %v, want 2", v)
	}
	if v := counterVecValue(t, c.ZoneTransitions, "GRAY", "BLACK"); v != 1 {
		t.Errorf("ZoneTransitions[GRAY->BLACK] = %v, want 1", v)
	}
}

func TestMobilityClassification(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := rplmetrics.NewCollector(reg)

	c.RecordMobilityClassification("mobile", 4367)
	c.RecordMobilityClassification("mobile", 5000)
	c.RecordMobilityClassification("static", 14060)

	if v := counterVecValue(t, c.MobilityClassifications, "mobile"); v != 2 {
		t.Errorf("MobilityClassifications[mobile] = %v, want 2", v)
	}
	if v := counterVecValue(t, c.MobilityClassifications, "static"); v != 1 {
		t.Errorf("MobilityClassifications[static] = %v, want 1", v)
	}
	if v := gaugeValue(t, c.MobilityMetric); v != 14060 {
		t.Errorf("MobilityMetric = %v, want 14060 (last recorded)", v)
	}
}

func TestControlMessageCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := rplmetrics.NewCollector(reg)

	c.IncDIOSent()
	c.IncDIOSent()
	c.IncDAOSent()
	c.IncDISSent()
	c.IncDISSent()
	c.IncDISSent()

	if v := counterValue(t, c.DIOSent); v != 2 {
		t.Errorf("DIOSent = %v, want 2", v)
	}
	if v := counterValue(t, c.DAOSent); v != 1 {
		t.Errorf("DAOSent = %v, want 1", v)
	}
	if v := counterValue(t, c.DISSent); v != 3 {
		t.Errorf("DISSent = %v, want 3", v)
	}
}

func TestPreferredParentSwitchesAndProbes(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := rplmetrics.NewCollector(reg)

	parent := testParent()
	c.RecordPreferredParentSwitch(parent)
	c.RecordPreferredParentSwitch(parent)
	c.IncProbes()

	if v := counterVecValue(t, c.PreferredParentSwitches, parent.String()); v != 2 {
		t.Errorf("PreferredParentSwitches[%s] = %v, want 2", parent, v)
	}
	if v := counterValue(t, c.Probes); v != 1 {
		t.Errorf("Probes = %v, want 1", v)
	}
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func gaugeVecValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()

	gauge, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := gauge.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetGauge().GetValue()
}

func counterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}
