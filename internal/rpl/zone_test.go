package rpl_test

import (
	"testing"

	"github.com/hckim/mobirpl/internal/rpl"
)

// TestZoneHysteresis: a parent starting in WHITE
// zone transitions through the hysteresis band as described.
func TestZoneHysteresis(t *testing.T) {
	t.Parallel()

	m := rpl.NewManager(false, 256, 12, 8, 0, rpl.NopHost{})
	dag := m.CreateDAG()
	addr := mustAddr(t, "fe80::1")
	pid, err := m.AddParent(dag, addr)
	if err != nil {
		t.Fatalf("AddParent: %v", err)
	}

	cases := []struct {
		rssi int16
		want string
	}{
		{-84, "GRAY"},
		{-80, "GRAY"},
		{-79, "WHITE"},
		{-78, "WHITE"},
	}

	for i, c := range cases {
		if err := m.DispatchLinkCallback(pid, rpl.LinkOK, c.rssi); err != nil {
			t.Fatalf("case %d: DispatchLinkCallback: %v", i, err)
		}
		p, _ := m.Parent(pid)
		if got := p.Zone.String(); got != c.want {
			t.Fatalf("case %d (rssi=%d): zone = %s, want %s", i, c.rssi, got, c.want)
		}
	}
}

// TestLinkLossToBlack.
func TestLinkLossToBlack(t *testing.T) {
	t.Parallel()

	m := rpl.NewManager(false, 256, 12, 8, 0, rpl.NopHost{})
	dag := m.CreateDAG()
	addr := mustAddr(t, "fe80::2")
	pid, _ := m.AddParent(dag, addr)

	if err := m.DispatchLinkCallback(pid, rpl.LinkNOACK, rpl.NoACKRSSI); err != nil {
		t.Fatalf("first NOACK: %v", err)
	}
	if err := m.DispatchLinkCallback(pid, rpl.LinkNOACK, rpl.NoACKRSSI); err != nil {
		t.Fatalf("second NOACK: %v", err)
	}

	p, _ := m.Parent(pid)
	if p.LinkLossCount < 2 {
		t.Fatalf("link loss count = %d, want >= 2", p.LinkLossCount)
	}

	m.Tick()

	p, _ = m.Parent(pid)
	if p.Zone != rpl.ZoneBlack {
		t.Fatalf("zone = %s, want BLACK", p.Zone)
	}
	if p.Lifetime != 0 {
		t.Fatalf("lifetime = %d, want 0", p.Lifetime)
	}
	if !p.Flags.Has(rpl.FlagUpdated) {
		t.Fatalf("UPDATED flag not set")
	}
	if p.Flags.Has(rpl.FlagLinkMetricValid) {
		t.Fatalf("LINK_METRIC_VALID should be clear")
	}
}
