package rpl_test

import (
	"testing"
	"time"

	"github.com/hckim/mobirpl/internal/rpl"
)

func TestManagerRunStopsCleanly(t *testing.T) {
	t.Parallel()

	host := newRecordingHost()
	m := rpl.NewManager(false, 256, 12, 8, 1, host,
		rpl.WithClock(fakeClock{}),
		rpl.WithRand(func() float64 { return 0 }),
	)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		m.Run(stop)
		close(done)
	}()
	close(stop)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after stop was closed")
	}
}

func TestSelectAndSetPreferredPrefersNonBlack(t *testing.T) {
	t.Parallel()

	m := rpl.NewManager(false, 256, 12, 8, 0, rpl.NopHost{})
	dag := m.CreateDAG()

	blackID, _ := m.AddParent(dag, mustAddr(t, "fe80::10"))
	whiteID, _ := m.AddParent(dag, mustAddr(t, "fe80::11"))
	black, _ := m.Parent(blackID)
	black.Zone = rpl.ZoneBlack
	black.Rank = 10 // artificially better rank, must still lose to non-BLACK
	white, _ := m.Parent(whiteID)
	white.Rank = 2000

	if err := m.SelectAndSetPreferred(dag); err != nil {
		t.Fatalf("SelectAndSetPreferred: %v", err)
	}

	d, _ := m.DAG(dag)
	if d.PreferredParent != whiteID {
		t.Fatalf("preferred parent = %v, want the non-BLACK candidate", d.PreferredParent)
	}
}
