package server_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/hckim/mobirpl/internal/rpl"
	"github.com/hckim/mobirpl/internal/server"
)

func newTestServer(t *testing.T) (*httptest.Server, *rpl.Manager) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	mgr := rpl.NewManager(false, 256, 12, 8, 10, rpl.NopHost{})

	handler := server.New(mgr, rpl.NopMetrics{}, logger)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv, mgr
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestStatusNode(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/status/node")
	if err != nil {
		t.Fatalf("GET /status/node: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		IsRoot   bool   `json:"is_root"`
		Mobility string `json:"mobility"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.IsRoot {
		t.Error("is_root = true, want false")
	}
	if body.Mobility != "MOBILE" {
		t.Errorf("mobility = %q, want MOBILE (fresh non-root node)", body.Mobility)
	}
}

func TestStatusDAGNotJoined(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/status/dag")
	if err != nil {
		t.Fatalf("GET /status/dag: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (no DAG joined yet)", resp.StatusCode)
	}
}

func TestStatusDAGAndParents(t *testing.T) {
	t.Parallel()

	srv, mgr := newTestServer(t)

	dagID := mgr.CreateDAG()
	addr := netip.MustParseAddr("fe80::1")
	parentID, err := mgr.AddParent(dagID, addr)
	if err != nil {
		t.Fatalf("AddParent: %v", err)
	}
	if err := mgr.SetPreferredParent(dagID, parentID); err != nil {
		t.Fatalf("SetPreferredParent: %v", err)
	}

	resp, err := http.Get(srv.URL + "/status/dag")
	if err != nil {
		t.Fatalf("GET /status/dag: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var dagBody struct {
		ParentCount     int    `json:"parent_count"`
		PreferredParent string `json:"preferred_parent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dagBody); err != nil {
		t.Fatalf("decode dag body: %v", err)
	}
	if dagBody.ParentCount != 1 {
		t.Errorf("parent_count = %d, want 1", dagBody.ParentCount)
	}
	if dagBody.PreferredParent != addr.String() {
		t.Errorf("preferred_parent = %q, want %q", dagBody.PreferredParent, addr.String())
	}

	parentsResp, err := http.Get(srv.URL + "/status/parents")
	if err != nil {
		t.Fatalf("GET /status/parents: %v", err)
	}
	defer parentsResp.Body.Close()

	var parents []struct {
		Addr      string `json:"addr"`
		Preferred bool   `json:"preferred"`
	}
	if err := json.NewDecoder(parentsResp.Body).Decode(&parents); err != nil {
		t.Fatalf("decode parents body: %v", err)
	}
	if len(parents) != 1 {
		t.Fatalf("len(parents) = %d, want 1", len(parents))
	}
	if !parents[0].Preferred {
		t.Error("parents[0].Preferred = false, want true")
	}
}

