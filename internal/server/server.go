// Package server implements the plain HTTP/JSON status surface for the
// routing core: a health probe and read-only snapshots of node, parent,
// and DAG state for operators and mobirplctl.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/hckim/mobirpl/internal/rpl"
)

// Server answers HTTP status requests by taking a consistent snapshot of
// a Manager's state on each request. It holds no state of its own.
type Server struct {
	mgr     *rpl.Manager
	metrics rpl.MetricsReporter
	logger  *slog.Logger
}

// New creates a Server and returns its http.Handler, wrapped with
// logging and panic-recovery middleware. metrics receives the
// parent/DAG counts read on each /status/parents and /status/dag
// request.
func New(mgr *rpl.Manager, metrics rpl.MetricsReporter, logger *slog.Logger) http.Handler {
	s := &Server{
		mgr:     mgr,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "server")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /status/node", s.handleNode)
	mux.HandleFunc("GET /status/parents", s.handleParents)
	mux.HandleFunc("GET /status/dag", s.handleDAG)

	return chain(mux, LoggingMiddleware(s.logger), RecoveryMiddleware(s.logger))
}

// -------------------------------------------------------------------------
// /healthz
// -------------------------------------------------------------------------

type healthzResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthzResponse{Status: "ok"})
}

// -------------------------------------------------------------------------
// /status/node
// -------------------------------------------------------------------------

type nodeResponse struct {
	IsRoot               bool   `json:"is_root"`
	Mobility             string `json:"mobility"`
	PPChangeFlag         string `json:"pp_change_flag"`
	TimeoutPeriodIntCurr uint8  `json:"timeout_period_intcurr"`
	TimeoutPeriodCurrent uint16 `json:"timeout_period_current"`
	ProbeInterval        uint16 `json:"probe_interval"`
	EWMAAverage          uint32 `json:"ewma_average"`
	EWMAMetric           uint32 `json:"ewma_metric"`
	EWMAWindow           uint32 `json:"ewma_window"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	node := s.mgr.Node()
	ewma := node.EWMA()

	writeJSON(w, http.StatusOK, nodeResponse{
		IsRoot:               node.IsRoot,
		Mobility:             node.Mobility.String(),
		PPChangeFlag:         node.PPChangeFlag.String(),
		TimeoutPeriodIntCurr: node.TimeoutPeriodIntCurr,
		TimeoutPeriodCurrent: node.TimeoutPeriodCurrent,
		ProbeInterval:        node.ProbeInterval,
		EWMAAverage:          ewma.Average,
		EWMAMetric:           ewma.Metric,
		EWMAWindow:           ewma.Window,
	})
}

// -------------------------------------------------------------------------
// /status/parents
// -------------------------------------------------------------------------

type parentResponse struct {
	Addr          netip.Addr `json:"addr"`
	Rank          uint16     `json:"rank"`
	RSSI          int16      `json:"rssi"`
	Zone          string     `json:"zone"`
	LinkLossCount uint8      `json:"link_loss_count"`
	Lifetime      uint16     `json:"lifetime"`
	Preferred     bool       `json:"preferred"`
}

func (s *Server) handleParents(w http.ResponseWriter, r *http.Request) {
	dag, ok := s.mgr.CurrentDAG()
	if !ok {
		writeJSON(w, http.StatusOK, []parentResponse{})
		return
	}

	parents := s.mgr.DAGParents(dag.ID)
	out := make([]parentResponse, 0, len(parents))
	var zoneCounts [rpl.ZoneBlack + 1]int
	for _, p := range parents {
		out = append(out, parentResponse{
			Addr:          p.Addr,
			Rank:          p.Rank,
			RSSI:          p.RSSI,
			Zone:          p.Zone.String(),
			LinkLossCount: p.LinkLossCount,
			Lifetime:      p.Lifetime,
			Preferred:     p.ID == dag.PreferredParent,
		})
		zoneCounts[p.Zone]++
	}
	for zone, n := range zoneCounts {
		s.metrics.SetParentCount(rpl.Zone(zone), n)
	}

	writeJSON(w, http.StatusOK, out)
}

// -------------------------------------------------------------------------
// /status/dag
// -------------------------------------------------------------------------

type dagResponse struct {
	Grounded        bool       `json:"grounded"`
	Preference      uint8      `json:"preference"`
	Rank            uint16     `json:"rank"`
	PreferredParent netip.Addr `json:"preferred_parent,omitzero"`
	ParentCount     int        `json:"parent_count"`
}

func (s *Server) handleDAG(w http.ResponseWriter, r *http.Request) {
	dag, ok := s.mgr.CurrentDAG()
	if !ok {
		http.Error(w, "not joined to a DAG", http.StatusNotFound)
		return
	}

	resp := dagResponse{
		Grounded:    dag.Grounded,
		Preference:  dag.Preference,
		Rank:        dag.Rank,
		ParentCount: len(dag.Parents),
	}
	if p, ok := s.mgr.Parent(dag.PreferredParent); ok {
		resp.PreferredParent = p.Addr
	}
	s.metrics.SetDAGCount(len(s.mgr.Instance().DAGs))

	writeJSON(w, http.StatusOK, resp)
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
