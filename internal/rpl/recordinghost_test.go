package rpl_test

import (
	"net/netip"

	"github.com/hckim/mobirpl/internal/rpl"
)

// recordingHost counts emitted frames and lets tests gate LinkLocalReady.
type recordingHost struct {
	linkLocalReady bool
	dioCount       int
	disCount       int
	daoCount       int
	lastDAOParent  *rpl.Parent
	lastDAOLife    uint8
}

func newRecordingHost() *recordingHost {
	return &recordingHost{linkLocalReady: true}
}

func (h *recordingHost) DISOutput(netip.Addr, bool)      { h.disCount++ }
func (h *recordingHost) DIOOutput(*rpl.Instance, netip.Addr) { h.dioCount++ }
func (h *recordingHost) DAOOutput(p *rpl.Parent, lifetime uint8) {
	h.daoCount++
	h.lastDAOParent = p
	h.lastDAOLife = lifetime
}
func (h *recordingHost) PurgeRoutes()         {}
func (h *recordingHost) RecalculateRanks()    {}
func (h *recordingHost) LinkLocalReady() bool { return h.linkLocalReady }
