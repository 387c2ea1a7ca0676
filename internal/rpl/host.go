package rpl

import "net/netip"

// Host is the set of external collaborators the core consumes: frame
// emission, route-table maintenance, and rank recomputation. DIO/DIS/DAO
// encoding and the MAC/RDC layer live on the other side of this boundary
// and are out of scope for this package.
type Host interface {
	// DISOutput emits a DODAG Information Solicitation. dst is the
	// unicast target, or the zero netip.Addr for a multicast DIS.
	// proactive distinguishes a proactive-discovery solicitation from a
	// reactive/periodic one purely for logging purposes, matching the
	// reference's dis_output(dst, proactive_flag) signature.
	DISOutput(dst netip.Addr, proactive bool)

	// DIOOutput emits a DODAG Information Object for instance, to dst
	// (unicast) or multicast if dst is the zero value.
	DIOOutput(instance *Instance, dst netip.Addr)

	// DAOOutput emits a Destination Advertisement Object to parent with
	// the given route lifetime.
	DAOOutput(parent *Parent, lifetime uint8)

	// PurgeRoutes and RecalculateRanks invoke host-stack maintenance
	// that the periodic handler triggers once per tick, ancillary to
	// parent selection.
	PurgeRoutes()
	RecalculateRanks()

	// LinkLocalReady reports whether the node currently has a preferred
	// link-local address; DIO/DAO transmission is postponed until this
	// is true.
	LinkLocalReady() bool
}

// NopHost is a Host whose methods do nothing; useful for tests that only
// care about state mutation, not emitted frames.
type NopHost struct{}

func (NopHost) DISOutput(netip.Addr, bool)          {}
func (NopHost) DIOOutput(*Instance, netip.Addr)     {}
func (NopHost) DAOOutput(*Parent, uint8)            {}
func (NopHost) PurgeRoutes()                        {}
func (NopHost) RecalculateRanks()                   {}
func (NopHost) LinkLocalReady() bool                { return true }
