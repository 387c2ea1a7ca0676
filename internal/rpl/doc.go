// Package rpl implements the routing-decision and connectivity-management
// core of a mobility-aware RPL variant: parent-record zone classification,
// a pluggable objective function (mobility-aware and stability variants),
// an EWMA-based mobility detector, a per-tick connectivity manager, a
// Trickle DIO scheduler, and a DAO scheduler.
//
// DIO/DIS/DAO frame encoding, the MAC/RDC layer, and neighbor-table
// storage are external collaborators; this package consumes them through
// small interfaces (see Host in manager.go) rather than implementing them.
package rpl
