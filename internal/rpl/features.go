package rpl

// FeatureGates replaces the reference's compile-time MOBIRPL_* macros
// with runtime configuration. Each field gates exactly one behavior.
type FeatureGates struct {
	DetectMobility    bool // MOBIRPL_MOBILITY_DETECTION
	ManageConnectivity bool // MOBIRPL_CONNECTIVITY_MANAGEMENT
	UnicastProbe      bool // MOBIRPL_UNICAST_PROBING
	ProactiveDiscover bool // MOBIRPL_PROACTIVE_DISCOVERY
	LeafOnly          bool // RPL_LEAF_ONLY
	CollectStats      bool // RPL_CONF_STATS
}

// DefaultFeatureGates enables mobility detection and connectivity
// management, matching MOBIRPL_RH_OF's intended operating mode (see
// SPEC_FULL.md §10.2 for why this differs from project-conf.h's baseline-RPL
// comparison defaults, which ship every MobiRPL feature disabled).
func DefaultFeatureGates() FeatureGates {
	return FeatureGates{
		DetectMobility:     true,
		ManageConnectivity: true,
		UnicastProbe:       true,
		ProactiveDiscover:  true,
	}
}
