package routing

// Outcomes of the rewrite policy, also used as metric labels.
const (
	OutcomeBypass         = "bypass"
	OutcomeNoMatch        = "no_match"
	OutcomeRoot           = "root"
	OutcomeCommon         = "common"
	OutcomeCommonRSC      = "common_rsc"
	OutcomeVendorPrefixed = "vendor_prefixed"
	OutcomeVendor         = "vendor"
	OutcomePanic          = "panic"
)

// Decision is the result of the rewrite policy for one request.
type Decision struct {
	Rewrite bool
	Path    string
	Outcome string
}

// Rewrite applies the rewrite policy. vendor is empty when no tenant matched.
// It is a pure function of its inputs.
func Rewrite(vendor string, rt Route) Decision {
	if rt.Class == ClassBypass {
		return Decision{Path: rt.Path, Outcome: OutcomeBypass}
	}
	if vendor == "" {
		return Decision{Path: rt.Path, Outcome: OutcomeNoMatch}
	}
	base := VendorPrefix + "/" + vendor
	switch rt.Class {
	case ClassRoot:
		return Decision{Rewrite: true, Path: base + "/welcome", Outcome: OutcomeRoot}
	case ClassCommonPage:
		if rt.RSC {
			return Decision{Rewrite: true, Path: base + rt.Path, Outcome: OutcomeCommonRSC}
		}
		return Decision{Path: rt.Path, Outcome: OutcomeCommon}
	case ClassVendorPrefixed:
		return Decision{Path: rt.Path, Outcome: OutcomeVendorPrefixed}
	default:
		return Decision{Rewrite: true, Path: base + rt.Path, Outcome: OutcomeVendor}
	}
}
