// Package artifact models the typed Markdown documents of a specification
// workspace: artifact kinds, the identifier grammar, the parsed document
// with its heading tree, and the identifier occurrence extractor.
package artifact

// Kind identifies the artifact type of a document in the chain
// PRD -> ADR -> DESIGN -> DECOMPOSITION -> FEATURE.
type Kind string

const (
	KindPRD           Kind = "PRD"
	KindADR           Kind = "ADR"
	KindDesign        Kind = "DESIGN"
	KindDecomposition Kind = "DECOMPOSITION"
	KindFeature       Kind = "FEATURE"
)

// Kinds returns all artifact kinds in chain order.
func Kinds() []Kind {
	return []Kind{KindPRD, KindADR, KindDesign, KindDecomposition, KindFeature}
}

// Valid reports whether k is a known artifact kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPRD, KindADR, KindDesign, KindDecomposition, KindFeature:
		return true
	}
	return false
}

// IDKind is a fixed identifier category with its own presentation and
// coverage policy.
type IDKind string

const (
	IDActor      IDKind = "actor"
	IDFR         IDKind = "fr"
	IDNFR        IDKind = "nfr"
	IDADR        IDKind = "adr"
	IDComponent  IDKind = "component"
	IDFeature    IDKind = "feature"
	IDFeatStatus IDKind = "featstatus"
	IDFlow       IDKind = "flow"
	IDAlgo       IDKind = "algo"
	IDState      IDKind = "state"
	IDDoD        IDKind = "dod"
)

// IDKinds returns the fixed enumeration of identifier kinds.
func IDKinds() []IDKind {
	return []IDKind{
		IDActor, IDFR, IDNFR, IDADR, IDComponent, IDFeature,
		IDFeatStatus, IDFlow, IDAlgo, IDState, IDDoD,
	}
}

// Valid reports whether k is a known identifier kind.
func (k IDKind) Valid() bool {
	for _, known := range IDKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Traceable reports whether identifiers of this kind are leaf IDs in the
// completion cascade, provable complete by code trace markers.
func (k IDKind) Traceable() bool {
	switch k {
	case IDFlow, IDAlgo, IDState, IDDoD:
		return true
	}
	return false
}
