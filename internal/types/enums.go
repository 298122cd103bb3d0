package types

// DirClass is the classification assigned to a directory during a
// namespace normalization pass.
type DirClass string

const (
	DirClassRegularPackage     DirClass = "regular-package"
	DirClassNamespaceCandidate DirClass = "namespace-candidate"
	DirClassIgnored            DirClass = "ignored"
)

type MarkerOp string

const (
	MarkerOpEq        MarkerOp = "=="
	MarkerOpNe        MarkerOp = "!="
	MarkerOpArbitrary MarkerOp = "==="
	MarkerOpCompat    MarkerOp = "~="
	MarkerOpGte       MarkerOp = ">="
	MarkerOpLte       MarkerOp = "<="
	MarkerOpGt        MarkerOp = ">"
	MarkerOpLt        MarkerOp = "<"
	MarkerOpIn        MarkerOp = "in"
	MarkerOpNotIn     MarkerOp = "not in"
)

type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)
