package types

// MetadataFilename is the fixed name of the document written into the
// installation directory.
const MetadataFilename = "metadata.json"

// MetadataDocument is the persisted description of an installed wheel.
// Field order is the serialized order.
type MetadataDocument struct {
	Name        string             `json:"name" yaml:"name"`
	Version     string             `json:"version" yaml:"version"`
	Deps        []string           `json:"deps" yaml:"deps"`
	EntryPoints []EntryPointRecord `json:"entry_points" yaml:"entry_points"`
}

type EntryPointRecord struct {
	Name      string `json:"name" yaml:"name"`
	Module    string `json:"module" yaml:"module"`
	Attribute string `json:"attribute" yaml:"attribute"`
}

// NamespacePackageDir is a directory identified as an implicit namespace
// package during normalization.
type NamespacePackageDir struct {
	Path      string
	HasMarker bool
}

// MarkerEnvironment is the PEP 508 environment used to evaluate
// dependency markers. A nil *MarkerEnvironment means only extras are
// considered; empty fields are likewise left undecided.
type MarkerEnvironment struct {
	PythonVersion                string
	PythonFullVersion            string
	ImplementationName           string
	ImplementationVersion        string
	OSName                       string
	SysPlatform                  string
	PlatformSystem               string
	PlatformMachine              string
	PlatformRelease              string
	PlatformVersion              string
	PlatformPythonImplementation string
}

// Lookup returns the value of a marker variable. ok is false for unknown
// variables and for fields that were left empty, so callers can treat
// them as undecided.
func (e MarkerEnvironment) Lookup(variable string) (string, bool) {
	var value string
	switch variable {
	case "python_version":
		value = e.PythonVersion
	case "python_full_version":
		value = e.PythonFullVersion
		if value == "" {
			value = e.PythonVersion
		}
	case "implementation_name":
		value = e.ImplementationName
	case "implementation_version":
		value = e.ImplementationVersion
	case "os_name":
		value = e.OSName
	case "sys_platform":
		value = e.SysPlatform
	case "platform_system":
		value = e.PlatformSystem
	case "platform_machine":
		value = e.PlatformMachine
	case "platform_release":
		value = e.PlatformRelease
	case "platform_version":
		value = e.PlatformVersion
	case "platform_python_implementation":
		value = e.PlatformPythonImplementation
	default:
		return "", false
	}
	return value, value != ""
}
