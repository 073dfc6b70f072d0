package domain

type EnvironmentType string

const (
	EnvironmentPython     EnvironmentType = "python"
	EnvironmentTypeScript EnvironmentType = "typescript"
	EnvironmentRust       EnvironmentType = "rust"
	EnvironmentGo         EnvironmentType = "go"
	EnvironmentNushell    EnvironmentType = "nushell"
)

type EnvironmentDescriptor struct {
	Type           EnvironmentType `json:"type"`
	Name           string          `json:"name"`
	Root           string          `json:"root"`
	PackageManager string          `json:"package_manager,omitempty"`
	ConfigFiles    []string        `json:"config_files,omitempty"`
}

type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Violation struct {
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Match    string   `json:"match"`
}

type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

func ParseComplexity(s string) Complexity {
	switch Complexity(s) {
	case ComplexitySimple, ComplexityComplex:
		return Complexity(s)
	default:
		return ComplexityMedium
	}
}

// RenderContext is the data a PRP template is executed against.
type RenderContext struct {
	FeatureName   string
	Environment   string
	Complexity    Complexity
	Description   string
	Requirements  []string
	Examples      []string
	Documentation []string
	Gotchas       []string
	Validation    []string
	Extra         map[string]interface{}
}
