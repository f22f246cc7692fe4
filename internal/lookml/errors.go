package lookml

import "fmt"

// NamingError reports a label that cannot be sanitized to a non-empty
// identifier. It is fatal to the single field only; callers emit a
// generic fallback name and continue with the model.
type NamingError struct {
	Label string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("label %q sanitizes to an empty identifier", e.Label)
}

// WarningKind distinguishes recoverable per-field problems.
type WarningKind string

const (
	WarnUnsupportedType WarningKind = "unsupported_type"
	WarnMeasureConfig   WarningKind = "measure_config"
	WarnNaming          WarningKind = "naming"
)

// Warning is a recoverable problem recorded while processing one model.
// Warnings never suppress output for the fields that succeeded.
type Warning struct {
	Kind    WarningKind
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Path, w.Message)
}
