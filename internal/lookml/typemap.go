package lookml

import "strings"

// Kind is the semantic classification of a physical column type.
type Kind string

const (
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindYesNo       Kind = "yesno"
	KindDate        Kind = "date"
	KindDateTime    Kind = "datetime"
	KindTimestamp   Kind = "timestamp"
	KindTime        Kind = "time"
	KindUnsupported Kind = "unsupported"
)

// bigqueryKinds maps BigQuery base types to their semantic kind.
// TIME maps to string: Looker has no time-of-day dimension group type.
var bigqueryKinds = map[string]Kind{
	"INT64":      KindNumber,
	"INTEGER":    KindNumber,
	"FLOAT":      KindNumber,
	"FLOAT64":    KindNumber,
	"NUMERIC":    KindNumber,
	"BIGNUMERIC": KindNumber,
	"BOOL":       KindYesNo,
	"BOOLEAN":    KindYesNo,
	"STRING":     KindString,
	"BYTES":      KindString,
	"GEOGRAPHY":  KindString,
	"TIME":       KindTime,
	"DATE":       KindDate,
	"DATETIME":   KindDateTime,
	"TIMESTAMP":  KindTimestamp,
	"ARRAY":      KindString,
	"STRUCT":     KindString,
	"RECORD":     KindString,
}

// BaseType strips type parameters from a physical type string:
// ARRAY<STRUCT<...>> -> ARRAY, NUMERIC(10,2) -> NUMERIC.
func BaseType(physicalType string) string {
	base := physicalType
	if i := strings.IndexByte(base, '<'); i >= 0 {
		base = base[:i]
	}
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	return strings.ToUpper(strings.TrimSpace(base))
}

// Classify maps a physical type string to its semantic kind.
// Unknown types classify as KindUnsupported, never as an error: the
// flattening engine still emits such columns as hidden placeholders.
func Classify(physicalType string) Kind {
	if physicalType == "" {
		return KindUnsupported
	}
	if k, ok := bigqueryKinds[BaseType(physicalType)]; ok {
		return k
	}
	return KindUnsupported
}

// IsArrayType reports whether the physical type denotes repeated cardinality.
// Only a leading ARRAY counts; STRUCT<a ARRAY<...>> is not itself repeated.
func IsArrayType(physicalType string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(physicalType)), "ARRAY")
}

// ArrayElementType extracts T from ARRAY<T>. Returns "" when the type is
// not an array or carries no element type.
func ArrayElementType(physicalType string) string {
	t := strings.TrimSpace(physicalType)
	upper := strings.ToUpper(t)
	if !strings.HasPrefix(upper, "ARRAY<") || !strings.HasSuffix(t, ">") {
		return ""
	}
	return strings.TrimSpace(t[len("ARRAY<") : len(t)-1])
}

// LookerType returns the dimension type string for a kind, or "" when the
// kind has no scalar dimension representation.
func (k Kind) LookerType() string {
	switch k {
	case KindString, KindTime:
		return "string"
	case KindNumber:
		return "number"
	case KindYesNo:
		return "yesno"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindTimestamp:
		return "timestamp"
	}
	return ""
}

// IsTemporal reports whether the kind produces a dimension group rather
// than a plain dimension.
func (k Kind) IsTemporal() bool {
	return k == KindDate || k == KindDateTime || k == KindTimestamp
}

// IsScalar reports whether the kind produces a plain dimension.
func (k Kind) IsScalar() bool {
	return k == KindString || k == KindNumber || k == KindYesNo || k == KindTime
}
