package lookml

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFolder decomposes accented letters and strips the combining marks,
// so "åäö" becomes "aao". Characters with no ASCII decomposition are
// dropped by the replacement pass in Sanitize.
var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Namespace tracks the identifiers claimed inside one view, so the
// sanitizer stays pure: collision state is explicit, never module-global.
type Namespace struct {
	owners map[string]*FieldSpec
}

// NewNamespace returns an empty per-view namespace.
func NewNamespace() *Namespace {
	return &Namespace{owners: make(map[string]*FieldSpec)}
}

// Claimed reports whether name is taken and by which field (nil for
// reservations without an owning field, such as timeframe names).
func (ns *Namespace) Claimed(name string) (*FieldSpec, bool) {
	f, ok := ns.owners[name]
	return f, ok
}

// Claim records name as taken by f. f may be nil for pure reservations.
func (ns *Namespace) Claim(name string, f *FieldSpec) {
	ns.owners[name] = f
}

// Release frees a name previously claimed. Used when a plain dimension
// yields its name to a dimension group.
func (ns *Namespace) Release(name string) {
	delete(ns.owners, name)
}

// Sanitize converts label into a safe identifier that is unique within ns,
// and claims it. Lowercases, transliterates to ASCII, replaces characters
// outside [a-z0-9_] with underscores, collapses runs, and prefixes an
// underscore when the result would start with a digit. Collisions resolve
// with the smallest unused _N suffix, starting at _2.
//
// Returns a NamingError when the label reduces to nothing.
func (ns *Namespace) Sanitize(label string, owner *FieldSpec) (string, error) {
	base, err := SanitizeLabel(label)
	if err != nil {
		return "", err
	}
	return ns.Unique(base, owner), nil
}

// Unique resolves base against the namespace with the smallest unused _N
// suffix (tried in increasing order starting at 2), claims the result and
// returns it. base must already be a sanitized identifier.
func (ns *Namespace) Unique(base string, owner *FieldSpec) string {
	name := base
	for n := 2; ; n++ {
		if _, taken := ns.owners[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
	ns.Claim(name, owner)
	return name
}

// SanitizeLabel is the collision-free half of Sanitize: it produces the
// base identifier without consulting any namespace.
func SanitizeLabel(label string) (string, error) {
	folded, _, err := transform.String(asciiFolder, label)
	if err != nil {
		// Malformed input falls back to the raw label; the replacement
		// pass below still guarantees a legal identifier.
		folded = label
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name := collapseUnderscores(b.String())
	name = strings.Trim(name, "_")
	if name == "" {
		return "", &NamingError{Label: label}
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name, nil
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// humanize turns a path segment into a label: snake/camel segments become
// space-separated title case ("order_items" / "OrderItems" -> "Order Items").
func humanize(segment string) string {
	words := splitWords(segment)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// splitWords breaks a segment on underscores, dashes and camelCase humps.
func splitWords(segment string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(segment)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// camelToSnake converts a segment to snake_case for view and field naming.
func camelToSnake(segment string) string {
	words := splitWords(segment)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}
