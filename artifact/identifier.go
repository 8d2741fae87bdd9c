package artifact

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern is the fixed identifier grammar. It is validated independently
// of context; matching strings are further decomposed into system, kind
// and slug segments.
var idPattern = regexp.MustCompile(`^cpt-[a-z0-9][a-z0-9-]+$`)

// Identifier is the atomic unit of the reference model:
// cpt-{system}-{kind}-{slug}.
type Identifier struct {
	Raw    string `json:"raw"`
	System string `json:"system"`
	Kind   IDKind `json:"kind"`
	Slug   string `json:"slug"`
}

// ParseIdentifier validates raw against the identifier grammar and
// decomposes it. The grammar is strict: lowercase alphanumeric/hyphen
// segments only. Uppercase input is an error, never normalized.
func ParseIdentifier(raw string) (Identifier, error) {
	if !idPattern.MatchString(raw) {
		return Identifier{}, fmt.Errorf("identifier %q does not match cpt-{system}-{kind}-{slug}", raw)
	}

	segs := strings.Split(strings.TrimPrefix(raw, "cpt-"), "-")
	if len(segs) < 3 {
		return Identifier{}, fmt.Errorf("identifier %q is missing a kind or slug segment", raw)
	}

	system := segs[0]
	kind := IDKind(segs[1])
	slug := strings.Join(segs[2:], "-")

	if system == "" {
		return Identifier{}, fmt.Errorf("identifier %q has an empty system segment", raw)
	}
	if !kind.Valid() {
		return Identifier{}, fmt.Errorf("identifier %q has unknown kind %q", raw, segs[1])
	}
	if slug == "" || strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return Identifier{}, fmt.Errorf("identifier %q has a malformed slug", raw)
	}

	return Identifier{Raw: raw, System: system, Kind: kind, Slug: slug}, nil
}

// String returns the raw identifier. Parsing then re-serializing a valid
// identifier is the identity.
func (id Identifier) String() string { return id.Raw }

// looksLikeIdentifier reports whether a backticked token is attempting to
// be an identifier, so malformed variants (wrong case, bad characters) are
// reported rather than silently ignored.
func looksLikeIdentifier(token string) bool {
	return strings.HasPrefix(strings.ToLower(token), "cpt-")
}
