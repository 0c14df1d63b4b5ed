package recall

import (
	"fmt"
	"strings"
)

const (
	AuthorityFDA  = "FDA"
	AuthorityUSDA = "USDA"

	// DefaultReadSource is the source identifier the read endpoints use when the caller
	// does not pick one.
	DefaultReadSource = "fsis"
)

// sourceAuthorities resolves the identifiers used by read callers to the authority stored
// on each row. FSIS is the USDA agency that publishes meat and poultry recalls.
var sourceAuthorities = map[string]string{
	"fsis": AuthorityUSDA,
	"usda": AuthorityUSDA,
	"fda":  AuthorityFDA,
}

// AuthorityForSource maps a read-side source identifier to its stored authority.
func AuthorityForSource(source string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(source))
	if key == "" {
		key = DefaultReadSource
	}
	authority, ok := sourceAuthorities[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return authority, nil
}
