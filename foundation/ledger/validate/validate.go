// Package validate implements the symbolic checks every entry must pass
// before any oracle call is made. The checks are cheap, deterministic, and
// a failure short-circuits the pipeline so bad submissions never cost an
// oracle round trip.
package validate

import (
	"fmt"
	"strings"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// DefaultMaxContentLength bounds entry content when the genesis file does
// not specify a limit.
const DefaultMaxContentLength = 10_000

// forbiddenMetadataKeys is the fixed denylist of metadata keys implying an
// attempt to override or bypass validation. Matching is case insensitive.
var forbiddenMetadataKeys = map[string]bool{
	"__bypass__":      true,
	"__override__":    true,
	"__admin__":       true,
	"bypass":          true,
	"override":        true,
	"force_accept":    true,
	"force_valid":     true,
	"skip_validation": true,
	"auto_approve":    true,
}

// Check runs the symbolic checks against the specified entry in order and
// collects an issue string for each failure. The result is valid only when
// no issues were produced.
func Check(entry database.Entry, maxContentLength int) database.SymbolicResult {
	if maxContentLength <= 0 {
		maxContentLength = DefaultMaxContentLength
	}

	var issues []string

	if strings.TrimSpace(entry.Content) == "" {
		issues = append(issues, "content is empty")
	}

	if len(entry.Content) > maxContentLength {
		issues = append(issues, fmt.Sprintf("content exceeds maximum length of %d bytes", maxContentLength))
	}

	if strings.TrimSpace(string(entry.Author)) == "" {
		issues = append(issues, "author is empty")
	}

	if strings.TrimSpace(entry.Intent) == "" {
		issues = append(issues, "intent is empty")
	}

	issues = append(issues, checkMetadata(entry.Metadata)...)
	issues = append(issues, checkParentRefs(entry)...)

	return database.SymbolicResult{
		Valid:  len(issues) == 0,
		Issues: issues,
	}
}

// checkMetadata enforces the denylist and the closed shape of metadata
// values: scalars, flat lists of scalars, and flat string keyed maps of
// scalars. Anything deeper is rejected here rather than interpreted later.
func checkMetadata(md database.Metadata) []string {
	var issues []string

	for key, value := range md {
		if forbiddenMetadataKeys[strings.ToLower(key)] {
			issues = append(issues, fmt.Sprintf("metadata key %q is forbidden", key))
			continue
		}

		switch v := value.(type) {
		case nil, string, bool, int, int64, float64:

		case []any:
			for _, item := range v {
				if !isScalar(item) {
					issues = append(issues, fmt.Sprintf("metadata key %q: list values must be scalars", key))
					break
				}
			}

		case map[string]any:
			for _, item := range v {
				if !isScalar(item) {
					issues = append(issues, fmt.Sprintf("metadata key %q: map values must be scalars", key))
					break
				}
			}

		default:
			issues = append(issues, fmt.Sprintf("metadata key %q has an unsupported value shape", key))
		}
	}

	return issues
}

// checkParentRefs validates that derivative declarations are well formed.
// Whether the referenced entries exist and are valid is checked against the
// chain at submission; this only covers structure.
func checkParentRefs(entry database.Entry) []string {
	var issues []string

	for _, ref := range entry.ParentRefs {
		if ref.Entry < 0 {
			issues = append(issues, fmt.Sprintf("parent reference %s: entry index is negative", ref))
		}
	}

	switch {
	case len(entry.ParentRefs) > 0 && entry.DerivativeType == "":
		issues = append(issues, "parent references require a derivative type")

	case len(entry.ParentRefs) > 0:
		if _, err := database.ToDerivativeType(string(entry.DerivativeType)); err != nil {
			issues = append(issues, err.Error())
		}

	case entry.DerivativeType != "":
		issues = append(issues, "derivative type requires parent references")
	}

	return issues
}

// isScalar reports whether a decoded JSON value is an accepted scalar.
func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return true
	}

	return false
}
