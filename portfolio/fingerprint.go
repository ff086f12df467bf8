package portfolio

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Fingerprint computes a deterministic hash of a set of active strategy IDs
// (spec.md §3 "Fingerprint", §8 "Fingerprint stability"). Order-insensitive:
// IDs are sorted before hashing. Grounded on original_source's
// `uuid.uuid5(uuid.NAMESPACE_URL, "|".join(sorted(strategy_ids)))`
// (SPEC_FULL "Fingerprint algorithm"), reproduced with google/uuid's
// NewSHA1, the Go equivalent of Python's uuid5.
func Fingerprint(strategyIDs []string) string {
	if len(strategyIDs) == 0 {
		return "none"
	}
	sorted := make([]string, len(strategyIDs))
	copy(sorted, strategyIDs)
	sort.Strings(sorted)
	joined := strings.Join(sorted, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(joined)).String()
}
