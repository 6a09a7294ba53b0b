package reconcile

import (
	"sort"
	"strings"
)

// Fingerprint digests a share's item-id set: sorted, comma-joined. Any
// membership change produces a different fingerprint; reordering alone
// does not.
func Fingerprint(itemIDs []string) string {
	ids := make([]string, len(itemIDs))
	copy(ids, itemIDs)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
