package selector

import (
	"sort"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// fifoSelect returns the pending entries in arrival order across all
// authors, up to the requested count.
var fifoSelect = func(entries map[database.AuthorID][]database.Entry, howMany int) []database.Entry {
	var all []database.Entry
	for _, authorEntries := range entries {
		all = append(all, authorEntries...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})

	if howMany > 0 && howMany < len(all) {
		all = all[:howMany]
	}

	return all
}
