// Package selector provides the different pending-entry selection
// strategies that can be used when assembling the next block.
package selector

import (
	"fmt"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// List of supported selection strategies.
const (
	StrategyFIFO   = "FIFO"
	StrategyAuthor = "Author"
)

// Func defines a function that takes the pending entries grouped by author
// and returns the next set for the block being assembled. Entry IDs are
// sortable by arrival, so each strategy can recover submission order.
type Func func(entries map[database.AuthorID][]database.Entry, howMany int) []database.Entry

// strategies holds the set of registered strategies.
var strategies = map[string]Func{
	StrategyFIFO:   fifoSelect,
	StrategyAuthor: authorSelect,
}

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}

	return fn, nil
}
