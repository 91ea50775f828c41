package selector

import (
	"sort"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// authorSelect round-robins across authors in arrival order so one busy
// author cannot monopolize a block.
var authorSelect = func(entries map[database.AuthorID][]database.Entry, howMany int) []database.Entry {
	authors := make([]database.AuthorID, 0, len(entries))
	for author := range entries {
		authors = append(authors, author)
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i] < authors[j] })

	queues := make(map[database.AuthorID][]database.Entry, len(entries))
	var total int
	for author, authorEntries := range entries {
		queue := make([]database.Entry, len(authorEntries))
		copy(queue, authorEntries)
		sort.Slice(queue, func(i, j int) bool { return queue[i].ID < queue[j].ID })
		queues[author] = queue
		total += len(queue)
	}

	if howMany <= 0 || howMany > total {
		howMany = total
	}

	selected := make([]database.Entry, 0, howMany)
	for len(selected) < howMany {
		for _, author := range authors {
			queue := queues[author]
			if len(queue) == 0 {
				continue
			}

			selected = append(selected, queue[0])
			queues[author] = queue[1:]

			if len(selected) == howMany {
				break
			}
		}
	}

	return selected
}
