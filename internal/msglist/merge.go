package msglist

import (
	"sort"

	"github.com/tOgg1/busview/internal/models"
)

// mergeCandidates returns every live identity plus the declared-only
// identities whose address is not live on any bus. The relationship is
// recomputed on each call so an address that starts appearing live stops
// being declared-only immediately. The result is ordered by id.
func mergeCandidates(live map[models.MessageID]*models.LastMessage, declared map[models.MessageID]struct{}) []models.MessageID {
	pending := make(map[models.MessageID]struct{}, len(declared))
	for id := range declared {
		pending[id] = struct{}{}
	}

	all := make([]models.MessageID, 0, len(live)+len(declared))
	for id := range live {
		all = append(all, id)
		delete(pending, models.MessageID{Source: models.InvalidSource, Address: id.Address})
	}
	for id := range pending {
		all = append(all, id)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Less(all[j]) })
	return all
}
