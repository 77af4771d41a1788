package msglist

import "github.com/tOgg1/busview/internal/models"

// expand turns one candidate identity into its rows: one row per phase when
// demuxing a live identity, otherwise a single undemuxed row.
func expand(id models.MessageID, decl *models.MessageDecl, repetition int) []Item {
	name, node := Untitled, ""
	if decl != nil {
		name, node = decl.Name, decl.Transmitter
	}

	if repetition <= 1 || id.IsDeclaredOnly() {
		return []Item{{ID: id, Name: name, Node: node, CycleBase: noCycle}}
	}

	items := make([]Item, repetition)
	for cb := range items {
		items[cb] = Item{ID: id, Name: name, Node: node, CycleBase: cb}
	}
	return items
}
