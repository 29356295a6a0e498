// Package tagfilter decides which items pass a multi-tag selection.
//
// The predicate is the same for every entity kind. ANY passes an item when it
// carries at least one selected tag; ALL passes it when it carries every selected
// tag. An empty selection passes everything. Tag ids that no longer exist simply
// never match.
//
// Items are described only through accessors, so emails, calendar events and cards
// share one implementation:
//
//	sel := tagfilter.NewSelection([]string{"t1", "t2"}, tagfilter.ModeAll)
//	passed := tagfilter.Filter(items, func(it Item) []string { return it.TagIDs }, sel)
//
// When only association rows are available (item id, tag id), MatchingItemIDs
// groups the rows per item first and evaluates the predicate on each complete
// group second.
package tagfilter
