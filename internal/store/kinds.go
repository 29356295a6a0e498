package store

import (
	"fmt"
)

type associationTable struct {
	table  string
	column string
}

var associationTables = map[Kind]associationTable{
	KindEmail:    {table: "email_tags", column: "email_id"},
	KindCalendar: {table: "calendar_event_tags", column: "event_id"},
	KindTimeline: {table: "timeline_card_tags", column: "card_id"},
	KindCustom:   {table: "custom_card_tags", column: "card_id"},
}

// AssociationTable returns the join table and item column for kind.
// Backends build their SQL from it; kind values never come from raw input.
func AssociationTable(kind Kind) (table, column string, err error) {
	t, ok := associationTables[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown entity kind %q", kind)
	}
	return t.table, t.column, nil
}
