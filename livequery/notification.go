package livequery

import "github.com/syssam/veloxdb/value"

// Action names which kind of mutation produced a Notification (spec §6.4
// "Notifications").
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Notification is what a live query's consumer receives: Record is the
// record id, Result is the (possibly field-projected) document built from
// the mutation (spec §6.4: "record is the record id; result is the
// projected document").
type Notification struct {
	QueryID value.UUID
	Action  Action
	Record  value.RecordID
	Result  value.Value
}
