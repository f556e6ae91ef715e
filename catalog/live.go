package catalog

import "github.com/syssam/veloxdb/value"

// Live is a LIVE SELECT registration: a standing query whose matching
// mutations are pushed to the owning session as notifications (spec §4.8
// "Live queries").
type Live struct {
	Version   uint16
	Namespace string
	Database  string
	Table     string
	ID        value.UUID
	// Statement is the opaque parsed SELECT this live query re-evaluates
	// per mutation to decide whether to notify.
	Statement any
	// Diff requests PATCH-shaped notifications instead of whole-record
	// ones (spec §4.8, Open Question: cursor-doc construction resolved as
	// whole-row replacement when Diff is false).
	Diff bool
	// Killed marks a live query that received KILL but has not yet been
	// reaped by the next poll cycle.
	Killed bool
}

// Revision implements Revisioned.
func (l Live) Revision() uint16 { return l.Version }
