package livequery

import "github.com/syssam/veloxdb/value"

// Kill deregisters the live query named by id (spec §6.1 "KILL <uuid>").
// It is a thin, named entry point over Tracker.Kill so the session's KILL
// handling has a single call it makes rather than reaching into the
// tracker's lower-level API, mirroring how WriteOperator calls
// ChangeLogger.LogMutation rather than touching changefeed.Log directly.
func Kill(tracker *Tracker, id value.UUID) bool {
	return tracker.Kill(id)
}
