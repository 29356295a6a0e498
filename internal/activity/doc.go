// Package activity merges time-stamped events from the tag store and Google
// Calendar into one feed sorted newest first.
//
// Sources:
//   - email tags attached (email_tags.created_at)
//   - email tags removed (removed-tag log)
//   - custom card log entries
//   - calendar events changed since the feed start, deletions included
//
// Calendar events carry no explicit lifecycle, so Classify infers creation,
// update or deletion from their status and timestamps.
package activity
