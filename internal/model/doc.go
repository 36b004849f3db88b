// Package model defines the entities replicated by the sync engine and the
// partial patches that mutate them.
//
// Conventions:
//   - IDs: decimal snowflake strings ("123"), opaque strings for invites,
//     "<server_id>-<user_id>" for members
//   - Timestamps: time.Time, RFC 3339 on the wire
//   - Partial updates: every mutable field is a Field[T], which keeps
//     "absent" (leave unchanged) apart from "null" (clear)
package model
