// Package task defines the to-do item model and the whole-list codec used
// for persistence.
//
// A task list is persisted as a single JSON array:
//
//	[
//	  {
//	    "id": "0b7f5a8e-3c1d-4f0e-9a52-6f0d1e2c3b4a",
//	    "title": "Buy milk",
//	    "isCompleted": false,
//	    "createdAt": "2025-02-14T09:30:00Z"
//	  }
//	]
//
// "createdAt" is optional. Decoding also accepts a number of seconds since
// 2001-01-01T00:00:00Z, the default Date encoding of Apple's JSONEncoder;
// encoding always writes RFC 3339.
//
// # Validation
//
// Decoded blobs are checked against an embedded JSON Schema (draft 2020-12)
// before they are unmarshaled. A blob that fails validation is reported as a
// *ValidationError per offending location; callers that want best-effort
// loading treat any error as "no tasks".
//
// There is no schema version field. Older shapes of the list (for example
// items without "isCompleted") do not validate and are not migrated.
package task
