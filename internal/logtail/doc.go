// Package logtail reads the tail of the coindeck log file for the in-app
// log viewer.
//
// Read keeps the last maxLines lines in a ring buffer, so memory stays
// proportional to maxLines and not to the file size. A non-positive
// maxLines reads everything. A missing file returns nil, nil.
//
// Parse understands the JSON lines written by the logging package:
//
//	{"level":"warn","time":"2026-10-19T10:00:00Z","message":"refresh failed","component":"reconcile","error":"..."}
//
// Extra keys become Fields, sorted by key. Lines that are not JSON come back
// verbatim in Message so nothing in the file is hidden.
package logtail
