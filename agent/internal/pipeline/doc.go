// Package pipeline runs one probe cycle: read the indoor sensor and fetch the
// outdoor dewpoint in parallel, decide, then report and (when the light is in
// the wrong state) actuate in parallel.
//
// Both joins wait for every branch. A failing branch never cancels its
// sibling, and all failures are returned together via errors.Join.
package pipeline
