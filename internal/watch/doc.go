// Package watch keeps a site in sync while the process runs.
//
// A Watcher reacts to Markdown changes in the child source trees and a
// Scheduler triggers periodic resyncs. Both only call a trigger function; the
// caller decides how a sync is run and serializes runs.
package watch
