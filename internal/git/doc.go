// Package git inspects the local git state of child documentation sources.
//
// docsync never fetches or clones; sources are expected to be checked out
// already. This package only reads the checked-out HEAD so a sync run can
// record which revision of each child repository it mirrored.
package git
