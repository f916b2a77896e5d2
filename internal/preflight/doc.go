// Package preflight provides readiness checks for the filesystem paths and
// settings nomen depends on.
//
// The CLI "nomen config validate" command runs RunAll and prints each
// result, so a misconfigured lock directory or a full disk is reported
// before a save fails halfway through a library.
package preflight
