// Package main hosts the nomen CLI entrypoint and command graph.
//
// The Cobra command tree reads and writes WAV metadata directly through the
// writer and reader packages, and keeps the record store current through the
// library service. Configuration resolution, logging setup and store
// lifetime are centralized in commandContext so subcommands only parse flags
// and render results.
package main
