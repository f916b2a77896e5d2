// Package faults classifies the failures surfaced by the WAV metadata core.
//
// Callers wrap errors with one of the exported sentinel kinds so outer layers
// can map them to stable machine codes without string matching. Format and
// permission failures are reported before any write happens; I/O and disk-full
// failures are reported after the temporary output has been discarded.
package faults
