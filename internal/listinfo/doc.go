// Package listinfo reads and writes the sub-chunk table carried by a RIFF
// LIST chunk of type INFO. Merging is gap-fill only: a tag already present in
// the file keeps its stored value.
package listinfo
