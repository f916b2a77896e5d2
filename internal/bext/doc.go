// Package bext packs and unpacks the Broadcast Wave extension chunk.
//
// The fixed portion is 602 bytes of little-endian fields followed by a
// free-form coding history. Text fields are ASCII; non-ASCII input is
// replaced rune by rune with '?' and then cut to the field width in bytes.
package bext
