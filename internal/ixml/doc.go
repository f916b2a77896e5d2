// Package ixml updates the iXML chunk: an XML document rooted at BWFXML
// carrying a USER block of upper-case tags and an ASWG block of camelCase
// tags.
//
// Existing documents are reparsed on every write. Elements the caller does not
// name, including vendor blocks such as STEINBERG and unknown USER tags, are
// kept as found. A document that cannot be parsed or has a different root is
// replaced by a freshly built one; Update reports the reason alongside the
// result instead of failing.
package ixml
