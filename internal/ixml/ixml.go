package ixml

import (
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"

	"nomen/internal/metadata"
)

// Element names of the document skeleton.
const (
	RootTag    = "BWFXML"
	VersionTag = "IXML_VERSION"
	UserTag    = "USER"
	ASWGTag    = "ASWG"
)

// Defaults written into new documents and the USER block.
const (
	DefaultEmbedder = "NomenAudio"
	DefaultVersion  = "1.61"
)

// Reason distinguishes why an existing document was not reused.
type Reason int

const (
	ReasonEmpty Reason = iota + 1
	ReasonUnparseable
	ReasonWrongRoot
)

func (r Reason) String() string {
	switch r {
	case ReasonEmpty:
		return "empty"
	case ReasonUnparseable:
		return "unparseable"
	case ReasonWrongRoot:
		return "wrong root"
	default:
		return "unknown"
	}
}

// ParseError reports an existing document that could not be reused.
type ParseError struct {
	Reason Reason
	Root   string
	Err    error
}

func (e *ParseError) Error() string {
	switch e.Reason {
	case ReasonWrongRoot:
		return fmt.Sprintf("ixml: root element %q is not %s", e.Root, RootTag)
	case ReasonUnparseable:
		return fmt.Sprintf("ixml: unparseable document: %v", e.Err)
	default:
		return "ixml: " + e.Reason.String() + " document"
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options controls the identifying values written into documents.
type Options struct {
	Embedder string
	Version  string
}

// DefaultOptions returns the stock embedder name and iXML version.
func DefaultOptions() Options {
	return Options{Embedder: DefaultEmbedder, Version: DefaultVersion}
}

func (o Options) normalized() Options {
	if o.Embedder == "" {
		o.Embedder = DefaultEmbedder
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	return o
}

// Result is the outcome of Update. Fallback is non-nil when the existing
// document was discarded and Data was built fresh.
type Result struct {
	Data     []byte
	Fallback *ParseError
}

// Parse decodes raw and returns the document when it is rooted at BWFXML.
// Any other outcome is a *ParseError.
func Parse(raw []byte) (*etree.Document, error) {
	text := Decode(raw)
	if text == "" {
		return nil, &ParseError{Reason: ReasonEmpty}
	}
	doc := etree.NewDocument()
	// Text is already decoded, so a declared encoding needs no conversion.
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := doc.ReadFromString(text); err != nil {
		return nil, &ParseError{Reason: ReasonUnparseable, Err: err}
	}
	if err := checkTopLevel(doc); err != nil {
		return nil, &ParseError{Reason: ReasonUnparseable, Err: err}
	}
	root := doc.Root()
	if root.FullTag() != RootTag {
		return nil, &ParseError{Reason: ReasonWrongRoot, Root: root.FullTag()}
	}
	return doc, nil
}

// Update merges md into the existing document. USER and ASWG values named by
// md overwrite what is stored; everything else is preserved.
func Update(existing []byte, md *metadata.Metadata, opts Options) (Result, error) {
	opts = opts.normalized()
	doc, err := Parse(existing)
	if err != nil {
		var perr *ParseError
		if !errors.As(err, &perr) {
			return Result{}, err
		}
		data, berr := BuildFresh(md, opts)
		return Result{Data: data, Fallback: perr}, berr
	}
	root := doc.Root()
	setChildren(block(root, UserTag), md.UserFields(opts.Embedder), metadata.Overwrite)
	setChildren(block(root, ASWGTag), md.ASWGFields(), metadata.Overwrite)
	data, err := serialize(root)
	return Result{Data: data}, err
}

// BuildFresh creates a new document holding every value md carries.
func BuildFresh(md *metadata.Metadata, opts Options) ([]byte, error) {
	opts = opts.normalized()
	root := etree.NewElement(RootTag)
	root.CreateElement(VersionTag).SetText(opts.Version)
	setChildren(root.CreateElement(UserTag), md.UserFields(opts.Embedder), metadata.Overwrite)
	setChildren(root.CreateElement(ASWGTag), md.ASWGFields(), metadata.Overwrite)
	return serialize(root)
}

// Values returns the leaf children of the named block in document order.
func Values(doc *etree.Document, name string) []metadata.Field {
	if doc == nil || doc.Root() == nil {
		return nil
	}
	el := doc.Root().SelectElement(name)
	if el == nil {
		return nil
	}
	children := el.ChildElements()
	out := make([]metadata.Field, 0, len(children))
	for _, child := range children {
		out = append(out, metadata.Field{Tag: child.FullTag(), Value: child.Text()})
	}
	return out
}

// Lookup returns the text of block/tag and whether the element exists.
func Lookup(doc *etree.Document, name, tag string) (string, bool) {
	if doc == nil || doc.Root() == nil {
		return "", false
	}
	el := doc.Root().SelectElement(name)
	if el == nil {
		return "", false
	}
	child := el.SelectElement(tag)
	if child == nil {
		return "", false
	}
	return child.Text(), true
}

// checkTopLevel requires exactly one element at document level, with only
// whitespace, comments and processing instructions around it.
func checkTopLevel(doc *etree.Document) error {
	elements := 0
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			elements++
		case *etree.CharData:
			if !t.IsWhitespace() {
				return errors.New("text outside the document element")
			}
		}
	}
	switch {
	case elements == 0:
		return errors.New("no root element")
	case elements > 1:
		return errors.New("junk after document element")
	}
	return nil
}

func block(root *etree.Element, name string) *etree.Element {
	if el := root.SelectElement(name); el != nil {
		return el
	}
	return root.CreateElement(name)
}

func setChildren(parent *etree.Element, fields []metadata.Field, strategy metadata.MergeStrategy) {
	for _, f := range fields {
		child := parent.SelectElement(f.Tag)
		if !strategy.ShouldWrite(child != nil) {
			continue
		}
		if child == nil {
			child = parent.CreateElement(f.Tag)
		}
		child.SetText(f.Value)
	}
}

func serialize(root *etree.Element) ([]byte, error) {
	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	out.SetRoot(root)
	indent := etree.NewIndentSettings()
	indent.Spaces = 2
	indent.PreserveLeafWhitespace = true
	out.IndentWithSettings(indent)
	data, err := out.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize ixml: %w", err)
	}
	return data, nil
}
