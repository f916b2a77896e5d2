package writer

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"nomen/internal/bext"
	"nomen/internal/ixml"
	"nomen/internal/metadata"
	"nomen/internal/reader"
	"nomen/internal/riff"
)

// Result lists the mismatches found by VerifyWrite.
type Result struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// aswgChecked are the ASWG tags VerifyWrite compares. The remaining ASWG
// values mirror USER ones and are covered there.
var aswgChecked = map[string]bool{
	"category": true, "subCategory": true, "catId": true, "fxName": true,
	"creatorId": true, "sourceId": true, "library": true,
	"manufacturer": true, "recType": true,
}

// VerifyWrite re-reads path and checks that md's values landed. It never
// fails; read problems are reported as mismatches.
func VerifyWrite(path string, md *metadata.Metadata) Result {
	if md == nil {
		md = &metadata.Metadata{}
	}
	chunks, err := reader.Load(path)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("failed to read file: %v", err)}}
	}
	var errs []string
	errs = verifyBext(chunks, md, errs)

	var doc *etree.Document
	if chunks.IXML != nil {
		doc, _ = ixml.Parse(chunks.IXML)
	}
	errs = verifyUser(doc, md, errs)
	errs = verifyASWG(doc, md, errs)
	errs = verifyInfo(chunks, md, errs)
	return Result{OK: len(errs) == 0, Errors: errs}
}

func verifyBext(chunks *reader.Chunks, md *metadata.Metadata, errs []string) []string {
	if !md.NeedsBext() {
		return errs
	}
	if chunks.Bext == nil {
		return append(errs, "no bext chunk found in output file")
	}
	fields := bext.Unpack(chunks.Bext)
	check := func(label string, key metadata.Key, stored string, width int) {
		v, ok := md.Get(key)
		if !ok {
			return
		}
		want := strings.TrimSpace(bext.Expected(v, width))
		got := strings.TrimSpace(bext.Text(stored))
		if got != want {
			errs = append(errs, fmt.Sprintf("BEXT %s mismatch: expected %q, got %q", label, want, got))
		}
	}
	check("description", metadata.Description, fields.Description, bext.DescriptionSize)
	check("originator", metadata.Designer, fields.Originator, bext.OriginatorSize)
	return errs
}

func verifyUser(doc *etree.Document, md *metadata.Metadata, errs []string) []string {
	needed := false
	for _, m := range metadata.UserTags {
		if md.Has(m.Key) {
			needed = true
			break
		}
	}
	if !needed && len(md.CustomFields) == 0 {
		return errs
	}
	if doc == nil {
		return append(errs, "no readable iXML chunk found in output file")
	}
	if doc.Root().SelectElement(ixml.UserTag) == nil {
		return append(errs, "no <USER> block found in iXML")
	}
	for _, m := range metadata.UserTags {
		want, ok := md.Get(m.Key)
		if !ok {
			continue
		}
		got, found := ixml.Lookup(doc, ixml.UserTag, m.Tag)
		switch {
		case !found:
			errs = append(errs, fmt.Sprintf("USER field <%s> not found in iXML", m.Tag))
		case got != want:
			errs = append(errs, fmt.Sprintf("USER/<%s> mismatch: expected %q, got %q", m.Tag, want, got))
		}
	}
	for _, tag := range md.CustomTags() {
		want := md.CustomFields[tag]
		got, found := ixml.Lookup(doc, ixml.UserTag, tag)
		if !found || got != want {
			errs = append(errs, fmt.Sprintf("custom field <%s>: expected %q, got %q", tag, want, got))
		}
	}
	return errs
}

func verifyASWG(doc *etree.Document, md *metadata.Metadata, errs []string) []string {
	if doc == nil {
		return errs
	}
	for _, m := range metadata.ASWGTags {
		if !aswgChecked[m.Tag] {
			continue
		}
		want, ok := md.Get(m.Key)
		if !ok {
			continue
		}
		got, found := ixml.Lookup(doc, ixml.ASWGTag, m.Tag)
		if found && got != want {
			errs = append(errs, fmt.Sprintf("ASWG/<%s> mismatch: expected %q, got %q", m.Tag, want, got))
		}
	}
	return errs
}

// verifyInfo only requires that each INFO-mapped tag exists. INFO merges fill
// gaps, so an older value under the same tag is correct output.
func verifyInfo(chunks *reader.Chunks, md *metadata.Metadata, errs []string) []string {
	fields := md.InfoFields()
	if len(fields) == 0 {
		return errs
	}
	if chunks.Info == nil {
		return append(errs, "no LIST/INFO chunk found in output file")
	}
	for _, f := range fields {
		if !chunks.Info.Has(riff.MakeID(f.Tag)) {
			errs = append(errs, fmt.Sprintf("INFO %s missing: expected %q", f.Tag, bext.ASCII(f.Value)))
		}
	}
	return errs
}
