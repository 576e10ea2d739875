// Package dc edits OAI Dublin Core records. It exists so the handle
// reconciler's XML mutations stay isolated and testable against literal
// fixtures.
package dc

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

const (
	// HandlePrefix is the scheme+host every handle identifier starts with.
	HandlePrefix = "http://hdl.handle.net"

	// ElementsNamespace is the Dublin Core elements namespace URI.
	ElementsNamespace = "http://purl.org/dc/elements/1.1/"

	// ContainerNamespace is the OAI Dublin Core container namespace URI
	// the oai_dc:dc root must live in.
	ContainerNamespace = "http://www.openarchives.org/OAI/2.0/oai_dc/"
)

// Document wraps a parsed oai_dc:dc record.
type Document struct {
	doc  *etree.Document
	root *etree.Element
}

// Parse reads an OAI Dublin Core record. The root element must be
// oai_dc:dc; anything else is rejected before any edit is attempted.
func Parse(content []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, errors.Wrap(err, "parse DC record")
	}
	root := doc.Root()
	if root == nil || root.Tag != "dc" || root.NamespaceURI() != ContainerNamespace {
		return nil, errors.New("DC record has no oai_dc:dc root element")
	}
	return &Document{doc: doc, root: root}, nil
}

// identifiers returns the dc:identifier child elements in document order.
func (d *Document) identifiers() []*etree.Element {
	var out []*etree.Element
	for _, el := range d.root.ChildElements() {
		if el.Tag == "identifier" && el.NamespaceURI() == ElementsNamespace {
			out = append(out, el)
		}
	}
	return out
}

// HandleIdentifier returns the text of the first handle-bearing
// dc:identifier, if any.
func (d *Document) HandleIdentifier() (string, bool) {
	for _, el := range d.identifiers() {
		if hasHandlePrefix(el.Text()) {
			return el.Text(), true
		}
	}
	return "", false
}

// SetHandleIdentifier ensures the record carries a dc:identifier whose text
// is exactly handleURL. An existing handle identifier is replaced in place
// (new element inserted before the stale one, stale one removed, sibling
// order preserved); only the first match is touched so a record with
// accumulated duplicates converges one identifier per call. When no handle
// identifier exists a new one is appended as the last child. Returns true
// when the document changed.
func (d *Document) SetHandleIdentifier(handleURL string) bool {
	for _, el := range d.identifiers() {
		if !hasHandlePrefix(el.Text()) {
			continue
		}
		if el.Text() == handleURL {
			return false
		}
		fresh := d.newIdentifier(el.Space, handleURL)
		d.root.InsertChildAt(el.Index(), fresh)
		d.root.RemoveChild(el)
		return true
	}
	d.root.AddChild(d.newIdentifier(d.elementsPrefix(), handleURL))
	return true
}

// RemoveIdentifier deletes every dc:identifier whose text equals url
// exactly. Returns true when at least one was removed.
func (d *Document) RemoveIdentifier(url string) bool {
	removed := false
	for _, el := range d.identifiers() {
		if el.Text() == url {
			d.root.RemoveChild(el)
			removed = true
		}
	}
	return removed
}

// Bytes serializes the record with two-space indentation. Whitespace-only
// text between elements is rewritten, which keeps repeated
// parse-edit-serialize cycles diff-stable.
func (d *Document) Bytes() ([]byte, error) {
	d.doc.Indent(2)
	out, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "serialize DC record")
	}
	return out, nil
}

// newIdentifier builds a dc:identifier element under the given prefix. An
// empty prefix means the stale identifier relied on a default namespace
// declaration, so the replacement does too.
func (d *Document) newIdentifier(prefix, text string) *etree.Element {
	tag := "identifier"
	if prefix != "" {
		tag = prefix + ":identifier"
	}
	el := etree.NewElement(tag)
	el.SetText(text)
	return el
}

// elementsPrefix returns the prefix bound to the DC elements namespace,
// declaring the conventional "dc" binding on the root if the record has
// none.
func (d *Document) elementsPrefix() string {
	for _, attr := range d.root.Attr {
		if attr.Space == "xmlns" && attr.Value == ElementsNamespace {
			return attr.Key
		}
	}
	d.root.CreateAttr("xmlns:dc", ElementsNamespace)
	return "dc"
}

func hasHandlePrefix(text string) bool {
	return strings.HasPrefix(text, HandlePrefix)
}
