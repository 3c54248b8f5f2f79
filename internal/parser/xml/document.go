// Package xmlparser builds a small navigable tree from an XML payload and
// lets callers address elements by the namespace prefixes the document
// declares ("are:Odpoved/D:VBAS"). It is tuned for the short, loosely typed
// answers of registry services: missing elements read as empty strings rather
// than errors, so field extraction code stays flat.
package xmlparser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyDocument is returned by Parse for an empty or whitespace-only body.
var ErrEmptyDocument = errors.New("xmlparser: empty document")

// Document is a parsed XML payload.
type Document struct {
	Root *Node

	// Namespaces maps each declared prefix to its namespace URL. When a
	// prefix is declared more than once the first declaration wins.
	Namespaces map[string]string
}

// Node is one element. All methods are nil-safe so lookups can be chained
// through missing elements.
type Node struct {
	Space    string // resolved namespace URL
	Local    string
	Attrs    []xml.Attr
	Children []*Node

	text strings.Builder
	doc  *Document
}

// Parse reads a whole XML document. Malformed or empty input is an error.
func Parse(b []byte) (*Document, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, ErrEmptyDocument
	}

	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.CharsetReader = charsetReader

	doc := &Document{Namespaces: map[string]string{}}
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmlparser: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Space: t.Name.Space, Local: t.Name.Local, doc: doc}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" {
					if _, seen := doc.Namespaces[a.Name.Local]; !seen {
						doc.Namespaces[a.Name.Local] = a.Value
					}
					continue
				}
				n.Attrs = append(n.Attrs, a)
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fmt.Errorf("xmlparser: multiple root elements")
				}
				doc.Root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if doc.Root == nil {
		return nil, ErrEmptyDocument
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("xmlparser: unclosed element %q", stack[len(stack)-1].Local)
	}
	return doc, nil
}

// Find returns the first element matching path relative to the root element,
// or nil.
func (d *Document) Find(path string) *Node {
	if d == nil {
		return nil
	}
	return d.Root.Find(path)
}

// FindAll returns every element matching path relative to the root element.
func (d *Document) FindAll(path string) []*Node {
	if d == nil {
		return nil
	}
	return d.Root.FindAll(path)
}

// Find returns the first descendant matching path, walking one level per
// segment, or nil. An invalid path matches nothing.
func (n *Node) Find(path string) *Node {
	all := n.FindAll(path)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// FindAll returns all descendants matching path in document order.
func (n *Node) FindAll(path string) []*Node {
	if n == nil {
		return nil
	}
	spec, err := parsePathSpec(path)
	if err != nil {
		return nil
	}
	ms := spec.resolve(n.doc.Namespaces)

	level := []*Node{n}
	for _, m := range ms {
		var next []*Node
		for _, cur := range level {
			for _, c := range cur.Children {
				if m.matches(c) {
					next = append(next, c)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		level = next
	}
	return level
}

// Text returns the element's character data with surrounding whitespace
// removed, or "" for a nil node.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.text.String())
}

// Value is shorthand for n.Find(path).Text().
func (n *Node) Value(path string) string {
	return n.Find(path).Text()
}

// Attr returns the value of the unqualified attribute name, or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// charsetReader handles the legacy Central European encodings some registry
// endpoints still declare.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "windows-1250", "cp1250":
		return charmap.Windows1250.NewDecoder().Reader(input), nil
	case "iso-8859-2", "latin2":
		return charmap.ISO8859_2.NewDecoder().Reader(input), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}
