package camelxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"maps"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/i2y/camelconv/internal/domain"
)

const xmlnsPrefix = "xmlns"

// Namespaces is the document-wide prefix to URI map collected before any
// element is classified. The empty prefix holds the default namespace.
type Namespaces struct {
	prefixes map[string]string
	uris     map[string]struct{}
	fallback string
}

// ResolveNamespaces scans every start element of data and records each xmlns
// and xmlns:prefix declaration. The first declaration of a prefix wins. When
// the document declares nothing, the default namespace falls back to
// fallback.
func ResolveNamespaces(data []byte, fallback string) (*Namespaces, error) {
	ns := &Namespaces{
		prefixes: make(map[string]string),
		uris:     make(map[string]struct{}),
		fallback: fallback,
	}

	dec := newDecoder(data)
	sawElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.DocumentMalformedError{Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		for _, a := range se.Attr {
			switch {
			case a.Name.Space == xmlnsPrefix:
				ns.declare(a.Name.Local, a.Value)
			case a.Name.Space == "" && a.Name.Local == xmlnsPrefix:
				ns.declare("", a.Value)
			}
		}
	}
	if !sawElement {
		return nil, &domain.DocumentMalformedError{Err: errors.New("no root element")}
	}

	if len(ns.prefixes) == 0 {
		ns.prefixes[""] = fallback
		ns.uris[fallback] = struct{}{}
	}
	return ns, nil
}

func (n *Namespaces) declare(prefix, uri string) {
	if _, exists := n.prefixes[prefix]; exists {
		return
	}
	n.prefixes[prefix] = uri
	n.uris[uri] = struct{}{}
}

// lookup returns the URI bound to prefix anywhere in the document.
func (n *Namespaces) lookup(prefix string) (string, bool) {
	uri, ok := n.prefixes[prefix]
	return uri, ok
}

// Resolve returns the namespace URI of an element name produced by
// encoding/xml. Names the decoder already bound are returned unchanged; an
// unqualified name takes the document default; a prefix that was unbound in
// scope is looked up in the document-wide map and otherwise takes the
// fallback.
func (n *Namespaces) Resolve(name xml.Name) string {
	if name.Space == "" {
		if uri, ok := n.lookup(""); ok {
			return uri
		}
		return n.fallback
	}
	if _, ok := n.uris[name.Space]; ok || strings.Contains(name.Space, ":") {
		return name.Space
	}
	if uri, ok := n.lookup(name.Space); ok {
		return uri
	}
	return n.fallback
}

// Map returns a copy of the document-wide prefix map.
func (n *Namespaces) Map() map[string]string {
	return maps.Clone(n.prefixes)
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}
