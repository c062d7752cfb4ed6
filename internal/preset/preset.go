// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preset reads and writes synthesizer preset files.
//
// A preset is an XML document whose parameter elements carry an identifier
// attribute and a value attribute, e.g. <PARAM uid="osc1volume" val="0.5"/>.
// Document exposes those elements as typed records so the rewriter can work
// without touching XML. Writing splices the new values into the bytes the
// document was read from; everything outside the rewritten value attributes
// (comments, CDATA, quoting, line endings, character references) comes back
// byte for byte.
// Implements: docs/ARCHITECTURE § Preset Documents.
package preset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"github.com/google/renameio/v2"

	"github.com/pdiddy/preset-migrate/pkg/types"
)

// Document is a parsed preset file.
type Document struct {
	tree   *etree.Document
	cfg    types.DocumentConfig
	src    []byte
	params []param
	digest string
}

// param is an identified element and the location of its value attribute
// in src.
type param struct {
	elem *etree.Element
	// value is the byte range of the attribute value between its quotes.
	// When the attribute is absent, start == end is the insertion point
	// before the end of the start tag.
	start, end int
	quote      byte
	present    bool
	// set holds the rewritten value, if any.
	set *string
}

// span is the byte range of a start tag in src.
type span struct{ start, end int }

// Load reads and parses the preset at path.
func Load(path string, cfg types.DocumentConfig) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", path, err)
	}
	doc, err := parse(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing preset %s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a preset document from r.
func Parse(r io.Reader, cfg types.DocumentConfig) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading preset: %w", err)
	}
	return parse(data, cfg)
}

func parse(data []byte, cfg types.DocumentConfig) (*Document, error) {
	if cfg.IdentifierAttr == "" || cfg.ValueAttr == "" {
		return nil, fmt.Errorf("identifier and value attribute names are required")
	}

	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("no root element")
	}

	tags, err := startTags(data)
	if err != nil {
		return nil, err
	}

	d := &Document{tree: tree, cfg: cfg, src: data, digest: Digest(data)}
	n := 0
	if err := d.collect(&tree.Element, tags, &n); err != nil {
		return nil, err
	}
	if n != len(tags) {
		return nil, fmt.Errorf("found %d start tags for %d elements", len(tags), n)
	}
	return d, nil
}

// startTags returns the byte range of every start tag in data, in document
// order.
func startTags(data []byte) ([]span, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var tags []span
	for {
		start := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return tags, nil
		}
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.StartElement); ok {
			tags = append(tags, span{start: start, end: int(dec.InputOffset())})
		}
	}
}

// collect appends every descendant of e with a non-empty identifier, in
// document order. n counts the elements visited so far and indexes tags.
func (d *Document) collect(e *etree.Element, tags []span, n *int) error {
	for _, child := range e.ChildElements() {
		if *n >= len(tags) {
			return fmt.Errorf("element %s has no start tag", child.Tag)
		}
		tag := tags[*n]
		*n++

		if a := child.SelectAttr(d.cfg.IdentifierAttr); a != nil && a.Value != "" {
			p := param{elem: child}
			raw := d.src[tag.start:tag.end]
			if vs, ve, q, ok := findAttr(raw, d.cfg.ValueAttr); ok {
				p.start, p.end, p.quote, p.present = tag.start+vs, tag.start+ve, q, true
			} else {
				p.start = tag.end - len(tagClose(raw))
				p.end = p.start
			}
			d.params = append(d.params, p)
		}
		if err := d.collect(child, tags, n); err != nil {
			return err
		}
	}
	return nil
}

// findAttr locates the value of attribute name in the raw start tag and
// returns its byte range and quote character. The last occurrence wins.
func findAttr(tag []byte, name string) (start, end int, quote byte, ok bool) {
	i := 1
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	for {
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] == '>' || tag[i] == '/' {
			return start, end, quote, ok
		}
		ks := i
		for i < len(tag) && tag[i] != '=' && !isSpace(tag[i]) {
			i++
		}
		key := string(tag[ks:i])
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			return start, end, quote, ok
		}
		i++
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || (tag[i] != '"' && tag[i] != '\'') {
			return start, end, quote, ok
		}
		q := tag[i]
		i++
		vs := i
		for i < len(tag) && tag[i] != q {
			i++
		}
		if key == name {
			start, end, quote, ok = vs, i, q, true
		}
		i++
	}
}

// tagClose returns the closing delimiter of a raw start tag.
func tagClose(tag []byte) string {
	if bytes.HasSuffix(tag, []byte("/>")) {
		return "/>"
	}
	return ">"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Parameters returns the identified elements as records, in document order.
func (d *Document) Parameters() []types.Parameter {
	params := make([]types.Parameter, len(d.params))
	for i, p := range d.params {
		params[i] = types.Parameter{
			ID:    p.elem.SelectAttrValue(d.cfg.IdentifierAttr, ""),
			Value: p.elem.SelectAttrValue(d.cfg.ValueAttr, ""),
		}
	}
	return params
}

// SetValue overwrites the value attribute of the i-th parameter. The
// attribute keeps its position and quoting; a missing attribute is appended
// to the start tag.
func (d *Document) SetValue(i int, value string) {
	d.params[i].elem.CreateAttr(d.cfg.ValueAttr, value)
	d.params[i].set = &value
}

// SourceSHA256 returns the hex SHA-256 of the bytes the document was parsed from.
func (d *Document) SourceSHA256() string {
	return d.digest
}

// WriteTo serializes the document to w: the source bytes with every value
// set through SetValue spliced in.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	prev := 0
	for _, p := range d.params {
		if p.set == nil {
			continue
		}
		buf.Write(d.src[prev:p.start])
		if p.present {
			escapeAttr(&buf, *p.set, p.quote)
		} else {
			buf.WriteByte(' ')
			buf.WriteString(d.cfg.ValueAttr)
			buf.WriteString(`="`)
			escapeAttr(&buf, *p.set, '"')
			buf.WriteByte('"')
		}
		prev = p.end
	}
	buf.Write(d.src[prev:])
	return buf.WriteTo(w)
}

// escapeAttr writes s as attribute text delimited by quote.
func escapeAttr(buf *bytes.Buffer, s string, quote byte) {
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '"':
			if quote == '"' {
				buf.WriteString("&quot;")
			} else {
				buf.WriteRune(r)
			}
		case '\'':
			if quote == '\'' {
				buf.WriteString("&apos;")
			} else {
				buf.WriteRune(r)
			}
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serializing preset: %w", err)
	}
	return buf.Bytes(), nil
}

// Save replaces the file at path with data. The data is written to a
// temporary file in the same directory and renamed over path, so path holds
// either the old or the new content, never a partial write. The existing
// file mode is kept.
func Save(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat preset %s: %w", path, err)
	}

	if err := renameio.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("writing preset %s: %w", path, err)
	}
	return nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
