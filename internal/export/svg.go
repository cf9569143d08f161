package export

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	svgNS   = "http://www.w3.org/2000/svg"
	xhtmlNS = "http://www.w3.org/1999/xhtml"
)

var errEmptySnapshot = errors.New("snapshot has no element")

// BuildSVG wraps a snapshot in an SVG foreignObject. The markup is
// re-serialized as XHTML so the result is well-formed XML.
func BuildSVG(snap DOMSnapshot) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.Markup))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		return nil, errEmptySnapshot
	}

	w := int(math.Ceil(snap.Width))
	h := int(math.Ceil(snap.Height))

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(bw, `<svg xmlns="%s" width="%d" height="%d" viewBox="0 0 %d %d">`, svgNS, w, h, w, h)
	fmt.Fprintf(bw, `<foreignObject x="0" y="0" width="%d" height="%d">`, w, h)
	fmt.Fprintf(bw, `<div xmlns="%s">`, xhtmlNS)
	for _, n := range root.Nodes {
		if err := writeXHTML(bw, n); err != nil {
			return nil, err
		}
	}
	bw.WriteString(`</div></foreignObject></svg>`)
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXHTML(w *bufio.Writer, n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		return xml.EscapeText(w, []byte(n.Data))
	case html.ElementNode:
	default:
		return nil
	}
	if n.DataAtom == atom.Script || n.DataAtom == atom.Noscript {
		return nil
	}

	w.WriteByte('<')
	w.WriteString(n.Data)
	for _, a := range n.Attr {
		if a.Namespace != "" || !validXMLName(a.Key) {
			continue
		}
		w.WriteByte(' ')
		w.WriteString(a.Key)
		w.WriteString(`="`)
		if err := xml.EscapeText(w, []byte(a.Val)); err != nil {
			return err
		}
		w.WriteByte('"')
	}
	if n.FirstChild == nil {
		_, err := w.WriteString("/>")
		return err
	}
	w.WriteByte('>')
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := writeXHTML(w, c); err != nil {
			return err
		}
	}
	w.WriteString("</")
	w.WriteString(n.Data)
	_, err := w.WriteString(">")
	return err
}

func validXMLName(s string) bool {
	if s == "" || strings.ContainsAny(s[:1], "-.0123456789") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// wellFormed reports whether b parses as XML.
func wellFormed(b []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(b))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
