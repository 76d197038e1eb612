// Package xmlstream walks an XML document token by token while keeping the
// exact source bytes of every token, so callers can copy untouched markup
// verbatim and re-serialize only what they change.
package xmlstream

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"unicode/utf8"
)

// Token is one raw token together with the bytes it was read from.
type Token struct {
	xml.Token
	// Raw is the exact source text. It is empty for the synthetic end
	// element that follows a self-closing start element.
	Raw []byte
	// SelfClosing is set on a start element written as <x/>.
	SelfClosing bool
	// Offset is the byte offset of Raw within the document.
	Offset int64
}

// Scanner yields raw tokens. Namespace prefixes are reported as written, in
// Name.Space, and are never resolved.
type Scanner struct {
	data  []byte
	dec   *xml.Decoder
	prev  int64
	stack []xml.Name
}

// NewScanner returns a scanner over data.
func NewScanner(data []byte) *Scanner {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	return &Scanner{data: data, dec: dec}
}

// Depth returns the number of currently open elements.
func (s *Scanner) Depth() int {
	return len(s.stack)
}

// Next returns the next token, io.EOF at a well-formed end of input, or a
// *SyntaxError.
func (s *Scanner) Next() (Token, error) {
	tok, err := s.dec.RawToken()
	if err == io.EOF {
		if len(s.stack) > 0 {
			return Token{}, s.syntaxError(fmt.Sprintf("unexpected end of input inside <%s>", qname(s.stack[len(s.stack)-1])))
		}
		return Token{}, io.EOF
	}
	if err != nil {
		return Token{}, &SyntaxError{Offset: s.dec.InputOffset(), Err: err}
	}

	off := s.dec.InputOffset()
	t := Token{Token: tok, Raw: s.data[s.prev:off], Offset: s.prev}
	s.prev = off

	switch v := tok.(type) {
	case xml.StartElement:
		s.stack = append(s.stack, v.Name)
		t.SelfClosing = bytes.HasSuffix(t.Raw, []byte("/>"))
	case xml.EndElement:
		if len(s.stack) == 0 {
			return Token{}, s.syntaxError(fmt.Sprintf("unexpected </%s>", qname(v.Name)))
		}
		open := s.stack[len(s.stack)-1]
		if open != v.Name {
			return Token{}, s.syntaxError(fmt.Sprintf("element <%s> closed by </%s>", qname(open), qname(v.Name)))
		}
		s.stack = s.stack[:len(s.stack)-1]
	}
	return t, nil
}

func (s *Scanner) syntaxError(msg string) *SyntaxError {
	return &SyntaxError{Offset: s.prev, Err: fmt.Errorf("%s", msg)}
}

// SyntaxError reports a malformed document.
type SyntaxError struct {
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("xml syntax error at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// QName returns the prefixed name as written.
func QName(n xml.Name) string {
	return qname(n)
}

// Attr returns the value of the unprefixed attribute local.
func Attr(se xml.StartElement, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// PrefixedAttr returns the value of an attribute matching both prefix and
// local name, e.g. ("r", "id") for r:id.
func PrefixedAttr(se xml.StartElement, prefix, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Space == prefix && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// WriteStart serializes a start element with its attributes in order. When
// selfClose is set the element is written as <x .../>.
func WriteStart(buf *bytes.Buffer, se xml.StartElement, selfClose bool) {
	buf.WriteByte('<')
	buf.WriteString(qname(se.Name))
	for _, a := range se.Attr {
		buf.WriteByte(' ')
		buf.WriteString(qname(a.Name))
		buf.WriteString(`="`)
		Escape(buf, a.Value)
		buf.WriteByte('"')
	}
	if selfClose {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
}

// WriteEnd serializes an end element.
func WriteEnd(buf *bytes.Buffer, name xml.Name) {
	buf.WriteString("</")
	buf.WriteString(qname(name))
	buf.WriteByte('>')
}

// Escape writes s with the five predefined entities escaped. Characters that
// are not allowed in XML 1.0 are replaced with U+FFFD.
func Escape(buf *bytes.Buffer, s string) {
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		i += width
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		case '\r':
			buf.WriteString("&#xD;")
		case '\t', '\n':
			buf.WriteRune(r)
		default:
			if !isXMLChar(r) || (r == utf8.RuneError && width == 1) {
				buf.WriteRune('\uFFFD')
				continue
			}
			buf.WriteRune(r)
		}
	}
}

// EscapeString is Escape returning a string.
func EscapeString(s string) string {
	var buf bytes.Buffer
	Escape(&buf, s)
	return buf.String()
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
