package xmlstream

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<!-- keep me -->
<x:root xmlns:x="urn:x" a='1'  b="two &amp; three">
  <x:item id="1"/>
  <x:item id="2">text &lt;here&gt;<![CDATA[raw <stuff>]]></x:item>
  <?pi data?>
</x:root>
`

func collect(t *testing.T, data string) []Token {
	t.Helper()
	s := NewScanner([]byte(data))
	var toks []Token
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return toks
		}
		require.NoError(t, err)
		toks = append(toks, tok)
	}
}

func TestRawConcatenationReproducesInput(t *testing.T) {
	var buf bytes.Buffer
	for _, tok := range collect(t, sample) {
		buf.Write(tok.Raw)
	}
	assert.Equal(t, sample, buf.String())
}

func TestSelfClosingStart(t *testing.T) {
	toks := collect(t, `<a><b k="v"/><c></c></a>`)
	require.Len(t, toks, 6)

	b := toks[1]
	se, ok := b.Token.(xml.StartElement)
	require.True(t, ok)
	assert.Equal(t, "b", se.Name.Local)
	assert.True(t, b.SelfClosing)
	assert.Equal(t, `<b k="v"/>`, string(b.Raw))

	end := toks[2]
	_, ok = end.Token.(xml.EndElement)
	require.True(t, ok)
	assert.Empty(t, end.Raw)

	assert.False(t, toks[3].SelfClosing)
}

func TestPrefixesAreNotResolved(t *testing.T) {
	toks := collect(t, `<x:a xmlns:x="urn:x" r:id="rId1" r="B2"/>`)
	se := toks[0].Token.(xml.StartElement)
	assert.Equal(t, "x", se.Name.Space)

	v, ok := PrefixedAttr(se, "r", "id")
	require.True(t, ok)
	assert.Equal(t, "rId1", v)

	v, ok = Attr(se, "r")
	require.True(t, ok)
	assert.Equal(t, "B2", v)

	_, ok = Attr(se, "missing")
	assert.False(t, ok)
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Mismatched", `<a><b></a>`},
		{"Unclosed", `<a><b></b>`},
		{"Stray end", `</a>`},
		{"Garbage", `<a <<>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner([]byte(tt.doc))
			var err error
			for err == nil {
				_, err = s.Next()
			}
			require.NotEqual(t, io.EOF, err)
			var se *SyntaxError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestWriteStartRoundTrip(t *testing.T) {
	toks := collect(t, `<x:c r="A1" s="3" t="s"/>`)
	se := toks[0].Token.(xml.StartElement)

	var buf bytes.Buffer
	WriteStart(&buf, se, true)
	assert.Equal(t, `<x:c r="A1" s="3" t="s"/>`, buf.String())

	buf.Reset()
	WriteStart(&buf, se, false)
	WriteEnd(&buf, se.Name)
	assert.Equal(t, `<x:c r="A1" s="3" t="s"></x:c>`, buf.String())
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot; &apos;e&apos;", EscapeString(`a & b <c> "d" 'e'`))
	assert.Equal(t, "tab\there\nnew", EscapeString("tab\there\nnew"))
	assert.Equal(t, "cr&#xD;", EscapeString("cr\r"))
	assert.Equal(t, "bell�", EscapeString("bell\x07"))
	assert.Equal(t, "bad�", EscapeString("bad\xff"))
	assert.Equal(t, "héllo 日本", EscapeString("héllo 日本"))
}
