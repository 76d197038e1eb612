// Package cellref converts between A1-style cell references and zero-based
// row/column coordinates.
package cellref

import (
	"fmt"
	"math"
	"strings"
)

// maxOrdinal is the largest 1-based row or column number that still maps to
// a uint32 index.
const maxOrdinal = math.MaxUint32 + 1

// Address is a zero-based cell position.
type Address struct {
	Row uint32
	Col uint32
}

// String returns the canonical A1 form of the address.
func (a Address) String() string {
	return Encode(a)
}

// Less orders addresses row-major.
func (a Address) Less(b Address) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// Decode parses an A1 reference such as "B12" or "aa3". It reports false when
// the text is not a run of ASCII letters followed by a run of ASCII digits, when
// either run is empty, or when the row is zero.
func Decode(text string) (Address, bool) {
	i := 0
	var col uint64
	for i < len(text) && isLetter(text[i]) {
		col = col*26 + uint64(upper(text[i])-'A'+1)
		if col > maxOrdinal {
			return Address{}, false
		}
		i++
	}
	if i == 0 || i == len(text) {
		return Address{}, false
	}

	var row uint64
	for j := i; j < len(text); j++ {
		c := text[j]
		if c < '0' || c > '9' {
			return Address{}, false
		}
		row = row*10 + uint64(c-'0')
		if row > maxOrdinal {
			return Address{}, false
		}
	}
	if row == 0 {
		return Address{}, false
	}

	return Address{Row: uint32(row - 1), Col: uint32(col - 1)}, true
}

// MustDecode is like Decode but panics on invalid input. Intended for
// constants and tests.
func MustDecode(text string) Address {
	a, ok := Decode(text)
	if !ok {
		panic(fmt.Sprintf("cellref: invalid reference %q", text))
	}
	return a
}

// Encode renders the address in upper-case A1 form.
func Encode(a Address) string {
	return fmt.Sprintf("%s%d", ColumnName(a.Col), uint64(a.Row)+1)
}

// ColumnName returns the letter sequence for a zero-based column index.
func ColumnName(col uint32) string {
	n := uint64(col) + 1
	var buf [8]byte
	pos := len(buf)
	for n > 0 {
		n--
		pos--
		buf[pos] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[pos:])
}

// Normalize trims and upper-cases a reference without validating it.
func Normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
