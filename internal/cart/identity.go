package cart

import (
	"errors"
	"strings"
)

// Key identifies one cart line: a product plus its selected size and color.
type Key string

const (
	keySep    = '|'
	keyEscape = '\\'
)

var ErrMalformedKey = errors.New("malformed cart key")

// DeriveIdentity builds the key for (productID, size, color). Each field is
// escaped before joining, so the separator can never be forged by free-text
// size or color values and distinct triples never share a key. An unselected
// axis must be passed as "" and stays distinct from every selected value.
func DeriveIdentity(productID, size, color string) Key {
	var b strings.Builder
	b.Grow(len(productID) + len(size) + len(color) + 2)
	writeEscaped(&b, productID)
	b.WriteByte(keySep)
	writeEscaped(&b, size)
	b.WriteByte(keySep)
	writeEscaped(&b, color)
	return Key(b.String())
}

func writeEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == keySep || c == keyEscape {
			b.WriteByte(keyEscape)
		}
		b.WriteByte(c)
	}
}

// ParseKey is the inverse of DeriveIdentity.
func ParseKey(k Key) (productID, size, color string, err error) {
	fields := make([]string, 0, 3)
	var cur strings.Builder
	s := string(k)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case keyEscape:
			if i+1 >= len(s) {
				return "", "", "", ErrMalformedKey
			}
			i++
			if s[i] != keySep && s[i] != keyEscape {
				return "", "", "", ErrMalformedKey
			}
			cur.WriteByte(s[i])
		case keySep:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	if len(fields) != 3 || fields[0] == "" {
		return "", "", "", ErrMalformedKey
	}
	return fields[0], fields[1], fields[2], nil
}
