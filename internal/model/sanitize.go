package model

import (
	"strings"
	"unicode/utf8"
)

// XMLPlaceholder replaces characters that must not appear in a tree dump.
const XMLPlaceholder = '.'

// discouraged lists the XML 1.1 discouraged code point ranges
// (https://www.w3.org/TR/xml11/#charsets), inclusive.
var discouraged = [][2]rune{
	{0x1, 0x8}, {0xB, 0xC}, {0xE, 0x1F}, {0x7F, 0x84}, {0x86, 0x9F}, {0xFDD0, 0xFDDF},
	{0x1FFFE, 0x1FFFF}, {0x2FFFE, 0x2FFFF}, {0x3FFFE, 0x3FFFF}, {0x4FFFE, 0x4FFFF},
	{0x5FFFE, 0x5FFFF}, {0x6FFFE, 0x6FFFF}, {0x7FFFE, 0x7FFFF}, {0x8FFFE, 0x8FFFF},
	{0x9FFFE, 0x9FFFF}, {0xAFFFE, 0xAFFFF}, {0xBFFFE, 0xBFFFF}, {0xCFFFE, 0xCFFFF},
	{0xDFFFE, 0xDFFFF}, {0xEFFFE, 0xEFFFF}, {0xFFFFE, 0xFFFFF}, {0x10FFFE, 0x10FFFF},
}

func isDiscouraged(r rune) bool {
	for _, rg := range discouraged {
		if r < rg[0] {
			return false
		}
		if r <= rg[1] {
			return true
		}
	}
	return false
}

// SanitizeXML replaces every discouraged character in s with XMLPlaceholder.
// All other bytes are copied through unchanged.
func SanitizeXML(s string) string {
	if strings.IndexFunc(s, isDiscouraged) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isDiscouraged(r) {
			b.WriteRune(XMLPlaceholder)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
