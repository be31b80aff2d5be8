package platform

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ContentLength counts the characters a platform will charge for the content.
// Text is NFC-normalized first so composed and decomposed forms of the same
// character count identically.
func ContentLength(content string) int {
	return utf8.RuneCountInString(norm.NFC.String(content))
}
