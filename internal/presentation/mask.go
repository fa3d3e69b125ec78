package presentation

import (
	"strings"
	"unicode/utf8"
)

const (
	nameVisibleRunes = 3
	docVisibleDigits = 4
)

// MaskName keeps the first three letters of each word and hides the rest,
// so "Maria Lopez" becomes "Mar** Lop**".
func MaskName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		if utf8.RuneCountInString(w) <= nameVisibleRunes {
			continue
		}
		runes := []rune(w)
		words[i] = string(runes[:nameVisibleRunes]) + strings.Repeat("*", len(runes)-nameVisibleRunes)
	}
	return strings.Join(words, " ")
}

// MaskDocument hides all but the last four characters of an identity
// document. An empty document is rendered as "NN-****".
func MaskDocument(doc string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return "NN-" + strings.Repeat("*", docVisibleDigits)
	}
	runes := []rune(doc)
	if len(runes) <= docVisibleDigits {
		return doc
	}
	return strings.Repeat("*", len(runes)-docVisibleDigits) + string(runes[len(runes)-docVisibleDigits:])
}

// UnidentifiedName is shown for patients registered without a name.
func UnidentifiedName(id string) string {
	if len(id) > 2 {
		id = id[:2]
	}
	return strings.ToUpper(id) + " - ***********"
}
