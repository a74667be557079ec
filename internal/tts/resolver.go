package tts

import (
	"fmt"
	"strings"
)

// Endpoint is the speech-synthesis resource the locators point at.
const Endpoint = "https://translate.google.com/translate_tts"

// Locator identifies a playable audio resource.
type Locator string

// String returns the locator as a plain string
func (l Locator) String() string {
	return string(l)
}

// markup wrappers the flashcard texts may carry for emphasis
var markupStripper = strings.NewReplacer("<strong>", "", "</strong>", "")

// Resolve builds the locator for speaking text in the given two-letter
// language code. All emphasis wrappers are removed before encoding.
func Resolve(languageCode, text string) Locator {
	return Locator(fmt.Sprintf("%s?tl=%s&q=%s&client=tw-ob",
		Endpoint, languageCode, EncodeComponent(StripMarkup(text))))
}

// StripMarkup removes every <strong> and </strong> token from text.
func StripMarkup(text string) string {
	return markupStripper.Replace(text)
}

// SpeechLanguage converts a display language code into the code the
// speech endpoint expects. Codes already in speech form pass through.
func SpeechLanguage(displayLang string) string {
	switch displayLang {
	case "cz":
		return "cs"
	case "ua":
		return "uk"
	default:
		return displayLang
	}
}

// EncodeComponent percent-encodes s byte by byte the same way browsers
// encode a URI component: letters, digits and -_.!~*'() stay as they are,
// everything else becomes %XX.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
