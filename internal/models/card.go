package models

// Display languages used by the dataset and the CLI.
const (
	LangCzech     = "cz"
	LangUkrainian = "ua"
)

// TranslationRecord is a single flashcard's two language variants.
// Primary is Czech, secondary is Ukrainian.
type TranslationRecord struct {
	PrimaryText            string
	PrimaryTranscription   string
	SecondaryText          string
	SecondaryTranscription string
}

// Card is a TranslationRecord plus the image identifier it is shown with.
// The image is passed through untouched.
type Card struct {
	TranslationRecord
	Image string
}

// Side is one language variant of a card as it is displayed.
type Side struct {
	Language      string // display language code: cz or ua
	Text          string
	Transcription string
}

// Sides returns the card's two sides in display order for the given
// display language. Ukrainian readers see the Ukrainian side first,
// everyone else the Czech side.
func (c Card) Sides(displayLang string) (first, second Side) {
	cz := Side{Language: LangCzech, Text: c.PrimaryText, Transcription: c.PrimaryTranscription}
	ua := Side{Language: LangUkrainian, Text: c.SecondaryText, Transcription: c.SecondaryTranscription}

	if displayLang == LangUkrainian {
		return ua, cz
	}
	return cz, ua
}

// Category is a named, ordered list of cards.
type Category struct {
	Name  string
	Cards []Card
}

// Records returns the category's translation records in card order.
func (c Category) Records() []TranslationRecord {
	records := make([]TranslationRecord, 0, len(c.Cards))
	for _, card := range c.Cards {
		records = append(records, card.TranslationRecord)
	}
	return records
}
