// Package lang detects the language of family messages and renders localized replies.
package lang

import (
	"regexp"
	"strings"

	"github.com/ashureev/chorechat/internal/domain"
)

// swedishLetters never occur in English text, so any of them decides the language.
const swedishLetters = "åäöÅÄÖ"

var (
	englishWords = regexp.MustCompile(`(?i)\b(the|and|is|are|was|what|who|how|which|why|when|please|should|could|would|can|has|have|did|does|clean|cleans|wash|washes|tidy|vacuum|dishes|laundry|homework|room|tomorrow|today|tonight|week|month|points|task|tasks|chores?|kids|children|hello|hi|hey|thanks|thank|bye|goodbye|someone|anyone|every|with|for|this|that|his|her|their|my|our)\b`)
	swedishWords = regexp.MustCompile(`(?i)\b(och|jag|det|att|inte|med|som|har|kan|ska|vill|hur|vad|vem|vilken|varför|idag|imorgon|ikväll|vecka|veckan|månad|poäng|uppgift|uppgifter|sysslor|barnen|barn|hej|tack|hejdå|någon|alla|varje|den|denna|hans|hennes|deras|min|vår|städa|städar|diska|diskar|tvätta|tvättar|dammsuga|dammsuger|läxor|läxa|rummet|rum|gör|göra|snälla)\b`)
)

// Detect classifies an utterance as English, Swedish or unknown.
// Swedish letters are decisive; otherwise the language with more keyword hits wins.
func Detect(utterance string) domain.Language {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return domain.LanguageUnknown
	}
	if strings.ContainsAny(text, swedishLetters) {
		return domain.LanguageSwedish
	}

	en := len(englishWords.FindAllStringIndex(text, -1))
	sv := len(swedishWords.FindAllStringIndex(text, -1))
	switch {
	case sv > en:
		return domain.LanguageSwedish
	case en > sv:
		return domain.LanguageEnglish
	default:
		return domain.LanguageUnknown
	}
}
