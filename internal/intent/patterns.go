package intent

import (
	"regexp"
	"strings"

	"github.com/ashureev/chorechat/internal/domain"
)

// Fallback confidences are squeezed into this band so a pattern verdict never
// outranks a healthy model answer.
const (
	fallbackMinConfidence = 0.3
	fallbackMaxConfidence = 0.8
)

type weightedPattern struct {
	regex  *regexp.Regexp
	weight float64
}

type patternSet map[domain.Intent][]weightedPattern

func p(expr string, weight float64) weightedPattern {
	return weightedPattern{regex: regexp.MustCompile(`(?i)` + expr), weight: weight}
}

// Go's \b only understands ASCII word characters, so Swedish words that begin or
// end in å, ä or ö are written without \b on that side.
var patternsByLanguage = map[domain.Language]patternSet{
	domain.LanguageEnglish: {
		domain.IntentCreateTasks: {
			p(`\b(clean|cleans|tidy|tidies|wash|washes|vacuum|vacuums|mow|mows|sweep|sweeps|dust|dusts|organi[sz]e|organi[sz]es|feed|feeds|walk|walks|take out|takes out|empty|empties|fold|folds|make|makes|do|does)\b.{0,40}\b(room|dishes|laundry|car|lawn|floor|kitchen|bathroom|trash|garbage|bins?|dog|cat|homework|bed|table|toys|clothes|garage)\b`, 1.2),
			p(`\b(create|add|make|set up|assign|schedule)\b.{0,20}\b(tasks?|chores?|jobs?)\b`, 1.2),
			p(`\b(homework|study|studies|practice|practices|dishes|laundry|vacuum)\b`, 0.8),
			p(`\b(for|worth)\s+\d+\s+points?\b`, 1.0),
			p(`\b(tomorrow|tonight|every (day|week|month)|daily|weekly|monthly|by (monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`, 0.6),
			p(`\bbonus\b`, 0.8),
		},
		domain.IntentAnalyzeData: {
			p(`\b(how (is|are|did|has|have)|how well)\b.{0,30}\b(doing|performing|done|progress(ing)?)\b`, 1.2),
			p(`\b(analy[sz]e|analysis|stats|statistics|trends?|compare|comparison|performance|progress|report|summary|insights?)\b`, 1.1),
			p(`\b(most|least|best|worst|top)\b.{0,20}\b(points?|tasks?|chores?|performer)\b`, 1.0),
			p(`\b(completion rate|this (week|month)|last (week|month))\b`, 0.6),
		},
		domain.IntentQueryTasks: {
			p(`\b(what|which)\b.{0,20}\b(tasks?|chores?)\b`, 1.1),
			p(`\b(show|list|view|see)\b.{0,20}\b(tasks?|chores?|overdue|pending)\b`, 1.2),
			p(`\b(overdue|pending|unfinished|left to do)\b`, 0.9),
			p(`\bwho\b.{0,20}\b(has|is doing|is assigned|needs to)\b`, 0.8),
			p(`\bhow many\b.{0,20}\b(tasks?|chores?|points?)\b`, 0.9),
		},
		domain.IntentGeneralChat: {
			p(`^\s*(hi|hello|hey|howdy|good (morning|afternoon|evening))\b`, 1.2),
			p(`\b(thanks|thank you|thx|cheers)\b`, 1.1),
			p(`\b(bye|goodbye|see you|good night)\b`, 1.1),
			p(`\bhow are you\b`, 1.0),
		},
		domain.IntentClarification: {
			p(`\b(help|what can you do|how does this work|how do i|what do you do)\b`, 1.0),
			p(`^\s*\?+\s*$`, 0.8),
		},
	},
	domain.LanguageSwedish: {
		domain.IntentCreateTasks: {
			p(`\b(städa|städar|tvätta|tvättar|diska|diskar|dammsuga|dammsuger|klippa|klipper|mata|matar|rasta|rastar|vika|viker|bädda|bäddar|plocka|plockar|tömma|tömmer|göra|gör)\b.{0,40}\b(rum|rummet|disken|tvätten|bilen|gräsmattan|golvet|köket|badrummet|soporna|hunden|katten|läxor|läxorna|sängen|bordet|leksakerna|kläderna|garaget)\b`, 1.2),
			p(`\b(skapa|lägg till|lägga till|tilldela|schemalägg)\b.{0,20}\b(uppgift|uppgifter|syssla|sysslor|jobb)\b`, 1.2),
			p(`(\bläxor\b|\bläxa\b|\bplugga\b|\bpluggar\b|övar?\b|\bdiska\b|\bdammsuga\b)`, 0.8),
			p(`\b(för|värd)\s+\d+\s+poäng\b`, 1.0),
			p(`\b(imorgon|i morgon|ikväll|varje (dag|vecka|månad)|dagligen|veckovis|månadsvis)`, 0.6),
			p(`\bbonus\b`, 0.8),
		},
		domain.IntentAnalyzeData: {
			p(`\bhur (går det|har det gått|bra)`, 1.2),
			p(`\b(analysera|analys|statistik|trender|trend|jämför|jämförelse|prestation|framsteg|rapport|sammanfattning|insikter|insikt)\b`, 1.1),
			p(`\b(flest|minst|bäst|sämst|mest)\b.{0,20}\b(poäng|uppgifter|sysslor)\b`, 1.0),
			p(`\b(denna|förra) (veckan?|månaden?)\b`, 0.6),
		},
		domain.IntentQueryTasks: {
			p(`\b(vilka|vad)\b.{0,20}\b(uppgift|uppgifter|syssla|sysslor)\b`, 1.1),
			p(`\b(visa|lista|se)\b.{0,20}\b(uppgift|uppgifter|sysslor|försenade|kvar)\b`, 1.2),
			p(`\b(försenade|försenad|kvar att göra|ogjorda|väntande)`, 0.9),
			p(`\bvem\b.{0,20}\b(har|ska|gör)\b`, 0.8),
			p(`\bhur många\b.{0,20}\b(uppgift|uppgifter|sysslor|poäng)\b`, 0.9),
		},
		domain.IntentGeneralChat: {
			p(`^\s*(hej|hallå|tjena|god (morgon|kväll|middag))`, 1.2),
			p(`\b(tack|tackar)\b`, 1.1),
			p(`\b(hejdå|hej då|vi ses|god natt)`, 1.1),
			p(`\bhur mår du`, 1.0),
		},
		domain.IntentClarification: {
			p(`\b(hjälp|vad kan du|hur fungerar|hur gör jag)`, 1.0),
			p(`^\s*\?+\s*$`, 0.8),
		},
	},
}

// Fallback classifies utterance with keyword patterns only. It always answers,
// with confidence in [0.3, 0.8]. Unknown language consults both vocabularies.
func Fallback(utterance string, language domain.Language) domain.IntentAnalysis {
	scores := make(map[domain.Intent]float64)
	matchCounts := make(map[domain.Intent]int)

	sets := []patternSet{patternsByLanguage[language]}
	if language != domain.LanguageEnglish && language != domain.LanguageSwedish {
		sets = []patternSet{patternsByLanguage[domain.LanguageEnglish], patternsByLanguage[domain.LanguageSwedish]}
	}
	text := strings.TrimSpace(utterance)
	for _, set := range sets {
		for in, patterns := range set {
			for _, wp := range patterns {
				if wp.regex.MatchString(text) {
					scores[in] += wp.weight
					matchCounts[in]++
				}
			}
		}
	}

	result := domain.IntentAnalysis{
		Intent:           domain.IntentClarification,
		Confidence:       fallbackMinConfidence,
		Reasoning:        "no keyword pattern matched",
		DetectedLanguage: language,
		Fallback:         true,
	}

	var best domain.Intent
	var bestScore, totalScore float64
	// Iterate in enum order so equal scores resolve deterministically.
	for _, in := range domain.Intents {
		score := scores[in]
		totalScore += score
		if score > bestScore {
			bestScore = score
			best = in
		}
	}
	if totalScore == 0 {
		return result
	}

	confidence := bestScore / totalScore
	if len(scores) == 1 {
		confidence = min(confidence+0.25, 1.0)
	}
	if matchCounts[best] >= 2 {
		confidence = min(confidence+0.1, 1.0)
	}
	if len(scores) > 1 {
		second := secondBest(scores, best)
		if second > 0 && (bestScore-second)/bestScore < 0.3 {
			confidence *= 0.8
		}
	}

	result.Intent = best
	result.Confidence = fallbackMinConfidence + (fallbackMaxConfidence-fallbackMinConfidence)*confidence
	result.Reasoning = "keyword patterns matched " + string(best)
	return result
}

func secondBest(scores map[domain.Intent]float64, best domain.Intent) float64 {
	var second float64
	for in, score := range scores {
		if in != best && score > second {
			second = score
		}
	}
	return second
}

// SmallTalk is the kind of social message handled without the model.
type SmallTalk int

const (
	SmallTalkNone SmallTalk = iota
	SmallTalkGreeting
	SmallTalkThanks
	SmallTalkFarewell
)

var (
	greetingPattern = regexp.MustCompile(`(?i)^\s*(hi\b|hello\b|hey\b|howdy\b|good (morning|afternoon|evening)\b|hej|hallå|tjena\b|god (morgon|kväll|middag)\b)`)
	thanksPattern   = regexp.MustCompile(`(?i)\b(thanks|thank you|thx|cheers|tack|tackar)\b`)
	farewellPattern = regexp.MustCompile(`(?i)(\bbye\b|\bgoodbye\b|\bsee you\b|\bgood night\b|\bhejdå|\bhej då|\bvi ses\b|\bgod natt\b)`)
)

// DetectSmallTalk reports whether utterance is a greeting, thanks or farewell.
// Farewell wins over greeting so "hej då" is not read as "hej".
func DetectSmallTalk(utterance string) SmallTalk {
	switch {
	case farewellPattern.MatchString(utterance):
		return SmallTalkFarewell
	case thanksPattern.MatchString(utterance):
		return SmallTalkThanks
	case greetingPattern.MatchString(utterance):
		return SmallTalkGreeting
	default:
		return SmallTalkNone
	}
}
