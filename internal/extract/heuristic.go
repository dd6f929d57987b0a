package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ashureev/chorechat/internal/domain"
)

var clauseSplit = regexp.MustCompile(`(?i)[,.;!?\n]+|\s+(?:and|och|then|sedan|sen)\s+`)

// Distinctive stems that mark a clause as describing a chore in any inflection.
var taskStems = []string{
	"clean", "wash", "organi", "study", "studi", "homework", "vacuum", "tidy", "tidi",
	"laundr", "trash", "garbage", "rubbish", "sweep", "practi", "chore", "groceri", "scrub",
	"städ", "tvätt", "dammsug", "läx", "plugg", "bädd", "rasta", "vattn", "kratt", "organis",
	"handla", "skura", "putsa", "rensa", "syssl",
}

// Short roots that collide with everyday words ("ready", "bedtime", "Sophie")
// only count in these exact forms.
var taskWords = wordSet(
	"dish", "dishes", "dishwasher",
	"cook", "cooks", "cooking", "walk", "walks", "walking", "feed", "feeds", "feeding",
	"bed", "beds", "mop", "mops", "mopping", "dust", "dusts", "dusting",
	"mow", "mows", "mowing", "rake", "rakes", "raking", "water", "waters", "watering",
	"read", "reads", "reading", "iron", "irons", "ironing", "fold", "folds", "folding",
	"empty", "empties", "emptying", "shop", "shopping", "wipe", "wipes", "wiping",
	"polish", "polishing",
	"disk", "diska", "diskar", "disken", "diskmaskinen", "laga", "lagar", "mata", "matar",
	"sopor", "soporna", "sopa", "sopar", "töm", "tömma", "tömmer", "klipp", "klippa", "klipper",
	"plocka", "plockar", "läs", "läsa", "läser", "öva", "övar", "damma", "dammar",
	"torka", "torkar",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var bonusWords = map[string]bool{
	"bonus": true, "someone": true, "anyone": true, "anybody": true, "whoever": true,
	"någon": true, "extra": true,
}

// heuristicDrafts splits an utterance into clauses and keeps those that look
// like chores. A name mentioned in one clause carries over to following
// clauses until another name or a bonus word appears.
func heuristicDrafts(utterance string, fc *domain.FamilyContext, defaults decodeDefaults) []draft {
	var roster []domain.Member
	if fc != nil {
		roster = fc.Members
	}

	var (
		drafts   []draft
		assignee string
	)
	for _, clause := range clauseSplit.Split(utterance, -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		words := strings.FieldsFunc(strings.ToLower(clause), isSeparator)

		if m, ok := mentionedMember(roster, clause); ok {
			assignee = m.Name
		}
		bonus := hasBonusWord(words)
		if bonus {
			assignee = ""
		}
		if !hasTaskStem(words) {
			continue
		}

		drafts = append(drafts, draft{
			task: domain.ParsedTask{
				Title:            truncateRunes(capitalize(clause), maxTitleRunes),
				SuggestedPoints:  defaults.points,
				SuggestedDueDate: defaults.defaultDue.Format(domain.DateLayout),
				Confidence:       fallbackConfidence,
				IsBonusTask:      bonus,
			},
			assigneeName: assignee,
		})
	}
	return drafts
}

func hasTaskStem(words []string) bool {
	for _, w := range words {
		if taskWords[w] {
			return true
		}
		for _, stem := range taskStems {
			if strings.HasPrefix(w, stem) {
				return true
			}
		}
	}
	return false
}

func hasBonusWord(words []string) bool {
	for _, w := range words {
		if bonusWords[w] {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
