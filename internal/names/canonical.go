package names

import (
	"strings"
	"sync"
	"unicode"
)

// rule maps an upstream label pattern to its English display name.
// The tables below are ordered lists: when two rules carry the same pattern,
// the first one wins and later duplicates are silently discarded. That is
// intentional, so match order is part of the contract.
type rule struct {
	pattern string
	name    string
}

// exactNames maps full party, coalition and list labels (case-normalized) to
// short English names. The English names themselves are included as patterns
// so canonicalization is idempotent on its own output.
var exactNames = []rule{
	{"FIDESZ - MAGYAR POLGÁRI SZÖVETSÉG-KERESZTÉNYDEMOKRATA NÉPPÁRT", "Fidesz-KDNP"},
	{"FIDESZ-KDNP", "Fidesz-KDNP"},
	{"DK-JOBBIK-LMP-MSZP-MOMENTUM-PÁRBESZÉD", "United for Hungary"},
	{"EGYSÉGBEN MAGYARORSZÁGÉRT", "United for Hungary"},
	{"UNITED FOR HUNGARY", "United for Hungary"},
	{"MI HAZÁNK MOZGALOM", "Our Homeland Movement"},
	{"OUR HOMELAND MOVEMENT", "Our Homeland Movement"},
	{"MAGYAR KÉTFARKÚ KUTYA PÁRT", "Two-Tailed Dog Party"},
	{"TWO-TAILED DOG PARTY", "Two-Tailed Dog Party"},
	{"MEGOLDÁS MOZGALOM", "Solution Movement"},
	{"SOLUTION MOVEMENT", "Solution Movement"},
	{"NORMÁLIS ÉLET PÁRTJA", "Normal Life Party"},
	{"NORMAL LIFE PARTY", "Normal Life Party"},
	{"MAGYARORSZÁGI NÉMETEK ORSZÁGOS ÖNKORMÁNYZATA", "German Minority"},
	{"GERMAN MINORITY", "German Minority"},
	{"ROMA MINORITY", "Roma Minority"},
	{"ROMANIAN MINORITY", "Romanian Minority"},
	{"CROATIAN MINORITY", "Croatian Minority"},
	{"SERBIAN MINORITY", "Serbian Minority"},
	{"SLOVAK MINORITY", "Slovak Minority"},
	{"SLOVENE MINORITY", "Slovene Minority"},
	{"RUSYN MINORITY", "Rusyn Minority"},
	{"UKRAINIAN MINORITY", "Ukrainian Minority"},
	{"GREEK MINORITY", "Greek Minority"},
	{"BULGARIAN MINORITY", "Bulgarian Minority"},
	{"POLISH MINORITY", "Polish Minority"},
	{"ARMENIAN MINORITY", "Armenian Minority"},
	{"UNKNOWN", "Unknown"},
}

// minorityKeywords maps lowercase substrings of minority-list labels to
// English names. First match wins; the accented forms must come before any
// shorter unaccented keyword they could otherwise shadow.
var minorityKeywords = []rule{
	{"német", "German Minority"},
	{"cigány", "Roma Minority"},
	{"román", "Romanian Minority"},
	{"roma", "Roma Minority"},
	{"horvát", "Croatian Minority"},
	{"szerb", "Serbian Minority"},
	{"szlovák", "Slovak Minority"},
	{"szlovén", "Slovene Minority"},
	{"ruszin", "Rusyn Minority"},
	{"ukrán", "Ukrainian Minority"},
	{"görög", "Greek Minority"},
	{"bolgár", "Bulgarian Minority"},
	{"lengyel", "Polish Minority"},
	{"örmény", "Armenian Minority"},
}

var (
	exactOnce   sync.Once
	exactLookup map[string]string
)

func exactTable() map[string]string {
	exactOnce.Do(func() {
		exactLookup = make(map[string]string, len(exactNames))
		for _, r := range exactNames {
			if _, seen := exactLookup[r.pattern]; !seen {
				exactLookup[r.pattern] = r.name
			}
		}
	})

	return exactLookup
}

// CanonicalPartyName maps a raw party or list label to a short English
// display name. Resolution order: exact match against the curated table,
// then minority keyword substring match, then a title-cased copy of the
// input. An empty label yields "Unknown".
func CanonicalPartyName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Unknown"
	}

	if name, ok := exactTable()[strings.ToUpper(trimmed)]; ok {
		return name
	}

	lowered := strings.ToLower(trimmed)
	for _, r := range minorityKeywords {
		if strings.Contains(lowered, r.pattern) {
			return r.name
		}
	}

	return titleCase(trimmed)
}

// titleCase lowercases the label and uppercases the first letter of each
// whitespace-separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
