// Package classifier assigns a conversational intent to a raw user query.
package classifier

import (
	"strings"

	"github.com/sandevgo/medichat/internal/core"
)

// maxGreetingTail is how many words may follow a greeting phrase.
const maxGreetingTail = 2

var (
	greetings = []string{
		"hi", "hello", "hey", "greetings", "good morning", "good afternoon",
		"good evening", "howdy", "sup", "what's up", "how are you", "how's it going",
	}

	farewells = []string{
		"bye", "goodbye", "see you", "take care", "farewell", "adios", "cya",
		"see ya", "cheerio", "gotta go", "have to go", "talk later", "ttyl",
	}

	vague = map[string]struct{}{
		"nothing": {}, "nope": {}, "nah": {}, "whatever": {}, "dunno": {}, "idk": {},
	}

	documentKeywords = []string{
		"document", "documents", "file", "pdf", "mention", "mentioned",
		"in the document", "from the document", "uploaded", "your document",
		"my document", "about the file", "does the document",
	}
)

// Classify never fails: every input, including the empty string, gets an intent.
// Checks run in order greeting, farewell, unclear, document targeted.
func Classify(query string) core.Intent {
	q := strings.ToLower(strings.TrimSpace(query))

	switch {
	case IsGreeting(q):
		return core.IntentGreeting
	case IsFarewell(q):
		return core.IntentFarewell
	case IsUnclear(q):
		return core.IntentUnclear
	case IsDocumentTargeted(q):
		return core.IntentDocumentTargeted
	default:
		return core.IntentGeneral
	}
}

func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func IsGreeting(query string) bool {
	q := normalize(query)
	if q == "" {
		return false
	}

	for _, g := range greetings {
		if q == g {
			return true
		}
		// plain prefix: "heyyy" and "history?" both count as greetings
		rest, ok := strings.CutPrefix(q, g)
		if ok && len(strings.Fields(rest)) <= maxGreetingTail {
			return true
		}
	}
	return false
}

func IsFarewell(query string) bool {
	q := normalize(query)
	for _, f := range farewells {
		if strings.Contains(q, f) {
			return true
		}
	}
	return false
}

func IsUnclear(query string) bool {
	words := strings.Fields(normalize(query))
	if len(words) != 1 {
		return false
	}
	_, ok := vague[words[0]]
	return ok
}

func IsDocumentTargeted(query string) bool {
	q := normalize(query)
	for _, kw := range documentKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Greetings returns a copy of the greeting phrase set.
func Greetings() []string { return append([]string(nil), greetings...) }

// Farewells returns a copy of the farewell phrase set.
func Farewells() []string { return append([]string(nil), farewells...) }
