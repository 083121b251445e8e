package extract

import (
	"regexp"
	"strings"

	"github.com/aretw0/railchat/pkg/domain"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}'&]+(?:[:/.\-][\p{L}\p{N}]+)*`)

type word struct {
	text  string
	lower string
}

func split(s string) []word {
	found := wordPattern.FindAllString(s, -1)
	words := make([]word, len(found))
	for i, w := range found {
		words[i] = word{text: w, lower: strings.ToLower(w)}
	}
	return words
}

func lowers(words []word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.lower
	}
	return out
}

// Keyword lists. Multi-word entries match consecutive words.
var (
	intentKeywords = []struct {
		intent string
		words  []string
	}{
		{domain.IntentHelp, []string{"help", "assistance", "assist"}},
		{domain.IntentCancel, []string{"cancel", "cancellation", "refund", "refunds"}},
		{domain.IntentChange, []string{"change", "amend", "exchange"}},
		{domain.IntentDelay, []string{"delay", "delays", "delayed", "late", "behind schedule"}},
		{domain.IntentTicket, []string{"book", "booking", "ticket", "tickets", "travel", "fare", "fares", "train", "trains"}},
	}

	yesWords     = []string{"yes", "yep", "yeah", "y", "correct", "sure", "ok", "okay"}
	noWords      = []string{"no", "nope", "n", "incorrect", "wrong", "not"}
	resetWords   = []string{"reset", "restart", "start again", "start over", "begin again", "new search"}
	greetWords   = []string{"hi", "hello", "hey", "hiya", "howdy", "greetings", "good morning", "good afternoon", "good evening"}
	fromWords    = []string{"from", "leaving", "departing", "between"}
	toWords      = []string{"to", "into", "arriving", "and"}
	keywordStops = map[string]bool{"the": true, "a": true, "an": true, "at": true, "on": true, "in": true, "for": true, "i": true, "me": true, "my": true, "want": true, "would": true, "like": true}
)

// contains reports whether phrase occurs as consecutive words in words.
func contains(words []string, phrase string) bool {
	parts := strings.Fields(phrase)
	for i := 0; i+len(parts) <= len(words); i++ {
		match := true
		for j, p := range parts {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func containsAny(words []string, phrases []string) bool {
	for _, p := range phrases {
		if contains(words, p) {
			return true
		}
	}
	return false
}

func intentOf(words []string) string {
	for _, k := range intentKeywords {
		if containsAny(words, k.words) {
			return k.intent
		}
	}
	return ""
}

// confirmationOf is Unset when both or neither of yes and no are present.
func confirmationOf(words []string) domain.TriState {
	yes, no := containsAny(words, yesWords), containsAny(words, noWords)
	switch {
	case yes && !no:
		return domain.Yes
	case no && !yes:
		return domain.No
	}
	return domain.Unset
}

func isGreeting(words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, g := range greetWords {
		parts := strings.Fields(g)
		if len(parts) <= len(words) && contains(words[:len(parts)], g) {
			return true
		}
	}
	return false
}

func isKeyword(w string) bool {
	if keywordStops[w] {
		return true
	}
	for _, list := range [][]string{yesWords, noWords, fromWords, toWords} {
		for _, k := range list {
			if k == w {
				return true
			}
		}
	}
	for _, k := range intentKeywords {
		for _, kw := range k.words {
			if kw == w {
				return true
			}
		}
	}
	return false
}

func oneOf(w string, list []string) bool {
	for _, k := range list {
		if k == w {
			return true
		}
	}
	return false
}
