package extract

import (
	"sort"
	"strings"

	"github.com/aretw0/railchat/pkg/domain"
)

type phrase struct {
	words   []string
	station domain.Station
}

// phraseIndex matches station names word by word, longest name first.
type phraseIndex struct {
	byFirst map[string][]phrase
}

func newPhraseIndex() *phraseIndex {
	return &phraseIndex{byFirst: make(map[string][]phrase)}
}

// add indexes a station under its name and, for London terminals, under the name
// without the "London" prefix.
func (x *phraseIndex) add(st domain.Station) {
	words := lowers(split(st.Name))
	if len(words) == 0 {
		return
	}
	x.insert(words, st)
	if len(words) > 1 && words[0] == "london" {
		x.insert(words[1:], st)
	}
}

func (x *phraseIndex) insert(words []string, st domain.Station) {
	list := append(x.byFirst[words[0]], phrase{words: words, station: st})
	sort.SliceStable(list, func(i, j int) bool { return len(list[i].words) > len(list[j].words) })
	x.byFirst[words[0]] = list
}

// match returns the longest station name starting at words[i] and its length in words.
func (x *phraseIndex) match(words []string, i int) (domain.Station, int, bool) {
	for _, p := range x.byFirst[words[i]] {
		if i+len(p.words) > len(words) {
			continue
		}
		if strings.Join(words[i:i+len(p.words)], " ") == strings.Join(p.words, " ") {
			return p.station, len(p.words), true
		}
	}
	return domain.Station{}, 0, false
}
