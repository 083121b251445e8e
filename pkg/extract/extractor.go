// Package extract turns a free-text message into a domain.Extraction.
//
// It is a keyword and phrase matcher, not a language model: intents, confirmations and
// greetings come from word lists, stations from a phrase index over the station
// directory, and dates and times from a small set of formats ("today", "next friday",
// "17/01/2021", "17th january", "14:00", "7pm"). Station roles are read from the
// surrounding prepositions ("from Norwich", "Norwich to Diss"). Anything that cannot be
// placed is reported as an uncategorized token for the dialog to use positionally.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

// DefaultSuggestions is how many stations are offered for an unresolved name.
const DefaultSuggestions = 3

// minStem is the shortest prefix searched for an unresolved name.
const minStem = 4

// Directory is the station source of an Extractor.
type Directory interface {
	ports.StationDirectory
	ports.StationLister
}

// Extractor implements the language side of a turn.
type Extractor struct {
	directory   Directory
	now         func() time.Time
	logger      *slog.Logger
	suggestions int

	mu      sync.RWMutex
	index   *phraseIndex
	codes   map[string]domain.Station
	regions map[string]string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithSuggestions sets how many stations are suggested for an unresolved name. Zero
// disables suggestions.
func WithSuggestions(n int) Option {
	return func(e *Extractor) {
		e.suggestions = n
	}
}

// New creates an Extractor. The station index is built on first use.
func New(directory Directory, opts ...Option) *Extractor {
	e := &Extractor{
		directory:   directory,
		now:         time.Now,
		logger:      logging.NewNop(),
		suggestions: DefaultSuggestions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh rebuilds the station index from the directory.
func (e *Extractor) Refresh(ctx context.Context) error {
	stations, err := e.directory.Stations(ctx)
	if err != nil {
		return fmt.Errorf("listing stations: %w", err)
	}

	index := newPhraseIndex()
	codes := make(map[string]domain.Station, len(stations))
	regions := make(map[string]string)
	for _, st := range stations {
		index.add(st)
		if st.Code != "" {
			codes[strings.ToUpper(st.Code)] = st
		}
		if st.County != "" {
			regions[strings.ToLower(st.County)] = st.County
		}
	}

	e.mu.Lock()
	e.index, e.codes, e.regions = index, codes, regions
	e.mu.Unlock()

	e.logger.Debug("station index built", "stations", len(stations))
	return nil
}

func (e *Extractor) ready(ctx context.Context) error {
	e.mu.RLock()
	built := e.index != nil
	e.mu.RUnlock()
	if built {
		return nil
	}
	return e.Refresh(ctx)
}

// Extract reads one message.
func (e *Extractor) Extract(ctx context.Context, raw string) (domain.Extraction, error) {
	if err := e.ready(ctx); err != nil {
		return domain.Extraction{}, err
	}

	ex := domain.Extraction{
		Raw:       raw,
		Sanitized: strings.Join(strings.Fields(raw), " "),
	}
	words := split(ex.Sanitized)
	lower := lowers(words)

	ex.Reset = containsAny(lower, resetWords)
	ex.Greeting = isGreeting(lower)
	ex.Intent = intentOf(lower)
	ex.Confirmation = confirmationOf(lower)

	used := make([]bool, len(words))
	var tokens []domain.Token
	placed := e.stations(words, used, &ex, &tokens)

	whens := scanWhen(words, used, e.now())
	if placed && assignJourney(&ex, whens) {
		whens = nil
	}
	for _, w := range whens {
		tokens = append(tokens, domain.Token{Kind: w.kind, Value: w.value})
	}
	ex.Uncategorized = tokens

	if !placed && len(tokens) == 0 && e.suggestions > 0 {
		suggestions, err := e.suggest(ctx, words, used, ex)
		if err != nil {
			return domain.Extraction{}, err
		}
		ex.Suggestions = suggestions
	}

	e.logger.Debug("message extracted",
		"intent", ex.Intent,
		"from", ex.FromCode,
		"to", ex.ToCode,
		"outward_date", ex.OutwardDate,
		"tokens", len(ex.Uncategorized),
		"suggestions", len(ex.Suggestions))
	return ex, nil
}

// stations matches station names and codes, assigning from/to by the neighbouring
// words. Stations without a role become text tokens. It reports whether a role was set.
func (e *Extractor) stations(words []word, used []bool, ex *domain.Extraction, tokens *[]domain.Token) bool {
	e.mu.RLock()
	index, codes := e.index, e.codes
	e.mu.RUnlock()

	lower := lowers(words)
	between := false
	for i := 0; i < len(words); i++ {
		st, n, ok := index.match(lower, i)
		if !ok {
			if len(words[i].text) != 3 || isKeyword(lower[i]) {
				continue
			}
			if st, ok = codes[words[i].text]; !ok {
				continue
			}
			n = 1
		}
		markUsed(used, i, n)

		prev, next := "", ""
		if i > 0 {
			prev = lower[i-1]
		}
		if i+n < len(lower) {
			next = lower[i+n]
		}
		if prev == "between" {
			between = true
		}

		switch {
		case ex.FromStation == "" && (oneOf(prev, fromWords) || next == "to" || (next == "and" && between)):
			ex.FromStation, ex.FromCode = st.Name, st.Code
		case ex.ToStation == "" && ((oneOf(prev, toWords) && (prev != "and" || between)) || next == "from"):
			ex.ToStation, ex.ToCode = st.Name, st.Code
		default:
			*tokens = append(*tokens, domain.Token{Kind: domain.TokenText, Value: st.Name})
		}
		i += n - 1
	}
	return ex.FromStation != "" || ex.ToStation != ""
}

// assignJourney fills the journey slots from up to two dates when the message also
// named a station. The first date and time are the outward leg, the second the return.
// A single date with two times is a same-day return.
func assignJourney(ex *domain.Extraction, whens []when) bool {
	var dates, times []string
	for _, w := range whens {
		if w.kind == domain.TokenDate {
			dates = append(dates, w.value)
		} else {
			times = append(times, w.value)
		}
	}
	if len(dates) == 0 || len(dates) > 2 || len(times) > 2 {
		return false
	}

	ex.OutwardDate = dates[0]
	if len(times) > 0 {
		ex.OutwardTime = times[0]
	}
	if len(dates) == 2 {
		ex.ReturnDate = dates[1]
	} else if len(times) == 2 {
		ex.ReturnDate = dates[0]
	}
	if len(times) == 2 {
		ex.ReturnTime = times[1]
	}
	return true
}

// suggest offers close station names, or the region, for a name that could not be
// resolved. The candidate is the rest of the message after a from/to preposition, or a
// short message with nothing else recognised in it.
func (e *Extractor) suggest(ctx context.Context, words []word, used []bool, ex domain.Extraction) ([]domain.Suggestion, error) {
	candidate := candidateName(words, used, ex)
	if len(candidate) < 3 {
		return nil, nil
	}

	e.mu.RLock()
	region, isRegion := e.regions[candidate]
	e.mu.RUnlock()
	if isRegion {
		return []domain.Suggestion{{Location: region}}, nil
	}

	found, err := e.search(ctx, candidate)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Suggestion, 0, len(found))
	for _, st := range found {
		out = append(out, domain.Suggestion{Station: st.Name})
	}
	return out, nil
}

// search looks the candidate up, then its longest word cut back one letter at a time,
// e.g. "norwhich" -> "norw".
func (e *Extractor) search(ctx context.Context, candidate string) ([]domain.Station, error) {
	found, err := e.directory.Search(ctx, candidate, e.suggestions)
	if err != nil || len(found) > 0 {
		return found, wrapSearch(err)
	}

	parts := strings.Fields(candidate)
	sort.SliceStable(parts, func(i, j int) bool { return len(parts[i]) > len(parts[j]) })
	longest := []rune(parts[0])
	for n := len(longest); n >= minStem; n-- {
		found, err = e.directory.Search(ctx, string(longest[:n]), e.suggestions)
		if err != nil || len(found) > 0 {
			return found, wrapSearch(err)
		}
	}
	return nil, nil
}

func wrapSearch(err error) error {
	if err != nil {
		return fmt.Errorf("searching stations: %w", err)
	}
	return nil
}

func candidateName(words []word, used []bool, ex domain.Extraction) string {
	collect := func(from int) string {
		var parts []string
		for j := from; j < len(words); j++ {
			w := words[j].lower
			if used[j] || oneOf(w, fromWords) || oneOf(w, toWords) {
				break
			}
			if isKeyword(w) {
				continue
			}
			parts = append(parts, w)
		}
		return strings.Join(parts, " ")
	}

	for i, w := range words {
		if w.lower == "from" || w.lower == "to" {
			if c := collect(i + 1); c != "" {
				return c
			}
		}
	}
	if ex.Intent == "" && ex.Confirmation == domain.Unset && !ex.Greeting && !ex.Reset && len(words) <= 3 {
		return collect(0)
	}
	return ""
}
