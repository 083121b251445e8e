package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/railchat/internal/facts"
	"github.com/aretw0/railchat/internal/runtime"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/ports"
)

// Rule is a production over a dialog turn.
type Rule = runtime.Rule[*Turn]

type action = runtime.Action[*Turn]

const (
	salienceIntent      = 120
	salienceHelpIntent  = 115
	salienceHelpTopic   = 110
	salienceHelpAnswer  = 105
	salienceDeparture   = 100
	salienceArrival     = 95
	salienceDelay       = 90
	salienceOutwardDate = 80
	salienceOutwardTime = 75
	salienceReturn      = 70
	salienceReturnDate  = 65
	salienceReturnTime  = 60
	salienceConfirm     = 55
	salienceAdjust      = 50
	salienceNextQuery   = 45
)

// Catalog returns the slot transition rules in declaration order.
func Catalog() []Rule {
	var (
		anyQuery = facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Is(domain.IntentTicket, domain.IntentDelay))
		ticket   = facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Is(domain.IntentTicket))
		delay    = facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Is(domain.IntentDelay))
		from     = facts.P(domain.KindDeparture).Where(domain.AttrName, facts.Var("fromName")).Where(domain.AttrCode, facts.Var("from"))
		to       = facts.P(domain.KindArrival).Where(domain.AttrName, facts.Var("toName")).Where(domain.AttrCode, facts.Var("to"))
		outDate  = facts.P(domain.KindDepartureDate).Where(domain.AttrDate, facts.Var("out"))
		outTime  = facts.P(domain.KindLeavingTime).Where(domain.AttrTime, facts.Var("left"))
	)

	return []Rule{
		{
			Name:     "ask-intent",
			Salience: salienceIntent,
			Absent:   []domain.Kind{domain.KindQueryType, domain.KindFarewell},
			Action:   askIntent,
		},
		{
			Name:     "help-topic-from-intent",
			Salience: salienceHelpIntent,
			Match:    []facts.Pattern{facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Is(domain.IntentCancel, domain.IntentChange).Bind("topic"))},
			Absent:   []domain.Kind{domain.KindHelpType},
			Action:   helpTopicFromIntent,
		},
		{
			Name:     "ask-help-topic",
			Salience: salienceHelpTopic,
			Match:    []facts.Pattern{facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Is(domain.IntentHelp))},
			Absent:   []domain.Kind{domain.KindHelpType},
			Action:   askHelpTopic,
		},
		{
			Name:     "answer-help",
			Salience: salienceHelpAnswer,
			Match:    []facts.Pattern{facts.P(domain.KindHelpType).Where(domain.AttrTopic, facts.Var("topic"))},
			Absent:   []domain.Kind{domain.KindHelpAnswered},
			Action:   answerHelp,
		},
		{
			Name:     "ask-departure",
			Salience: salienceDeparture,
			Match:    []facts.Pattern{anyQuery},
			Absent:   []domain.Kind{domain.KindDeparture},
			Action:   askDeparture,
		},
		{
			Name:     "ask-arrival",
			Salience: salienceArrival,
			Match:    []facts.Pattern{anyQuery, from},
			Absent:   []domain.Kind{domain.KindArrival},
			Action:   askArrival,
		},
		{
			Name:     "ask-delay",
			Salience: salienceDelay,
			Match:    []facts.Pattern{delay, from, to},
			Absent:   []domain.Kind{domain.KindDelayTime},
			Action:   askDelay,
		},
		{
			Name:     "ask-outward-date",
			Salience: salienceOutwardDate,
			Match:    []facts.Pattern{ticket, to},
			Absent:   []domain.Kind{domain.KindDepartureDate},
			Action:   askOutwardDate,
		},
		{
			Name:     "ask-outward-time",
			Salience: salienceOutwardTime,
			Match:    []facts.Pattern{ticket, outDate},
			Absent:   []domain.Kind{domain.KindLeavingTime},
			Action:   askOutwardTime,
		},
		{
			Name:     "ask-return",
			Salience: salienceReturn,
			Match:    []facts.Pattern{ticket, outTime},
			Absent:   []domain.Kind{domain.KindReturnFlag},
			Action:   askReturn,
		},
		{
			Name:     "ask-return-date",
			Salience: salienceReturnDate,
			Match:    []facts.Pattern{facts.P(domain.KindReturnFlag).Where(domain.AttrValue, facts.Is("true")), outDate},
			Absent:   []domain.Kind{domain.KindReturnDate},
			Action:   askReturnDate,
		},
		{
			Name:     "ask-return-time",
			Salience: salienceReturnTime,
			Match:    []facts.Pattern{facts.P(domain.KindReturnDate).Where(domain.AttrDate, facts.Var("back")), outDate, outTime},
			Absent:   []domain.Kind{domain.KindReturnTime},
			Action:   askReturnTime,
		},
		{
			Name:     "confirm-booking",
			Salience: salienceConfirm,
			Match: []facts.Pattern{
				ticket, from, to, outDate, outTime,
				facts.P(domain.KindReturnFlag).Where(domain.AttrValue, facts.Var("return")),
				facts.P(domain.KindReturnDate).Where(domain.AttrDate, facts.Var("back")),
				facts.P(domain.KindReturnTime).Where(domain.AttrTime, facts.Var("backTime")),
			},
			Absent: []domain.Kind{domain.KindCorrectBooking},
			Action: confirmBooking,
		},
		{
			Name:     "confirm-delay",
			Salience: salienceConfirm,
			Match: []facts.Pattern{
				delay, from, to,
				facts.P(domain.KindDelayTime).Where(domain.AttrMinutes, facts.Var("minutes")),
			},
			Absent: []domain.Kind{domain.KindCorrectBooking},
			Action: confirmDelay,
		},
		{
			Name:     "adjust",
			Salience: salienceAdjust,
			Match: []facts.Pattern{
				facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Var("intent")),
				facts.P(domain.KindCorrectBooking).Where(domain.AttrValue, facts.Is("false")),
			},
			Action: adjust,
		},
		{
			Name:     "next-query",
			Salience: salienceNextQuery,
			Match:    []facts.Pattern{facts.P(domain.KindCorrectBooking).Where(domain.AttrValue, facts.Is("true"))},
			Action:   nextQuery(domain.KindCorrectBooking),
		},
		{
			Name:     "next-query-after-help",
			Salience: salienceNextQuery,
			Match:    []facts.Pattern{facts.P(domain.KindHelpAnswered)},
			Action:   nextQuery(domain.KindHelpAnswered),
		},
	}
}

func askIntent(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	ex := t.Extraction
	if intent := t.peek("intent", ex.Intent); domain.ValidIntent(intent) {
		t.take("intent", intent)
		if ex.Greeting {
			if err := t.say(ctx, "Hello!"); err != nil {
				return err
			}
		}
		t.settle(rc.Facts, domain.KindQueryType, domain.AttrValue, intent)
		return nil
	}

	switch {
	case ex.Greeting:
		return t.say(ctx, msgGreeting)
	case ex.Text() != "" && !t.used:
		return t.say(ctx, msgNotUnderstood+" "+msgCapabilities)
	}
	return t.say(ctx, msgCapabilities)
}

func helpTopicFromIntent(_ context.Context, rc *runtime.Context[*Turn]) error {
	rc.Env.settle(rc.Facts, domain.KindHelpType, domain.AttrTopic, rc.Bindings["topic"])
	return nil
}

var defaultHelpTopics = []string{"booking", "cancel", "change"}

func askHelpTopic(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	topics := defaultHelpTopics
	if t.Deps.Help != nil {
		var listed []string
		err := t.lookup(ctx, "help", func() (err error) {
			listed, err = t.Deps.Help.Topics(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("list help topics: %w", err)
		}
		if len(listed) > 0 {
			topics = listed
		}
	}

	if intent := t.peek("intent", t.Extraction.Intent); intent == domain.IntentCancel || intent == domain.IntentChange {
		t.take("intent", intent)
		t.settle(rc.Facts, domain.KindHelpType, domain.AttrTopic, intent)
		return nil
	}
	text := strings.ToLower(t.peek("topic", t.Extraction.Text()))
	for _, topic := range topics {
		if text != "" && (strings.Contains(text, topic) || strings.Contains(text, strings.TrimSuffix(topic, "ing"))) {
			t.take("topic", text)
			t.settle(rc.Facts, domain.KindHelpType, domain.AttrTopic, topic)
			return nil
		}
	}

	if t.awaited(rc.Facts, domain.KindQueryType) && text != "" && !t.used {
		if err := t.say(ctx, msgNotUnderstood); err != nil {
			return err
		}
	}
	return t.choose(ctx, msgAskHelpTopic, topics)
}

func answerHelp(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	topic := rc.Bindings["topic"]

	var answer string
	err := domain.ErrUnknownTopic
	if t.Deps.Help != nil {
		err = t.lookup(ctx, "help", func() (err error) {
			answer, err = t.Deps.Help.Answer(ctx, topic)
			return err
		})
	}
	switch {
	case errors.Is(err, domain.ErrUnknownTopic):
		err = t.sayf(ctx, msgUnknownTopic, topic)
	case err != nil:
		return fmt.Errorf("answer help topic %q: %w", topic, err)
	default:
		err = t.say(ctx, answer)
	}
	if err != nil {
		return err
	}
	t.settle(rc.Facts, domain.KindHelpAnswered, domain.AttrValue, "true")
	return nil
}

func askDeparture(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	name := t.take("from_station", t.Extraction.FromStation)
	code := t.take("from_crs", t.Extraction.FromCode)
	var arrival domain.Station
	if f, ok := rc.Facts.Get(domain.KindArrival); ok {
		arrival = domain.Station{Name: f.Get(domain.AttrName), Code: f.Get(domain.AttrCode)}
	}
	return t.askStation(ctx, rc.Facts, domain.KindDeparture, name, code, arrival, msgSameDeparture, msgAskDeparture)
}

func askArrival(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	name := t.take("to_station", t.Extraction.ToStation)
	code := t.take("to_crs", t.Extraction.ToCode)
	departure := domain.Station{Name: rc.Bindings["fromName"], Code: rc.Bindings["from"]}
	return t.askStation(ctx, rc.Facts, domain.KindArrival, name, code, departure, msgSameStation, msgAskArrival)
}

// askStation settles a station slot from the explicit extraction fields, then from the
// uncategorized text tokens, and otherwise offers suggestions or prompts.
// A station equal to exclude is refused with clash.
func (t *Turn) askStation(ctx context.Context, store *facts.Store, kind domain.Kind, name, code string, exclude domain.Station, clash, prompt string) error {
	offered := name != "" || code != ""
	if offered {
		st, ok, err := t.resolveStation(ctx, name, code)
		if err != nil {
			return err
		}
		if ok && sameStation(st, exclude) {
			return t.sayf(ctx, clash, exclude.Name)
		}
		if ok {
			t.settle(store, kind, domain.AttrName, st.Name, domain.AttrCode, st.Code)
			return nil
		}
	}

	for i, tok := range t.Extraction.Uncategorized {
		if t.tokens[i] || tok.Kind != domain.TokenText {
			continue
		}
		st, ok, err := t.resolveStation(ctx, tok.Value, "")
		if err != nil {
			return err
		}
		if !ok || sameStation(st, exclude) {
			continue
		}
		t.tokens[i] = true
		t.used = true
		t.settle(store, kind, domain.AttrName, st.Name, domain.AttrCode, st.Code)
		return nil
	}

	if offered {
		if err := t.say(ctx, msgInvalidStation); err != nil {
			return err
		}
	}
	if suggestions := t.suggestions(); len(suggestions) > 0 {
		return t.offer(ctx, suggestions)
	}
	if offered {
		return nil
	}
	return t.say(ctx, prompt)
}

func sameStation(a, b domain.Station) bool {
	return b.Code != "" && strings.EqualFold(a.Code, b.Code)
}

func (t *Turn) resolveStation(ctx context.Context, name, code string) (domain.Station, bool, error) {
	if code != "" {
		return t.resolveCode(ctx, name, code)
	}
	if t.Deps.Stations == nil {
		return domain.Station{}, false, nil
	}

	var st domain.Station
	err := t.lookup(ctx, "stations", func() (err error) {
		st, err = t.Deps.Stations.Lookup(ctx, name)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrStationNotFound):
		return domain.Station{}, false, nil
	case err != nil:
		return domain.Station{}, false, fmt.Errorf("look up station %q: %w", name, err)
	}
	return st, true, nil
}

// resolveCode trusts a bare code unless the directory can verify codes,
// in which case the directory's station replaces it.
func (t *Turn) resolveCode(ctx context.Context, name, code string) (domain.Station, bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	coder, ok := t.Deps.Stations.(ports.StationCoder)
	if !ok {
		if name == "" {
			name = code
		}
		return domain.Station{Name: name, Code: code}, true, nil
	}

	var st domain.Station
	err := t.lookup(ctx, "stations", func() (err error) {
		st, err = coder.LookupCode(ctx, code)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrStationNotFound):
		return domain.Station{}, false, nil
	case err != nil:
		return domain.Station{}, false, fmt.Errorf("look up station code %q: %w", code, err)
	}
	return st, true, nil
}

func (t *Turn) offer(ctx context.Context, suggestions []domain.Suggestion) error {
	var stations []string
	for _, s := range suggestions {
		if s.Station != "" {
			stations = append(stations, s.Station)
		}
	}
	if len(stations) > 0 {
		return t.choose(ctx, msgPickStation, stations)
	}
	for _, s := range suggestions {
		if s.Location != "" {
			return t.sayf(ctx, msgPickInLocation, s.Location)
		}
	}
	return nil
}

func askDelay(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	text := t.peek("delay", t.Extraction.Text())
	minutes, ok := parseDelay(text)
	if ok {
		t.take("delay", text)
	} else if v, found := t.token(domain.TokenText, isNumber); found {
		minutes, _ = strconv.Atoi(strings.TrimSpace(v))
		ok = true
	}
	if !ok {
		return t.say(ctx, msgAskDelay)
	}
	if minutes <= 0 || minutes > 24*60 {
		return t.say(ctx, msgInvalidDelay)
	}
	t.settle(rc.Facts, domain.KindDelayTime, domain.AttrMinutes, strconv.Itoa(minutes))
	return nil
}

func askOutwardDate(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	v := t.take("outward_date", t.Extraction.OutwardDate)
	if v == "" {
		v, _ = t.token(domain.TokenDate, nil)
	}
	if v == "" {
		return t.say(ctx, msgAskOutDate)
	}

	d, ok := normalizeDate(v)
	if !ok {
		return t.say(ctx, msgInvalidDate)
	}
	if today := t.Today(); d < today {
		return t.sayf(ctx, msgDateFromToday, today)
	}
	if last := lastBookable(t.Now); d > last {
		return t.sayf(ctx, msgDateWindow, last)
	}
	t.settle(rc.Facts, domain.KindDepartureDate, domain.AttrDate, d)
	t.dropStaleReturn(rc.Facts)
	return nil
}

func askOutwardTime(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	v := t.take("outward_time", t.Extraction.OutwardTime)
	if v == "" {
		v, _ = t.token(domain.TokenTime, nil)
	}
	if v == "" {
		return t.say(ctx, msgAskOutTime)
	}

	tm, ok := normalizeTime(v)
	if !ok {
		return t.say(ctx, msgInvalidTime)
	}
	if now := t.Now.Format(TimeLayout); rc.Bindings["out"] == t.Today() && tm < now {
		return t.sayf(ctx, msgTimeAfter, now)
	}
	t.settle(rc.Facts, domain.KindLeavingTime, domain.AttrTime, tm)
	t.dropStaleReturn(rc.Facts)
	return nil
}

// dropStaleReturn forgets a return leg that a changed outward leg now overtakes,
// so it is asked again.
func (t *Turn) dropStaleReturn(store *facts.Store) {
	ret, ok := store.Get(domain.KindReturnDate)
	if !ok || ret.Get(domain.AttrDate) == domain.NotApplicable {
		return
	}
	out, _ := store.Get(domain.KindDepartureDate)
	if ret.Get(domain.AttrDate) < out.Get(domain.AttrDate) {
		t.unsettle(store, domain.KindReturnDate, domain.KindReturnTime)
		return
	}
	if ret.Get(domain.AttrDate) != out.Get(domain.AttrDate) {
		return
	}
	back, ok := store.Get(domain.KindReturnTime)
	left, _ := store.Get(domain.KindLeavingTime)
	if ok && back.Get(domain.AttrTime) != domain.NotApplicable && back.Get(domain.AttrTime) < left.Get(domain.AttrTime) {
		t.unsettle(store, domain.KindReturnTime)
	}
}

func askReturn(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	switch t.confirmation() {
	case domain.Yes:
		t.settle(rc.Facts, domain.KindReturnFlag, domain.AttrValue, "true")
		return nil
	case domain.No:
		t.settle(rc.Facts, domain.KindReturnFlag, domain.AttrValue, "false")
		t.settle(rc.Facts, domain.KindReturnDate, domain.AttrDate, domain.NotApplicable)
		t.settle(rc.Facts, domain.KindReturnTime, domain.AttrTime, domain.NotApplicable)
		return nil
	}
	if t.peek("return_date", t.Extraction.ReturnDate) != "" {
		t.settle(rc.Facts, domain.KindReturnFlag, domain.AttrValue, "true")
		return nil
	}
	return t.choose(ctx, msgAskReturn, []string{"yes", "no"})
}

func askReturnDate(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	v := t.take("return_date", t.Extraction.ReturnDate)
	if v == "" {
		v, _ = t.token(domain.TokenDate, nil)
	}
	if v == "" {
		return t.say(ctx, msgAskReturnDate)
	}

	d, ok := normalizeDate(v)
	if !ok {
		return t.say(ctx, msgInvalidDate)
	}
	if out := rc.Bindings["out"]; d < out {
		return t.sayf(ctx, msgDateFrom, out)
	}
	if last := lastBookable(t.Now); d > last {
		return t.sayf(ctx, msgDateWindow, last)
	}
	t.settle(rc.Facts, domain.KindReturnDate, domain.AttrDate, d)
	return nil
}

func askReturnTime(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	v := t.take("return_time", t.Extraction.ReturnTime)
	if v == "" {
		v, _ = t.token(domain.TokenTime, nil)
	}
	if v == "" {
		return t.say(ctx, msgAskReturnTime)
	}

	tm, ok := normalizeTime(v)
	if !ok {
		return t.say(ctx, msgInvalidTime)
	}
	if left := rc.Bindings["left"]; rc.Bindings["back"] == rc.Bindings["out"] && tm < left {
		return t.sayf(ctx, msgTimeAfter, left)
	}
	t.settle(rc.Facts, domain.KindReturnTime, domain.AttrTime, tm)
	return nil
}

var bookingKinds = []domain.Kind{
	domain.KindDeparture, domain.KindArrival, domain.KindDepartureDate, domain.KindLeavingTime,
	domain.KindReturnFlag, domain.KindReturnDate, domain.KindReturnTime,
}

func confirmBooking(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	b := rc.Bindings
	if t.awaited(rc.Facts, bookingKinds...) {
		switch t.confirmation() {
		case domain.Yes:
			return t.quoteFare(ctx, rc.Facts, b)
		case domain.No:
			t.settle(rc.Facts, domain.KindCorrectBooking, domain.AttrValue, "false")
			return nil
		}
	}

	var sb strings.Builder
	sb.WriteString("Please confirm your booking...\n")
	fmt.Fprintf(&sb, "Departing from: %s (%s)\n", b["fromName"], b["from"])
	fmt.Fprintf(&sb, "Arriving at: %s (%s)\n", b["toName"], b["to"])
	fmt.Fprintf(&sb, "Departure: %s at %s", b["out"], b["left"])
	if b["return"] == "true" {
		fmt.Fprintf(&sb, "\nReturning: %s at %s", b["back"], b["backTime"])
	} else {
		sb.WriteString("\nSingle journey, no return")
	}
	if err := t.say(ctx, sb.String()); err != nil {
		return err
	}
	return t.choose(ctx, msgAskCorrect, []string{"yes", "no"})
}

func (t *Turn) quoteFare(ctx context.Context, store *facts.Store, b facts.Bindings) error {
	fares := t.Deps.Fares
	var text string
	err := t.lookup(ctx, "fares", func() error {
		if fares == nil {
			return &domain.LookupError{Service: "fares", Reason: "fare lookups are not available"}
		}
		if b["return"] != "true" {
			q, err := fares.Single(ctx, domain.SingleQuery{From: b["from"], To: b["to"], Date: b["out"], Time: b["left"]})
			if err != nil {
				return err
			}
			text = fmt.Sprintf("The cheapest single ticket from %s to %s costs %s and departs at %s. You can book it here: %s",
				b["fromName"], b["toName"], q.Price, q.Departs, q.URL)
			return nil
		}
		q, err := fares.Return(ctx, domain.ReturnQuery{
			From: b["from"], To: b["to"],
			OutDate: b["out"], OutTime: b["left"],
			RetDate: b["back"], RetTime: b["backTime"],
		})
		if err != nil {
			return err
		}
		text = fmt.Sprintf("The cheapest return ticket from %s to %s costs %s, departing at %s and returning at %s. You can book it here: %s",
			b["fromName"], b["toName"], q.Price, q.OutDeparts, q.ReturnDeparts, q.URL)
		return nil
	})
	if handled, err := t.lookupFailed(ctx, err, msgFareUnavailable); handled {
		return err
	}
	if err := t.say(ctx, text); err != nil {
		return err
	}
	t.settle(store, domain.KindCorrectBooking, domain.AttrValue, "true")
	return nil
}

// lookupFailed shows a *domain.LookupError to the user and reports any other error as
// fatal. handled is false only when err is nil.
func (t *Turn) lookupFailed(ctx context.Context, err error, format string) (handled bool, fatal error) {
	if err == nil {
		return false, nil
	}
	var le *domain.LookupError
	if errors.As(err, &le) {
		return true, t.sayf(ctx, format, le.Reason)
	}
	return true, err
}

var delayKinds = []domain.Kind{domain.KindDeparture, domain.KindArrival, domain.KindDelayTime}

func confirmDelay(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	b := rc.Bindings
	if t.awaited(rc.Facts, delayKinds...) {
		switch t.confirmation() {
		case domain.Yes:
			return t.predictDelay(ctx, rc.Facts, b)
		case domain.No:
			t.settle(rc.Facts, domain.KindCorrectBooking, domain.AttrValue, "false")
			return nil
		}
	}

	summary := fmt.Sprintf("Please confirm your journey...\nDeparting from: %s (%s)\nArriving at: %s (%s)\nCurrent delay: %s minutes",
		b["fromName"], b["from"], b["toName"], b["to"], b["minutes"])
	if err := t.say(ctx, summary); err != nil {
		return err
	}
	return t.choose(ctx, msgAskCorrect, []string{"yes", "no"})
}

func (t *Turn) predictDelay(ctx context.Context, store *facts.Store, b facts.Bindings) error {
	minutes, err := strconv.Atoi(b["minutes"])
	if err != nil {
		return fmt.Errorf("delay slot %q: %w", b["minutes"], err)
	}

	var predicted int
	err = t.lookup(ctx, "delays", func() (err error) {
		if t.Deps.Delays == nil {
			return &domain.LookupError{Service: "delays", Reason: "delay predictions are not available"}
		}
		predicted, err = t.Deps.Delays.Predict(ctx, b["from"], b["to"], minutes)
		return err
	})
	if handled, err := t.lookupFailed(ctx, err, msgDelayUnavailable); handled {
		return err
	}

	if predicted <= 0 {
		err = t.sayf(ctx, "Good news, your train is expected to arrive at %s on time.", b["toName"])
	} else {
		err = t.sayf(ctx, "Your train is expected to arrive at %s about %d minutes late.", b["toName"], predicted)
	}
	if err != nil {
		return err
	}
	t.settle(store, domain.KindCorrectBooking, domain.AttrValue, "true")
	return nil
}

type adjustment struct {
	label    string
	keywords []string
	kinds    []domain.Kind
}

var (
	adjustDeparture = adjustment{"departure station", []string{"departure", "depart", "from", "origin"}, []domain.Kind{domain.KindDeparture}}
	adjustArrival   = adjustment{"arrival station", []string{"arrival", "arrive", "destination", "to"}, []domain.Kind{domain.KindArrival}}
	adjustDate      = adjustment{"outward date", []string{"date", "day"}, []domain.Kind{domain.KindDepartureDate}}
	adjustTime      = adjustment{"outward time", []string{"time"}, []domain.Kind{domain.KindLeavingTime}}
	adjustReturn    = adjustment{"return", []string{"return", "returning"}, []domain.Kind{domain.KindReturnFlag, domain.KindReturnDate, domain.KindReturnTime}}
	adjustDelay     = adjustment{"delay", []string{"delay", "late", "minutes"}, []domain.Kind{domain.KindDelayTime}}

	ticketAdjustments = []adjustment{adjustDeparture, adjustArrival, adjustDate, adjustTime, adjustReturn}
	delayAdjustments  = []adjustment{adjustDeparture, adjustArrival, adjustDelay}

	// keywordOrder resolves overlapping keywords, e.g. "return date" or "departure time".
	keywordOrder = []adjustment{adjustReturn, adjustDelay, adjustDate, adjustTime, adjustDeparture, adjustArrival}
)

func pickAdjustment(text string, options []adjustment) (adjustment, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return adjustment{}, false
	}
	for _, o := range options {
		if strings.Contains(text, o.label) {
			return o, true
		}
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, o := range keywordOrder {
		if !isOffered(o, options) {
			continue
		}
		for _, w := range words {
			for _, k := range o.keywords {
				if w == k {
					return o, true
				}
			}
		}
	}
	return adjustment{}, false
}

func isOffered(a adjustment, options []adjustment) bool {
	for _, o := range options {
		if o.label == a.label {
			return true
		}
	}
	return false
}

func adjust(ctx context.Context, rc *runtime.Context[*Turn]) error {
	t := rc.Env
	options := ticketAdjustments
	if rc.Bindings["intent"] == domain.IntentDelay {
		options = delayAdjustments
	}
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.label
	}

	if !t.awaited(rc.Facts, domain.KindCorrectBooking) {
		return t.choose(ctx, msgAskAdjust, labels)
	}
	text := t.peek("adjust", t.Extraction.Text())
	choice, ok := pickAdjustment(text, options)
	if !ok {
		if text != "" {
			if err := t.say(ctx, msgNotUnderstood); err != nil {
				return err
			}
		}
		return t.choose(ctx, msgAskAdjust, labels)
	}
	t.take("adjust", text)
	t.unsettle(rc.Facts, append(choice.kinds, domain.KindCorrectBooking)...)
	return nil
}

func nextQuery(resolved domain.Kind) action {
	return func(ctx context.Context, rc *runtime.Context[*Turn]) error {
		t := rc.Env
		if !t.awaited(rc.Facts, resolved) {
			return t.say(ctx, msgAskNext)
		}
		if intent := t.peek("intent", t.Extraction.Intent); domain.ValidIntent(intent) {
			t.take("intent", intent)
			t.forget(rc.Facts)
			t.settle(rc.Facts, domain.KindQueryType, domain.AttrValue, intent)
			return nil
		}
		switch t.confirmation() {
		case domain.No:
			t.forget(rc.Facts)
			t.ended = true
			rc.Facts.Assert(domain.NewFact(domain.KindFarewell))
			return t.say(ctx, msgGoodbye)
		case domain.Yes:
			t.forget(rc.Facts)
			return nil
		}
		if t.Extraction.Text() != "" {
			if err := t.say(ctx, msgNotUnderstood); err != nil {
				return err
			}
		}
		return t.say(ctx, msgAskNext)
	}
}
