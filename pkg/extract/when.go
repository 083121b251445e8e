package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/aretw0/railchat/pkg/domain"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numericDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2}|\d{4}))?$`)
	ordinal     = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?$`)
	year        = regexp.MustCompile(`^\d{4}$`)
	clock24     = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
	clock12     = regexp.MustCompile(`^(1[0-2]|0?[1-9])(?::([0-5]\d))?(am|pm)?$`)
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// when is a date or time found in the message, in the order it appeared.
type when struct {
	kind  domain.TokenKind
	value string
}

// scanWhen finds the dates and times among the unused words and marks them used.
func scanWhen(words []word, used []bool, now time.Time) []when {
	var found []when
	for i := 0; i < len(words); i++ {
		if used[i] {
			continue
		}
		if v, n, ok := timeAt(words, i); ok {
			found = append(found, when{domain.TokenTime, v})
			markUsed(used, i, n)
			i += n - 1
			continue
		}
		if v, n, ok := dateAt(words, i, now); ok {
			found = append(found, when{domain.TokenDate, v})
			markUsed(used, i, n)
			i += n - 1
		}
	}
	return found
}

func markUsed(used []bool, from, n int) {
	for j := from; j < from+n && j < len(used); j++ {
		used[j] = true
	}
}

// timeAt reads a time starting at words[i] and returns how many words it spans.
func timeAt(words []word, i int) (string, int, bool) {
	w := words[i].lower
	switch w {
	case "noon", "midday":
		return "12:00", 1, true
	case "midnight":
		return "00:00", 1, true
	}
	if m := clock24.FindStringSubmatch(w); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		if i+1 < len(words) && (words[i+1].lower == "am" || words[i+1].lower == "pm") && h >= 1 && h <= 12 {
			return format12(h, mins, words[i+1].lower), 2, true
		}
		return fmt.Sprintf("%02d:%02d", h, mins), 1, true
	}
	m := clock12.FindStringSubmatch(w)
	if m == nil {
		return "", 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins := 0
	if m[2] != "" {
		mins, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		return format12(h, mins, m[3]), 1, true
	}
	if i+1 < len(words) {
		switch next := words[i+1].lower; next {
		case "am", "pm":
			return format12(h, mins, next), 2, true
		case "o'clock":
			return fmt.Sprintf("%02d:%02d", h, mins), 2, true
		}
	}
	return "", 0, false
}

func format12(h, mins int, meridiem string) string {
	h %= 12
	if meridiem == "pm" {
		h += 12
	}
	return fmt.Sprintf("%02d:%02d", h, mins)
}

// dateAt reads a date starting at words[i] and returns how many words it spans.
func dateAt(words []word, i int, now time.Time) (string, int, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	w := words[i].lower

	switch w {
	case "today", "tonight":
		return today.Format(dateLayout), 1, true
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format(dateLayout), 1, true
	case "next":
		if i+1 < len(words) {
			if wd, ok := weekdays[words[i+1].lower]; ok {
				return nextWeekday(today, wd).Format(dateLayout), 2, true
			}
		}
		return "", 0, false
	}
	if wd, ok := weekdays[w]; ok {
		return nextWeekday(today, wd).Format(dateLayout), 1, true
	}

	if m := isoDate.FindStringSubmatch(w); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return calendar(y, mo, d, now.Location())
	}
	if m := numericDate.FindStringSubmatch(w); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if m[3] == "" {
			return upcoming(today, time.Month(mo), d, 1)
		}
		y, _ := strconv.Atoi(m[3])
		if y < 100 {
			y += 2000
		}
		return calendar(y, mo, d, now.Location())
	}

	// 17th january, 17 of jan 2022
	if m := ordinal.FindStringSubmatch(w); m != nil {
		j := i + 1
		if j < len(words) && words[j].lower == "of" {
			j++
		}
		if j < len(words) {
			if mo, ok := months[words[j].lower]; ok {
				d, _ := strconv.Atoi(m[1])
				return withYear(words, j+1, today, mo, d, j+1-i)
			}
		}
		return "", 0, false
	}

	// january 17th
	if mo, ok := months[w]; ok && i+1 < len(words) {
		if m := ordinal.FindStringSubmatch(words[i+1].lower); m != nil {
			d, _ := strconv.Atoi(m[1])
			return withYear(words, i+2, today, mo, d, 2)
		}
	}
	return "", 0, false
}

// withYear reads an optional year at words[j] after a day and month spanning n words.
func withYear(words []word, j int, today time.Time, mo time.Month, d, n int) (string, int, bool) {
	if j < len(words) && year.MatchString(words[j].lower) {
		y, _ := strconv.Atoi(words[j].lower)
		v, _, ok := calendar(y, int(mo), d, today.Location())
		return v, n + 1, ok
	}
	return upcoming(today, mo, d, n)
}

// upcoming resolves a day and month without a year to its next occurrence.
func upcoming(today time.Time, mo time.Month, d, n int) (string, int, bool) {
	v, _, ok := calendar(today.Year(), int(mo), d, today.Location())
	if !ok {
		return "", 0, false
	}
	if v < today.Format(dateLayout) {
		v, _, ok = calendar(today.Year()+1, int(mo), d, today.Location())
	}
	return v, n, ok
}

// calendar rejects dates that time.Date would normalise, such as 31/02.
func calendar(y, mo, d int, loc *time.Location) (string, int, bool) {
	if mo < 1 || mo > 12 || d < 1 {
		return "", 0, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		return "", 0, false
	}
	return t.Format(dateLayout), 1, true
}

// nextWeekday is the first wd strictly after today.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}
