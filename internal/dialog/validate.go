package dialog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts of date and time slot values.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// BookingWindow is how far ahead fares can be booked.
const BookingWindow = 11 * 7 * 24 * time.Hour

func normalizeDate(s string) (string, bool) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return d.Format(DateLayout), true
}

func normalizeTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04:05", "3:04pm", "3pm"} {
		if tm, err := time.Parse(layout, strings.ToLower(s)); err == nil {
			return tm.Format(TimeLayout), true
		}
	}
	return "", false
}

func lastBookable(now time.Time) string {
	return now.Add(BookingWindow).Format(DateLayout)
}

var delayPattern = regexp.MustCompile(`(?i)(\d+)\s*(minutes?|mins?|m\b|hours?|hrs?|h\b)`)

// parseDelay reads a delay in minutes from free text such as "20 minutes" or "1 hour".
func parseDelay(text string) (int, bool) {
	m := delayPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "h") {
		n *= 60
	}
	return n, true
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}
