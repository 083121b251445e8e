package nationalrail

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aretw0/railchat/pkg/domain"
)

var (
	pricePattern  = regexp.MustCompile(`£\s*\d+(?:\.\d{2})?`)
	amountPattern = regexp.MustCompile(`\d+\.\d{2}`)
	timePattern   = regexp.MustCompile(`[0-2][0-9]:[0-5][0-9]`)
)

// Error pages are recognised by their title.
const (
	titleUnavailable = "National Rail Enquiries -"
	titlePlanner     = "Your UK Train Journey Planner - National Rail Enquiries"
	titleNotFound    = "National Rail Enquiries - Oh no! We can't find that page"
)

func checkTitle(doc *html.Node) error {
	n := find(doc, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if n == nil {
		return nil
	}
	title := strings.TrimSpace(text(n))
	switch {
	case title == titleUnavailable:
		return &domain.LookupError{Service: "fares", Reason: "this journey is not available, check that the date is not a bank holiday and that there is a route between the stations"}
	case strings.HasPrefix(title, titlePlanner):
		return &domain.LookupError{Service: "fares", Reason: "the station names or journey times were not accepted"}
	case title == titleNotFound:
		return &domain.LookupError{Service: "fares", Reason: "the results page had a technical issue, try again later"}
	}
	return nil
}

func cheapestSingle(doc *html.Node) (price, departs string, ok bool) {
	label := find(doc, withClass("cheapest"))
	if label == nil {
		return "", "", false
	}
	fare := nearest(label, withClass("opsingle"))
	if fare == nil {
		return "", "", false
	}
	price = pricePattern.FindString(text(fare))
	departs = departure(label)
	if price == "" || departs == "" {
		return "", "", false
	}
	return strings.ReplaceAll(price, " ", ""), departs, true
}

func cheapestReturn(doc *html.Node) (price, out, back string, ok bool) {
	button := find(doc, func(n *html.Node) bool { return attr(n, "id") == "buyCheapestButton" })
	if button == nil {
		return "", "", "", false
	}
	amount := amountPattern.FindString(text(button))
	if amount == "" {
		return "", "", "", false
	}

	var times []string
	for _, label := range findAll(doc, withClass("cheapest")) {
		if t := departure(label); t != "" {
			times = append(times, t)
		}
	}
	// No cheapest fare is marked on the return leg: use its first listed train.
	if len(times) == 1 {
		if cells := findAll(doc, withClass("first", "mtx")); len(cells) > 1 {
			if t := timePattern.FindString(text(cells[1])); t != "" {
				times = append(times, t)
			}
		}
	}
	if len(times) < 2 {
		return "", "", "", false
	}
	return "£" + amount, times[0], times[1], true
}

// departure finds the first time in the journey breakdown of the row holding label.
func departure(label *html.Node) string {
	breakdown := nearest(label, withClass("journey-breakdown"))
	if breakdown == nil {
		return ""
	}
	return timePattern.FindString(text(breakdown))
}

// nearest searches the subtrees of label's ancestors, closest first.
func nearest(label *html.Node, match func(*html.Node) bool) *html.Node {
	for p := label.Parent; p != nil; p = p.Parent {
		if n := find(p, match); n != nil {
			return n
		}
	}
	return nil
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func withClass(names ...string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		classes := strings.Fields(attr(n, "class"))
		for _, want := range names {
			found := false
			for _, c := range classes {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
