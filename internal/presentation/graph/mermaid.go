package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/railchat/internal/runtime"
)

// Overlay contains the outcome of a turn to visualize on the graph.
type Overlay struct {
	Fired []string
	Kinds []string
}

// GenerateMermaid produces a Mermaid flowchart of the rule catalog.
//
// Fact kinds are drawn as ((circles)) and rules as [rectangles] labelled with their
// salience. A solid arrow runs from each kind a rule matches to the rule; a dotted
// arrow runs from the rule to each kind whose absence it requires, which is the slot
// the rule settles. Fired rules and present kinds are styled when an overlay is given.
func GenerateMermaid(rules []runtime.RuleInfo, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	kinds := make(map[string]bool)
	for _, r := range rules {
		for _, m := range r.Match {
			kinds[kindOf(m)] = true
		}
		for _, a := range r.Absent {
			kinds[a] = true
		}
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&sb, "    %s((\"%s\"))\n", kindID(k), k)
	}

	for _, r := range rules {
		id := ruleID(r.Name)
		fmt.Fprintf(&sb, "    %s[\"%s <br/> %d\"]\n", id, r.Name, r.Salience)
		for _, m := range r.Match {
			arrow := "-->"
			if cond := conditionOf(m); cond != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(cond, "\"", "'"))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", kindID(kindOf(m)), arrow, id)
		}
		for _, a := range r.Absent {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", id, kindID(a))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps light fills readable on dark themes.
		sb.WriteString("    classDef fired fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef present fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Fired {
			if id := ruleID(name); !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s fired;\n", id)
			}
		}
		for _, k := range overlay.Kinds {
			if id := kindID(k); !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s present;\n", id)
			}
		}
	}

	return sb.String()
}

// kindOf strips the attribute constraints from a described pattern.
func kindOf(pattern string) string {
	if i := strings.IndexByte(pattern, '('); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

func conditionOf(pattern string) string {
	i := strings.IndexByte(pattern, '(')
	if i < 0 || !strings.HasSuffix(pattern, ")") {
		return ""
	}
	return pattern[i+1 : len(pattern)-1]
}

func kindID(kind string) string {
	return "k_" + sanitizeMermaidID(kind)
}

func ruleID(name string) string {
	return "r_" + sanitizeMermaidID(name)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
