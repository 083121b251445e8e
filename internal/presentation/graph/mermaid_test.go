package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/railchat/internal/presentation/graph"
	"github.com/aretw0/railchat/internal/runtime"
)

var catalog = []runtime.RuleInfo{
	{Name: "ask-intent", Salience: 120, Absent: []string{"query_type"}},
	{Name: "ask-departure", Salience: 100, Match: []string{"query_type(value in ticket|delay)"}, Absent: []string{"departure"}},
	{Name: "ask-arrival", Salience: 95, Match: []string{"query_type(value in ticket|delay)", "departure(code=?from)"}, Absent: []string{"arrival"}},
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(catalog, nil)

	for _, want := range []string{
		"graph TD\n",
		`k_query_type(("query_type"))`,
		`r_ask_intent["ask-intent <br/> 120"]`,
		"r_ask_intent -.-> k_query_type",
		`k_query_type -- "value in ticket|delay" --> r_ask_departure`,
		`k_departure -- "code=?from" --> r_ask_arrival`,
		"r_ask_arrival -.-> k_arrival",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
	assert.Equal(t, 1, strings.Count(out, `k_departure(("departure"))`), "kinds are declared once")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := graph.GenerateMermaid(catalog, &graph.Overlay{
		Fired: []string{"ask-intent", "ask-departure", "ask-intent"},
		Kinds: []string{"query_type"},
	})

	assert.Contains(t, out, "classDef fired")
	assert.Equal(t, 1, strings.Count(out, "class r_ask_intent fired;"))
	assert.Contains(t, out, "class r_ask_departure fired;")
	assert.Contains(t, out, "class k_query_type present;")
	assert.NotContains(t, out, "class r_ask_arrival")
}
