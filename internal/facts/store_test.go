package facts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/internal/facts"
	"github.com/aretw0/railchat/pkg/domain"
)

func TestStore_AssertReplacesSameKind(t *testing.T) {
	s := facts.New()

	assert.True(t, s.Assert(domain.NewFact(domain.KindQueryType, domain.AttrValue, "ticket")))
	rev := s.Revision()

	assert.False(t, s.Assert(domain.NewFact(domain.KindQueryType, domain.AttrValue, "ticket")), "identical re-assert is a no-op")
	assert.Equal(t, rev, s.Revision())

	assert.True(t, s.Assert(domain.NewFact(domain.KindQueryType, domain.AttrValue, "delay")))
	assert.Equal(t, 1, s.Len())

	f, ok := s.Get(domain.KindQueryType)
	require.True(t, ok)
	assert.Equal(t, "delay", f.Get(domain.AttrValue))
}

func TestStore_RetractAndOrder(t *testing.T) {
	s := facts.New(
		domain.NewFact(domain.KindQueryType, domain.AttrValue, "ticket"),
		domain.NewFact(domain.KindDeparture, domain.AttrName, "Norwich", domain.AttrCode, "NRW"),
		domain.NewFact(domain.KindArrival, domain.AttrName, "London Liverpool Street", domain.AttrCode, "LST"),
	)

	assert.True(t, s.Retract(domain.KindDeparture))
	assert.False(t, s.Retract(domain.KindDeparture))

	got := s.Facts()
	require.Len(t, got, 2)
	assert.Equal(t, domain.KindQueryType, got[0].Kind)
	assert.Equal(t, domain.KindArrival, got[1].Kind)

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestStore_FactsAreCopies(t *testing.T) {
	s := facts.New(domain.NewFact(domain.KindDeparture, domain.AttrName, "Norwich"))

	f, _ := s.Get(domain.KindDeparture)
	f.Attrs[domain.AttrName] = "Diss"

	assert.True(t, s.Has(domain.KindDeparture, map[string]string{domain.AttrName: "Norwich"}))
	assert.False(t, s.Has(domain.KindDeparture, map[string]string{domain.AttrName: "Diss"}))
}

func TestStore_Match(t *testing.T) {
	s := facts.New(
		domain.NewFact(domain.KindQueryType, domain.AttrValue, "ticket"),
		domain.NewFact(domain.KindDeparture, domain.AttrName, "Norwich", domain.AttrCode, "NRW"),
		domain.NewFact(domain.KindArrival, domain.AttrName, "Norwich", domain.AttrCode, "NRW"),
	)

	t.Run("value constraint", func(t *testing.T) {
		got := s.Match([]facts.Pattern{
			facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Is("ticket", "delay").Bind("q")),
		})
		require.Len(t, got, 1)
		assert.Equal(t, "ticket", got[0]["q"])
	})

	t.Run("value mismatch", func(t *testing.T) {
		got := s.Match([]facts.Pattern{
			facts.P(domain.KindQueryType).Where(domain.AttrValue, facts.Is("help")),
		})
		assert.Empty(t, got)
	})

	t.Run("join on shared variable", func(t *testing.T) {
		got := s.Match([]facts.Pattern{
			facts.P(domain.KindDeparture).Where(domain.AttrCode, facts.Var("c")),
			facts.P(domain.KindArrival).Where(domain.AttrCode, facts.Var("c")),
		})
		require.Len(t, got, 1)
		assert.Equal(t, "NRW", got[0]["c"])
	})

	t.Run("missing kind", func(t *testing.T) {
		got := s.Match([]facts.Pattern{facts.P(domain.KindReturnFlag)})
		assert.Nil(t, got)
	})

	t.Run("empty patterns match once", func(t *testing.T) {
		assert.Len(t, s.Match(nil), 1)
	})
}

func TestStore_MatchJoinConflict(t *testing.T) {
	s := facts.New(
		domain.NewFact(domain.KindDeparture, domain.AttrCode, "NRW"),
		domain.NewFact(domain.KindArrival, domain.AttrCode, "LST"),
	)
	got := s.Match([]facts.Pattern{
		facts.P(domain.KindDeparture).Where(domain.AttrCode, facts.Var("c")),
		facts.P(domain.KindArrival).Where(domain.AttrCode, facts.Var("c")),
	})
	assert.Empty(t, got)
}

func TestBindings_Key(t *testing.T) {
	a := facts.Bindings{"b": "2", "a": "1"}
	b := facts.Bindings{"a": "1", "b": "2"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "a=1;b=2;", a.Key())
}

func TestStore_Stamps(t *testing.T) {
	s := facts.New()
	assert.Zero(t, s.Stamp(domain.KindReturnFlag))

	s.Assert(domain.NewFact(domain.KindReturnFlag, domain.AttrValue, "true"))
	first := s.Stamp(domain.KindReturnFlag)
	assert.NotZero(t, first)

	s.Assert(domain.NewFact(domain.KindReturnFlag, domain.AttrValue, "true"))
	assert.Equal(t, first, s.Stamp(domain.KindReturnFlag))

	s.Assert(domain.NewFact(domain.KindReturnFlag, domain.AttrValue, "false"))
	assert.NotEqual(t, first, s.Stamp(domain.KindReturnFlag))

	s.Retract(domain.KindReturnFlag)
	assert.Zero(t, s.Stamp(domain.KindReturnFlag))
	assert.Equal(t, uint64(1), s.Retractions(domain.KindReturnFlag))
}
