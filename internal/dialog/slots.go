package dialog

import (
	"github.com/aretw0/railchat/internal/facts"
	"github.com/aretw0/railchat/pkg/domain"
)

// binding ties one fact attribute to the session slot that stores it.
type binding struct {
	attr string
	slot string
}

// slotTable maps every persistent fact kind to its slots. A kind is seeded only when
// all of its slots are set.
var slotTable = []struct {
	kind  domain.Kind
	slots []binding
}{
	{domain.KindQueryType, []binding{{domain.AttrValue, domain.SlotIntent}}},
	{domain.KindDeparture, []binding{{domain.AttrName, domain.SlotFromStation}, {domain.AttrCode, domain.SlotFromCode}}},
	{domain.KindArrival, []binding{{domain.AttrName, domain.SlotToStation}, {domain.AttrCode, domain.SlotToCode}}},
	{domain.KindDelayTime, []binding{{domain.AttrMinutes, domain.SlotDelayMinutes}}},
	{domain.KindDepartureDate, []binding{{domain.AttrDate, domain.SlotOutwardDate}}},
	{domain.KindLeavingTime, []binding{{domain.AttrTime, domain.SlotOutwardTime}}},
	{domain.KindReturnFlag, []binding{{domain.AttrValue, domain.SlotReturnFlag}}},
	{domain.KindReturnDate, []binding{{domain.AttrDate, domain.SlotReturnDate}}},
	{domain.KindReturnTime, []binding{{domain.AttrTime, domain.SlotReturnTime}}},
	{domain.KindCorrectBooking, []binding{{domain.AttrValue, domain.SlotConfirmed}}},
	{domain.KindHelpType, []binding{{domain.AttrTopic, domain.SlotHelpTopic}}},
	{domain.KindHelpAnswered, []binding{{domain.AttrValue, domain.SlotHelpAnswered}}},
}

func bindingsOf(kind domain.Kind) []binding {
	for _, row := range slotTable {
		if row.kind == kind {
			return row.slots
		}
	}
	return nil
}

// Seed converts slots into facts, in dialog order.
func Seed(slots domain.Slots) []domain.Fact {
	var out []domain.Fact
	for _, row := range slotTable {
		f := domain.Fact{Kind: row.kind, Attrs: make(map[string]string, len(row.slots))}
		complete := true
		for _, b := range row.slots {
			v := slots[b.slot]
			if v == "" {
				complete = false
				break
			}
			f.Attrs[b.attr] = v
		}
		if complete {
			out = append(out, f)
		}
	}
	return out
}

// settle asserts a fact built from attr/value pairs and records its slots.
func (t *Turn) settle(store *facts.Store, kind domain.Kind, pairs ...string) {
	f := domain.NewFact(kind, pairs...)
	store.Assert(f)
	for _, b := range bindingsOf(kind) {
		if v, ok := f.Attrs[b.attr]; ok {
			t.Slots[b.slot] = v
		}
	}
}

// unsettle retracts facts of the given kinds and forgets their slots.
func (t *Turn) unsettle(store *facts.Store, kinds ...domain.Kind) {
	for _, k := range kinds {
		store.Retract(k)
		for _, b := range bindingsOf(k) {
			delete(t.Slots, b.slot)
		}
	}
}

// forget clears working memory and the whole accumulator.
func (t *Turn) forget(store *facts.Store) {
	store.Clear()
	t.Slots = make(domain.Slots)
}
