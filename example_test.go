package railchat_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/domain"
)

// ExampleEngine_Turn runs one turn over an in-memory station directory. The engine asks
// for the next missing slot of the journey.
func ExampleEngine_Turn() {
	engine, err := railchat.New(
		railchat.WithStations(memory.NewDirectory(memory.SampleStations...)),
	)
	if err != nil {
		log.Fatal(err)
	}

	sess := domain.NewSession("example")
	res, err := engine.Turn(context.Background(), sess, domain.Extraction{
		Intent:      domain.IntentTicket,
		FromStation: "Norwich",
		ToStation:   "Diss",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.Messages[len(res.Messages)-1].Text)
	fmt.Println(sess.Slots[domain.SlotFromCode], sess.Slots[domain.SlotToCode])
	// Output:
	// What date are you leaving?
	// NRW DIS
}
