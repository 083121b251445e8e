/*
Package railchat is a forward-chaining dialog engine for a train travel assistant.

A conversation collects trip details over several turns (stations, dates, times and
return preference) and drives them to a resolution: a fare quote or a delay estimate.
Every turn replays the confirmed slots of the session into a fresh working memory, then
fires slot transition rules by salience until none applies. The rules decide what to ask
next, validate the answers, and call out to the fare, delay and help collaborators.

# Concept

The engine is stateless. The Session value carries the slots confirmed so far and is
owned by the caller, usually through a session.Manager keyed by conversation ID. This
keeps concurrent conversations independent.

# Usage

	eng, err := railchat.New(
		railchat.WithFares(nationalrail.New()),
	)
	if err != nil {
		log.Fatal(err)
	}

	sess := domain.NewSession("conversation-1")
	res, err := eng.Turn(ctx, sess, domain.Extraction{
		Intent:      domain.IntentTicket,
		FromStation: "Norwich",
		ToStation:   "Diss",
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, msg := range res.Messages {
		fmt.Println(msg.Text)
	}

Free text is turned into an Extraction by pkg/extract. The cmd/railchat binary wires the
engine to a terminal REPL, an HTTP and WebSocket server and an MCP server.
*/
package railchat
