/*
Package ports defines the driven ports (interfaces) of the railchat dialog engine.

These interfaces decouple the rule catalog from the outside world: the stations it
resolves, the fares and delays it looks up, the help it answers with, where replies go
and where sessions are kept between turns.

# Key Interfaces

  - StationDirectory: resolves free-text station names to CRS codes.
  - FareFinder: quotes the cheapest single or return fare for a journey.
  - DelayPredictor: predicts arrival delay from a delay observed at the departure station.
  - HelpSource: answers help topics.
  - MessageSink: receives the replies of a turn.
  - SessionStore: persists the per-conversation accumulator.
  - DistributedLocker: coordinates session access across instances.
*/
package ports
