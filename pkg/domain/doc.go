/*
Package domain contains the core domain models of the railchat dialog engine.

It defines the facts the rule engine reasons over, the per-turn Extraction record
produced by the language layer, the durable per-conversation Session accumulator and
the outbound messages a turn produces. The package is kept free of I/O and persistence.

# Key Entities

  - Fact: a typed assertion (Kind + attributes) living in working memory for one turn.
  - Extraction: the structured reading of one user message.
  - Session: the conversation's confirmed slot values, replayed into facts every turn.
  - Message: a plain text or choice-list reply emitted by a rule.
*/
package domain
