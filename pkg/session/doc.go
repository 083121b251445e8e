/*
Package session keeps one accumulator per conversation and runs turns against it.

A Manager loads the accumulator of a conversation, hands it to the engine for one turn
and saves the result. Turns of the same conversation are serialised with a local
mutex and, when a DistributedLocker is configured, a lock shared across replicas.
Turns of different conversations never share state.
*/
package session
