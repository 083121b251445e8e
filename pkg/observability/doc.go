/*
Package observability provides tools for monitoring the railchat engine.

The engine reports turns, rule firings and collaborator calls through
domain.LifecycleHooks. This package turns those callbacks into Prometheus
metrics and debug logs, and merges several hook sets into one.
*/
package observability
