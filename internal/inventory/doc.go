// Package inventory provides the ingestion, normalization and aggregation
// pipeline behind the inventory dashboard.
//
// The package is independent of any transport. Web handlers, CLI tools or
// tests drive it through [Service] or call the pure functions directly.
//
// # Pipeline
//
//  1. [DetectFormat] maps a file name to a [Format]; unknown extensions are
//     rejected with [*UnsupportedFormatError] before any bytes are parsed.
//  2. [Parse] decodes delimited text or the first sheet of a spreadsheet into
//     ordered [Row] values keyed by the header row. Every row gets a 1-based id.
//  3. [Service.Ingest] swaps the rows in as a new immutable [Snapshot] and
//     publishes an "updated" [Event] to subscribers.
//  4. Readers take [Service.Snapshot] and call [AggregateBy],
//     [TimeSeriesByPurchaseDate], [Query] or [Summarize] against it.
//
// # Semantic fields
//
// Inventory exports spell the same column many ways ("location", "Location",
// "ubicacion"). [CanonicalValue] resolves a [SemanticField] through a fixed
// priority list of accepted keys and falls back to a per-field label when no
// key is present. Rows are never rewritten; resolution happens at read time.
//
// # Concurrency
//
// Exactly one write (ingest or delete) runs at a time, enforced by a
// [WriteGate]. Readers load the current snapshot pointer and never block;
// a reader holding version N keeps seeing version N after a swap.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Missing semantic fields and unparseable dates are not errors: the former
// fall back to a label, the latter are left out of the time series.
package inventory
