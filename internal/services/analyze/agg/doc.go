// Package agg holds the fold/merge aggregators every report is built on.
//
// Each aggregator exposes Fold (mutates owned partial state from one event)
// and Merge (associative, commutative combination of two partials of the
// same kind). That algebra is the whole parallelism contract: partial state
// computed over any subset of events, in any order, merges to the same
// final state as a single sequential pass. Counts sum, timestamps take
// min/max, sets union, and "last non-empty wins" fields tie-break on the
// later observation time and then the lexically smaller source file path.
//
// A Bundle multiplexes a single pass over one event stream into every
// enabled aggregator, so the engine never re-reads a file to run a second
// analysis.
package agg
