// Package cce implements the context compression engine: a deterministic,
// reversible pipeline that shrinks older prose turns in an LLM conversation
// while passing code, structured data, secrets, and recent turns through
// verbatim.
//
// Compress classifies every message, deduplicates exact and near-duplicate
// content, groups consecutive same-role messages, summarizes each group
// with a deterministic sentence scorer (or an optional pluggable LLM
// Summarizer), and stamps provenance so the transformation can be undone.
// Uncompress walks a compressed sequence and a verbatim side-store to
// restore the original messages byte-for-byte.
//
// The package has no network, persistence, or concurrency dependencies;
// everything runs synchronously in memory. An external Summarizer may be
// supplied for LLM-backed summarization (see MakeSummarizer and
// MakeEscalatingSummarizer); the core only ever calls it through the
// Summarizer interface and always re-validates its output with the same
// size guard applied to the deterministic path.
package cce
