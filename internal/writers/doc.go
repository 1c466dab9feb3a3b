// Package writers turns per-tick readouts into serialized outputs.
//
// Writers own all presentation knowledge (text, TSV, JSON, JSONL).
// The engine stays domain-only; JSON and JSONL go through pkg/api (v1).
package writers
