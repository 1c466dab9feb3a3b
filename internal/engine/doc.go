// Package engine contains the rack heat/burnout simulation core. It never
// imports app, writers, cli, scenario or output; keep it domain-only.
//
// External outputs must not depend on the internal shape here; use pkg/api
// for stable wire types (JSON/JSONL v1).
package engine
