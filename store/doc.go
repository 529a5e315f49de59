// Package store persists finalized span records as an append-only JSON Lines
// log.
//
// Each record is serialized to one self-contained line. A per-store mutex
// makes Append safe under concurrent callers without interleaving bytes from
// different records. The sink's parent directory is created lazily before the
// first write, and each write is optionally synced for durability.
package store
