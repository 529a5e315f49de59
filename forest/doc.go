// Package forest reconstructs per-trace span trees from the flat append-only
// log written by the store package.
//
// Reconstruction is a three-step pipeline: Load reads every persisted record
// (skipping malformed lines), GroupByTrace partitions them per trace id, and
// BuildForest rebuilds each trace's parent-child tree. The resulting nodes,
// walked depth-first, are the sole input handed to rendering collaborators.
package forest
