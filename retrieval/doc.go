// Package retrieval answers questions from the vector index and decides,
// through a confidence gate, whether the nearest stored question is close
// enough to reuse its answer.
//
// Cosine distance d from the index is converted with Similarity(d) = 1 - d/2,
// clamped to [0, 1]. The gate accepts the best hit when its similarity is at
// least the threshold (0.70 by default). Rejected hits are kept so the
// generation chain can use them as grounding context.
//
// The index is opened lazily through a Handle. If opening fails the stage is
// marked unavailable for the life of the process and every lookup misses.
package retrieval
