// Package ingestion builds the vector index from curated legal content.
//
// The Pipeline turns question/answer items into embedding records:
//   - knowledge base entries expand into several question phrasings
//   - entry aliases (DL, FIR, ...) expand into abbreviation phrasings
//   - Q:/A: FAQ files are parsed with their category headers
//
// Items are deduplicated, embedded in batches on a worker pool with retry
// and exponential backoff, then written to the index either wholesale
// (Rebuild) or incrementally (Add).
package ingestion
