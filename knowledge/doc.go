// Package knowledge holds the curated legal knowledge base and the tiered
// matcher that routes questions to it.
//
// Lookup runs three stages in order and stops at the first hit:
//
//  1. Exact phrase: a registered phrase appears in the question
//  2. Keyword: a registered keyword appears as a whole word
//  3. Fuzzy overlap: the entry whose key words overlap the question most
//
// The built-in base is compiled from data/knowledge.yaml. Operators can
// replace it with LoadFile using the same format.
package knowledge
