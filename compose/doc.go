// Package compose turns a resolved answer into the response returned to the
// caller. It optionally re-expresses the answer in the structured
// Answer / Legal Reference / Explanation / Next Steps layout and translates
// it when the query asked for another language.
//
// Composition never fails. A translator error or timeout leaves the answer
// in English and is only logged.
package compose
