// Package binding classifies externally issued credential records into a
// closed set of formats and resolves layered credential sources into one
// validated genai.Credentials.
package binding
