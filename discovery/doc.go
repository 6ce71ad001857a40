// Package discovery resolves a usable model catalog for bindings that do
// not declare a model: config endpoint first for rich capability metadata,
// then the generic OpenAI-wire listing endpoint as fallback. The first
// successful snapshot is memoized until the caller invalidates it.
package discovery
