// Package testutil provides shared fixtures and helpers for tests:
// canned service-catalog blobs, config/listing endpoint payloads, and
// context helpers.
package testutil
