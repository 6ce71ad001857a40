// Package genai holds the core value types shared by the binding resolver,
// the model discovery engine, and the request-execution layer: canonical
// credentials, the model catalog, and the error taxonomy with its HTTP
// status classifier.
package genai
