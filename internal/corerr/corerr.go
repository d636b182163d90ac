// Package corerr defines the error kinds named in the specification's
// error-handling design, so call sites can classify failures with
// errors.Is instead of string matching.
package corerr

import "errors"

var (
	// ErrEmbedderUnavailable is returned when the configured embedding
	// backend could not be constructed; the Memory Manager also wraps
	// failed embed calls with it. No local model snapshot is tried as a
	// fallback.
	ErrEmbedderUnavailable = errors.New("embedder unavailable")
	// ErrStorage wraps persistence-layer failures that call sites should
	// log and swallow rather than surface to the user.
	ErrStorage = errors.New("storage error")
	// ErrModelTransport wraps a failed or interrupted call to the
	// LanguageModel capability.
	ErrModelTransport = errors.New("model transport error")
	// ErrModelParse is returned when the model's output could not be
	// interpreted (malformed JSON from the extractor, etc).
	ErrModelParse = errors.New("model parse error")
	// ErrToolNotFound is returned when a tool call names an unregistered
	// or disallowed tool.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolExecution wraps a failure raised by a tool's own Execute.
	ErrToolExecution = errors.New("tool execution error")
	// ErrInvalidParameter is returned for malformed caller input.
	ErrInvalidParameter = errors.New("invalid parameter")
)
