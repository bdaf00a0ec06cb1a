package llm

import (
	"context"
	"encoding/json"
)

// GenerateRequest is a single instruction for the model backend. When
// ResponseSchema is set the backend is asked for structured JSON output
// matching the schema; otherwise free-form text is returned.
type GenerateRequest struct {
	// Instruction is the system-level behavior for this call.
	Instruction string
	// Input is the user-turn content (scraped page, stage state, etc).
	Input string
	// ResponseSchema optionally constrains the output to a JSON schema.
	ResponseSchema json.RawMessage
}

// GenerateResponse carries the model's raw text output. Structured-output
// calls return the JSON document as text; callers unmarshal and validate.
type GenerateResponse struct {
	Text string
}

// Backend is the model provider consumed by the pipeline. Implementations
// must be safe for concurrent use and should surface provider failures as
// errors whose text preserves the status markers the classifier matches
// (429, RESOURCE_EXHAUSTED, retryDelay, 503, ...).
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
