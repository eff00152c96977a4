package models

// ChatRequest is a user message sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// Source is a retrieved document that informed a chat response.
type Source struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Score    float64                `json:"score"`
}

// ChatResponse is the answer to a chat request. Sources is empty when the
// response came from the fallback responder.
type ChatResponse struct {
	Response string    `json:"response"`
	Sources  []*Source `json:"sources"`
	// Fallback is true when the LLM backend was unavailable and the
	// deterministic responder produced the answer.
	Fallback bool `json:"fallback,omitempty"`
}
