package gemini

// Wire types for the generative-language REST API. Field names follow the
// JSON the endpoint expects; optional fields are pointers or omitempty so
// absence is explicit rather than a zero-value conflation.

// Content is one role-tagged turn in a request or response.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single unit of turn content: text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64-encoded media, e.g. an image for vision input.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// TextPart builds a plain text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// UserTurn builds a single-part user turn.
func UserTurn(text string) Content {
	return Content{Role: "user", Parts: []Part{TextPart(text)}}
}

// ModelTurn builds a single-part model turn.
func ModelTurn(text string) Content {
	return Content{Role: "model", Parts: []Part{TextPart(text)}}
}

// GenerationConfig holds the sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	TopP               float64  `json:"topP,omitempty"`
	TopK               int      `json:"topK,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// SafetySetting is one category threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// Request is the generateContent request body.
type Request struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []SafetySetting  `json:"safetySettings,omitempty"`
}

// SafetyRating is the per-category verdict attached to candidates and
// prompt feedback.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content       Content        `json:"content"`
	FinishReason  string         `json:"finishReason"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// PromptFeedback reports why a prompt itself was rejected.
type PromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// APIError is the provider's structured error payload.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Response is the generateContent response envelope.
type Response struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	Error          *APIError       `json:"error,omitempty"`
}

// ModelInfo is one entry from the model listing endpoint.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// modelListResponse is the models listing envelope.
type modelListResponse struct {
	Models []ModelInfo `json:"models"`
	Error  *APIError   `json:"error,omitempty"`
}

// Diagnostic describes a completed call that produced no usable text for a
// reason other than an error: a safety block, a length cutoff, or a rejected
// prompt. It is surfaced as a warning, never as an error.
type Diagnostic struct {
	FinishReason  string
	BlockReason   string
	SafetyRatings []SafetyRating
}
