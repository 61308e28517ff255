package engine

import "time"

// Method identifies which evidence category produced a match.
type Method string

const (
	MethodUserAgent Method = "user_agent"
	MethodIPRange   Method = "ip_range"
	MethodHeaders   Method = "headers"
)

// NormalizedRequest is the framework-agnostic record detection operates on.
// Every field may be empty: real-world requests can omit anything, and
// absence is never an error. Method, Path, and Query are carried for audit
// and event logging only — they play no part in classification.
type NormalizedRequest struct {
	UserAgent string            `json:"user_agent"`
	IPAddress string            `json:"ip_address"`
	Headers   map[string]string `json:"headers,omitempty"`
	Method    string            `json:"method,omitempty"`
	Path      string            `json:"path,omitempty"`
	Query     map[string]string `json:"query,omitempty"`
}

// DetectionResult is the outcome of one classification. Constructed once per
// detection call and immutable thereafter; the engine never retains a
// reference after returning it.
type DetectionResult struct {
	IsBot           bool              `json:"is_bot"`
	BotType         string            `json:"bot_type,omitempty"`
	Confidence      float64           `json:"confidence"`
	DetectionMethod Method            `json:"detection_method,omitempty"`
	UserAgent       string            `json:"user_agent,omitempty"`
	IPAddress       string            `json:"ip_address,omitempty"`
	Metadata        map[string]string `json:"metadata"`
	Timestamp       time.Time         `json:"timestamp"`
}
