package engine

import (
	"testing"

	"github.com/triage-ai/crawlgate/internal/patterns"
)

func defaultRegistry(t *testing.T) *patterns.Registry {
	t.Helper()
	return patterns.NewWithDefaults()
}

func TestDetect_GPTBotUserAgent(t *testing.T) {
	req := &NormalizedRequest{UserAgent: "GPTBot/1.0"}

	result := Detect(req, defaultRegistry(t), 0.7)

	if !result.IsBot {
		t.Fatal("expected bot classification")
	}
	if result.BotType != "openai" {
		t.Errorf("expected bot_type openai, got %q", result.BotType)
	}
	if result.DetectionMethod != MethodUserAgent {
		t.Errorf("expected user_agent method, got %q", result.DetectionMethod)
	}
	if result.Confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %v", result.Confidence)
	}
	if result.Metadata["matched_pattern"] != "GPTBot" {
		t.Errorf("expected matched_pattern GPTBot, got %q", result.Metadata["matched_pattern"])
	}
	if result.Metadata["full_user_agent"] != "GPTBot/1.0" {
		t.Errorf("unexpected full_user_agent: %q", result.Metadata["full_user_agent"])
	}
}

func TestDetect_HumanBrowser(t *testing.T) {
	req := &NormalizedRequest{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		IPAddress: "192.168.1.1",
	}

	result := Detect(req, defaultRegistry(t), 0.7)

	if result.IsBot {
		t.Fatalf("expected human classification, got bot %q", result.BotType)
	}
	if result.BotType != "" {
		t.Errorf("expected absent bot_type, got %q", result.BotType)
	}
	if result.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", result.Confidence)
	}
	if result.Metadata["detection_methods_tried"] != "user_agent,ip_range,headers" {
		t.Errorf("unexpected detection_methods_tried: %q", result.Metadata["detection_methods_tried"])
	}
}

func TestDetect_OpenAIIPRange(t *testing.T) {
	req := &NormalizedRequest{IPAddress: "20.171.1.1"}

	result := Detect(req, defaultRegistry(t), 0.7)

	if !result.IsBot {
		t.Fatal("expected bot classification by IP range")
	}
	if result.BotType != "openai" {
		t.Errorf("expected bot_type openai, got %q", result.BotType)
	}
	if result.DetectionMethod != MethodIPRange {
		t.Errorf("expected ip_range method, got %q", result.DetectionMethod)
	}
	if result.Metadata["matched_ip_range"] != "20.171.0.0/16" {
		t.Errorf("unexpected matched_ip_range: %q", result.Metadata["matched_ip_range"])
	}
}

func TestDetect_GenericAIBelowThreshold(t *testing.T) {
	// generic_ai has confidence 0.70: a structural match exists, but at
	// threshold 0.99 it must not be reported.
	req := &NormalizedRequest{UserAgent: "SomeAIBot/1.0"}

	result := Detect(req, defaultRegistry(t), 0.99)

	if result.IsBot {
		t.Fatalf("expected human classification at threshold 0.99, got bot %q", result.BotType)
	}
}

func TestDetect_ThresholdMonotonicity(t *testing.T) {
	reg := defaultRegistry(t)
	req := &NormalizedRequest{UserAgent: "SomeAIBot/1.0"}

	low := Detect(req, reg, 0.5)
	high := Detect(req, reg, 0.75)

	if !low.IsBot {
		t.Fatal("expected bot at threshold 0.5")
	}
	if low.BotType != "generic_ai" {
		t.Errorf("expected generic_ai, got %q", low.BotType)
	}
	if high.IsBot {
		t.Error("raising the threshold above the pattern confidence must flip the verdict to human")
	}
}

func TestDetect_UserAgentStageWinsOverIP(t *testing.T) {
	// UA matches anthropic, IP matches openai; both clear the threshold.
	// Stage ordering requires the user-agent verdict.
	req := &NormalizedRequest{
		UserAgent: "ClaudeBot/1.0",
		IPAddress: "20.171.1.1",
	}

	result := Detect(req, defaultRegistry(t), 0.7)

	if result.BotType != "anthropic" {
		t.Errorf("expected anthropic (user_agent stage), got %q", result.BotType)
	}
	if result.DetectionMethod != MethodUserAgent {
		t.Errorf("expected user_agent method, got %q", result.DetectionMethod)
	}
}

func TestDetect_BelowThresholdUAFallsThroughToIP(t *testing.T) {
	// A weak user-agent hit must not block a stronger IP-range hit: the
	// generic_ai UA match (0.70) is below threshold 0.8, but the openai IP
	// range (0.95) clears it.
	req := &NormalizedRequest{
		UserAgent: "SomeAIBot/1.0",
		IPAddress: "20.171.1.1",
	}

	result := Detect(req, defaultRegistry(t), 0.8)

	if !result.IsBot {
		t.Fatal("expected bot classification from the IP stage")
	}
	if result.BotType != "openai" {
		t.Errorf("expected openai via ip_range, got %q", result.BotType)
	}
	if result.DetectionMethod != MethodIPRange {
		t.Errorf("expected ip_range method, got %q", result.DetectionMethod)
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"lowercase", "gptbot/1.0", "openai"},
		{"uppercase", "GPTBOT/1.0", "openai"},
		{"mixed", "GpTbOt", "openai"},
		{"regex subject case", "ccbot/2.1", "common_crawl"},
	}

	reg := defaultRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Detect(&NormalizedRequest{UserAgent: tt.ua}, reg, 0.7)
			if !result.IsBot || result.BotType != tt.want {
				t.Errorf("ua %q: got bot=%v type=%q, want %q", tt.ua, result.IsBot, result.BotType, tt.want)
			}
		})
	}
}

func TestDetect_MalformedIPNonFatal(t *testing.T) {
	req := &NormalizedRequest{IPAddress: "not.an.ip"}

	result := Detect(req, defaultRegistry(t), 0.7)

	if result.IsBot {
		t.Fatal("malformed IP must yield no match")
	}
	if result.IPAddress != "not.an.ip" {
		t.Errorf("input IP must be echoed, got %q", result.IPAddress)
	}
}

func TestDetect_MalformedCIDRSkipped(t *testing.T) {
	reg := patterns.New()
	c := 0.9
	reg.Upsert("broken", patterns.Compile("broken", patterns.Definition{
		IPRanges:   []string{"999.0.0.0/8", "10.0.0.0/8"},
		Confidence: &c,
	}))

	result := Detect(&NormalizedRequest{IPAddress: "10.1.2.3"}, reg, 0.7)

	if !result.IsBot {
		t.Fatal("valid CIDR after a malformed one must still match")
	}
	if result.Metadata["matched_ip_range"] != "10.0.0.0/8" {
		t.Errorf("unexpected matched_ip_range: %q", result.Metadata["matched_ip_range"])
	}
}

func TestDetect_HeadersStage(t *testing.T) {
	req := &NormalizedRequest{
		Headers: map[string]string{"user-agent": "Mozilla/5.0 compatible; GPTBot/1.0"},
	}

	result := Detect(req, defaultRegistry(t), 0.7)

	if !result.IsBot {
		t.Fatal("expected bot classification from the header stage")
	}
	if result.DetectionMethod != MethodHeaders {
		t.Errorf("expected headers method, got %q", result.DetectionMethod)
	}
	if result.BotType != "openai" {
		t.Errorf("expected openai, got %q", result.BotType)
	}
	if result.Metadata["matched_header"] != "User-Agent" {
		t.Errorf("unexpected matched_header: %q", result.Metadata["matched_header"])
	}
	if result.Metadata["matched_value"] != "GPTBot" {
		t.Errorf("unexpected matched_value: %q", result.Metadata["matched_value"])
	}
}

func TestDetect_EmptyRequest(t *testing.T) {
	result := Detect(&NormalizedRequest{}, defaultRegistry(t), 0.7)

	if result.IsBot {
		t.Fatal("empty request must classify human")
	}
	if result.Metadata == nil {
		t.Fatal("metadata must never be nil")
	}
	if result.Timestamp.IsZero() {
		t.Error("timestamp must be captured at construction")
	}
}

func TestDetect_Deterministic(t *testing.T) {
	reg := defaultRegistry(t)
	req := &NormalizedRequest{UserAgent: "Bytespider", IPAddress: "40.83.1.1"}

	a := Detect(req, reg, 0.7)
	b := Detect(req, reg, 0.7)

	if a.IsBot != b.IsBot || a.BotType != b.BotType ||
		a.Confidence != b.Confidence || a.DetectionMethod != b.DetectionMethod {
		t.Errorf("detection must be deterministic: %+v vs %+v", a, b)
	}
}

func TestDetect_InsertionOrderWinsTies(t *testing.T) {
	// Two patterns match the same UA; the one inserted first must win.
	reg := patterns.New()
	c := 0.9
	reg.Upsert("first", patterns.Compile("first", patterns.Definition{
		UserAgents: []any{"samplebot"}, Confidence: &c,
	}))
	reg.Upsert("second", patterns.Compile("second", patterns.Definition{
		UserAgents: []any{"samplebot"}, Confidence: &c,
	}))

	result := Detect(&NormalizedRequest{UserAgent: "SampleBot/2.0"}, reg, 0.7)

	if result.BotType != "first" {
		t.Errorf("expected first-inserted pattern to win, got %q", result.BotType)
	}
}

func TestDetect_IPv6Range(t *testing.T) {
	reg := patterns.New()
	c := 0.9
	reg.Upsert("v6bot", patterns.Compile("v6bot", patterns.Definition{
		IPRanges:   []string{"2001:db8::/32"},
		Confidence: &c,
	}))

	result := Detect(&NormalizedRequest{IPAddress: "2001:db8::1"}, reg, 0.7)

	if !result.IsBot || result.BotType != "v6bot" {
		t.Errorf("expected IPv6 range match, got bot=%v type=%q", result.IsBot, result.BotType)
	}
}
