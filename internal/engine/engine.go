package engine

import (
	"net/netip"
	"strings"
	"time"

	"github.com/triage-ai/crawlgate/internal/patterns"
)

// Detect classifies a normalized request against the pattern registry.
//
// Evaluation is a strict ordered short-circuit over three stages: user-agent
// first (strongest, cheapest signal), IP range second, headers last (weakest,
// most spoofable). A stage match only short-circuits when its confidence
// clears the threshold — a below-threshold structural match falls through so
// a weak user-agent hit cannot block a stronger IP-range hit. Within a stage,
// patterns are scanned in registry insertion order and the first matching
// entry wins.
//
// Detect never fails: malformed IP addresses and CIDR ranges are treated as
// "no match" and the caller always receives a result, defaulting to human.
func Detect(req *NormalizedRequest, reg *patterns.Registry, threshold float64) *DetectionResult {
	snap := reg.Snapshot()

	if m := checkUserAgent(req.UserAgent, snap); m != nil && m.pattern.Confidence >= threshold {
		return m.result(MethodUserAgent, req)
	}
	if m := checkIPRanges(req.IPAddress, snap); m != nil && m.pattern.Confidence >= threshold {
		return m.result(MethodIPRange, req)
	}
	if m := checkHeaders(req.Headers, snap); m != nil && m.pattern.Confidence >= threshold {
		return m.result(MethodHeaders, req)
	}

	return &DetectionResult{
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
		Metadata: map[string]string{
			"detection_methods_tried": "user_agent,ip_range,headers",
		},
		Timestamp: time.Now().UTC(),
	}
}

// stageMatch records a structural match within one stage.
type stageMatch struct {
	pattern  *patterns.BotPattern
	metadata map[string]string
}

func (m *stageMatch) result(method Method, req *NormalizedRequest) *DetectionResult {
	return &DetectionResult{
		IsBot:           true,
		BotType:         m.pattern.Name,
		Confidence:      m.pattern.Confidence,
		DetectionMethod: method,
		UserAgent:       req.UserAgent,
		IPAddress:       req.IPAddress,
		Metadata:        m.metadata,
		Timestamp:       time.Now().UTC(),
	}
}

func checkUserAgent(ua string, snap []*patterns.BotPattern) *stageMatch {
	if ua == "" {
		return nil
	}
	uaLower := strings.ToLower(ua)

	for _, p := range snap {
		for _, m := range p.Matchers {
			if m.Match(ua, uaLower) {
				return &stageMatch{
					pattern: p,
					metadata: map[string]string{
						"matched_pattern": m.String(),
						"full_user_agent": ua,
						"description":     p.Description,
					},
				}
			}
		}
	}
	return nil
}

func checkIPRanges(ip string, snap []*patterns.BotPattern) *stageMatch {
	if ip == "" {
		return nil
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil
	}

	for _, p := range snap {
		for _, rng := range p.IPRanges {
			if rng.Contains(addr) {
				return &stageMatch{
					pattern: p,
					metadata: map[string]string{
						"matched_ip_range": rng.Raw,
						"ip_address":       ip,
						"description":      p.Description,
					},
				}
			}
		}
	}
	return nil
}

func checkHeaders(headers map[string]string, snap []*patterns.BotPattern) *stageMatch {
	if len(headers) == 0 {
		return nil
	}

	lower := make(map[string]string, len(headers))
	for k, v := range headers {
		lower[strings.ToLower(k)] = v
	}

	for _, p := range snap {
		for _, hm := range p.Headers {
			actual := strings.ToLower(lower[hm.Key()])
			for _, expected := range hm.Values {
				if strings.Contains(actual, strings.ToLower(expected)) {
					return &stageMatch{
						pattern: p,
						metadata: map[string]string{
							"matched_header": hm.Name,
							"matched_value":  expected,
							"actual_value":   lower[hm.Key()],
							"description":    p.Description,
						},
					}
				}
			}
		}
	}
	return nil
}
