package patterns

import (
	"net/netip"
	"regexp"
	"sort"
	"strings"
)

// Definition is the external pattern-definition shape: the form custom
// patterns arrive in, whether built in memory or deserialized from a
// JSON/YAML file or a database row. UserAgents entries are either literal
// strings or `{"regex": "..."}` objects; Headers values are a single string
// or a list of strings.
type Definition struct {
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	UserAgents  []any          `json:"user_agents,omitempty" yaml:"user_agents,omitempty"`
	IPRanges    []string       `json:"ip_ranges,omitempty" yaml:"ip_ranges,omitempty"`
	Headers     map[string]any `json:"headers,omitempty" yaml:"headers,omitempty"`
	Confidence  *float64       `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Company     string         `json:"company,omitempty" yaml:"company,omitempty"`
	DocsURL     string         `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
}

// fallbackConfidence is assigned when a definition omits confidence.
// Upstream pattern databases historically defaulted omitted values to 0.9.
const fallbackConfidence = 0.9

// Matcher is one user-agent matcher: either a case-insensitive literal
// substring or a pre-compiled case-insensitive regular expression.
// Regexes are compiled once at pattern load time so the matching hot path
// cannot fail.
type Matcher struct {
	literal string // lowercased literal; empty when re is set
	re      *regexp.Regexp
	raw     string // original literal or regex text, echoed in match metadata
}

// LiteralMatcher builds a case-insensitive substring matcher.
func LiteralMatcher(s string) Matcher {
	return Matcher{literal: strings.ToLower(s), raw: s}
}

// RegexMatcher builds a case-insensitive regex matcher.
// Returns an error if the expression does not compile.
func RegexMatcher(expr string) (Matcher, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{re: re, raw: expr}, nil
}

// Match reports whether the matcher hits anywhere in the user-agent string.
// uaLower is the pre-lowercased subject, computed once per detection call.
func (m Matcher) Match(ua, uaLower string) bool {
	if m.re != nil {
		return m.re.MatchString(ua)
	}
	return strings.Contains(uaLower, m.literal)
}

// String returns the original literal or regex text.
func (m Matcher) String() string { return m.raw }

// IPRange is one CIDR entry. Malformed entries are kept (so the raw string
// survives round-trips through the registry) but marked invalid and skipped
// during matching.
type IPRange struct {
	Raw    string
	prefix netip.Prefix
	valid  bool
}

// Contains reports whether the address falls within the range.
// Invalid ranges never match.
func (r IPRange) Contains(addr netip.Addr) bool {
	return r.valid && r.prefix.Contains(addr.Unmap())
}

// Valid reports whether the CIDR string parsed.
func (r IPRange) Valid() bool { return r.valid }

// HeaderMatcher pairs a header name with the substring values that identify
// a crawler when found in the actual header value.
type HeaderMatcher struct {
	Name      string // as declared, echoed in match metadata
	nameLower string
	Values    []string
}

// Key returns the lowercased header name used for case-insensitive lookup.
func (h HeaderMatcher) Key() string { return h.nameLower }

// BotPattern is one compiled entry of the pattern database: the rule set
// identifying a single crawler family. Instances are immutable after Compile;
// replacing a pattern in a registry swaps the pointer rather than mutating.
type BotPattern struct {
	Name        string
	Matchers    []Matcher
	IPRanges    []IPRange
	Headers     []HeaderMatcher
	Confidence  float64
	Description string
	Company     string
	DocsURL     string

	def Definition // original definition, reconstructed by Definition()
}

// Compile turns a Definition into a matchable BotPattern. Fallibility lives
// here rather than on the detection path: matchers with uncompilable regexes
// and malformed regex objects are dropped, malformed CIDR strings are kept
// but marked invalid. Compile never fails.
func Compile(name string, def Definition) *BotPattern {
	p := &BotPattern{
		Name:        name,
		Confidence:  fallbackConfidence,
		Description: def.Description,
		Company:     def.Company,
		DocsURL:     def.DocsURL,
		def:         def,
	}
	p.def.Name = name
	if def.Confidence != nil {
		p.Confidence = *def.Confidence
	}

	for _, ua := range def.UserAgents {
		switch v := ua.(type) {
		case string:
			p.Matchers = append(p.Matchers, LiteralMatcher(v))
		case map[string]any:
			expr, _ := v["regex"].(string)
			if expr == "" {
				continue
			}
			m, err := RegexMatcher(expr)
			if err != nil {
				continue
			}
			p.Matchers = append(p.Matchers, m)
		}
	}

	for _, cidr := range def.IPRanges {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			p.IPRanges = append(p.IPRanges, IPRange{Raw: cidr})
			continue
		}
		p.IPRanges = append(p.IPRanges, IPRange{Raw: cidr, prefix: prefix.Masked(), valid: true})
	}

	// Headers arrive as a map; sort by name so iteration order (and thus
	// first-match-wins results) is deterministic across calls.
	names := make([]string, 0, len(def.Headers))
	for name := range def.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, hname := range names {
		hm := HeaderMatcher{Name: hname, nameLower: strings.ToLower(hname)}
		switch v := def.Headers[hname].(type) {
		case string:
			hm.Values = []string{v}
		case []string:
			hm.Values = append(hm.Values, v...)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					hm.Values = append(hm.Values, s)
				}
			}
		}
		if len(hm.Values) > 0 {
			p.Headers = append(p.Headers, hm)
		}
	}

	return p
}

// Definition returns the external-shape definition this pattern was compiled
// from, with the registry name filled in.
func (p *BotPattern) Definition() Definition {
	return p.def
}
