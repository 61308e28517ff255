package patterns

// Built-in pattern database for known AI crawler families. Sourced from the
// crawlers' published documentation where available; the generic_ai family is
// a low-confidence regex catch-all for unlisted bots.

func conf(v float64) *float64 { return &v }

// DefaultDefinitions returns the built-in pattern set in declaration order.
// Callers receive a fresh slice on every call; the Definitions themselves are
// treated as immutable.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name: "openai",
			UserAgents: []any{
				"GPTBot",
				"ChatGPT-User",
				"GPTBot/1.0",
				"ChatGPT-User/1.0",
			},
			IPRanges: []string{
				"20.171.0.0/16",
				"40.83.0.0/16",
			},
			Headers: map[string]any{
				"User-Agent": []any{"GPTBot", "ChatGPT-User"},
			},
			Confidence:  conf(0.95),
			Description: "OpenAI crawlers (GPTBot, ChatGPT-User)",
			DocsURL:     "https://platform.openai.com/docs/gptbot",
			Company:     "OpenAI",
		},
		{
			Name: "anthropic",
			UserAgents: []any{
				"Claude-Web",
				"Claude-Web/1.0",
				"ClaudeBot",
				"ClaudeBot/1.0",
			},
			Confidence:  conf(0.95),
			Description: "Anthropic Claude crawlers",
			DocsURL:     "https://docs.anthropic.com/claude/docs/web-search",
			Company:     "Anthropic",
		},
		{
			Name: "google",
			UserAgents: []any{
				"Google-Extended",
				"GoogleBot-Extended",
				"Bard",
				"GoogleBot-AI",
				map[string]any{"regex": `Google.*AI`},
			},
			Confidence:  conf(0.90),
			Description: "Google AI crawlers (Bard, Google-Extended)",
			DocsURL:     "https://developers.google.com/search/docs/crawling-indexing/overview-google-crawlers",
			Company:     "Google",
		},
		{
			Name: "microsoft",
			UserAgents: []any{
				"Bing-AI",
				"BingBot-AI",
				"EdgeBot",
				"MSNBot-AI",
				map[string]any{"regex": `Bing.*AI`},
			},
			Confidence:  conf(0.90),
			Description: "Microsoft AI crawlers (Bing AI, Edge AI)",
			Company:     "Microsoft",
		},
		{
			Name: "cohere",
			UserAgents: []any{
				"Cohere-AI",
				"CohereBot",
				"CoBot",
			},
			Confidence:  conf(0.90),
			Description: "Cohere AI crawlers",
			Company:     "Cohere",
		},
		{
			Name: "perplexity",
			UserAgents: []any{
				"PerplexityBot",
				"Perplexity-AI",
				"PerplexityBot/1.0",
			},
			Confidence:  conf(0.90),
			Description: "Perplexity AI crawlers",
			Company:     "Perplexity",
		},
		{
			Name: "common_crawl",
			UserAgents: []any{
				"CCBot",
				"CCBot/2.0",
				"Common Crawl",
				map[string]any{"regex": `CCBot/\d+\.\d+`},
			},
			Confidence:  conf(0.85),
			Description: "Common Crawl bot (often used for AI training)",
			DocsURL:     "https://commoncrawl.org/big-picture/frequently-asked-questions/",
			Company:     "Common Crawl",
		},
		{
			Name: "meta",
			UserAgents: []any{
				"FacebookBot",
				"facebookexternalhit",
				"Meta-ExternalAgent",
				"Meta-AI",
				map[string]any{"regex": `Facebook.*AI`},
			},
			Confidence:  conf(0.85),
			Description: "Meta/Facebook AI crawlers",
			Company:     "Meta",
		},
		{
			Name: "bytedance",
			UserAgents: []any{
				"Bytespider",
				"Bytespider/1.0",
				"ByteDance",
				"TikTokBot",
			},
			Confidence:  conf(0.85),
			Description: "ByteDance crawlers (TikTok parent company)",
			Company:     "ByteDance",
		},
		{
			Name: "generic_ai",
			UserAgents: []any{
				map[string]any{"regex": `.*AI.*Bot`},
				map[string]any{"regex": `.*AI.*Crawler`},
				map[string]any{"regex": `.*AI.*Spider`},
				map[string]any{"regex": `.*ML.*Bot`},
				map[string]any{"regex": `.*LLM.*Bot`},
				map[string]any{"regex": `.*GPT.*Bot`},
				map[string]any{"regex": `.*Language.*Model`},
			},
			Confidence:  conf(0.70),
			Description: "Generic AI bot patterns",
			Company:     "Various",
		},
	}
}
