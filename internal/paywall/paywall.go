// Package paywall is the public entry point for AI-crawler detection: it
// wraps the detection engine with a confidence-threshold policy, optional
// custom patterns, and an optional detection sink.
package paywall

import (
	"net/http"

	"github.com/triage-ai/crawlgate/internal/engine"
	"github.com/triage-ai/crawlgate/internal/httpadapt"
	"github.com/triage-ai/crawlgate/internal/patterns"
	"go.uber.org/zap"
)

// Operating modes. The paywall itself only classifies; Mode describes what
// the caller (or Middleware) does with a bot verdict.
const (
	ModeDetect = "detect"
	ModeBlock  = "block"
	ModeCharge = "charge"
)

// DefaultThreshold is the minimum confidence for a match to be reported as a
// bot classification when none is configured.
const DefaultThreshold = 0.7

// Sink receives one DetectionResult per Check call. Implementations may
// persist, forward, or bill on it; the paywall never consumes a return value
// and a sink failure never alters the classification.
type Sink interface {
	LogDetection(*engine.DetectionResult)
}

// Config is the one-time construction surface for a Paywall.
type Config struct {
	// Mode labels intended caller behavior: ModeDetect, ModeBlock, or
	// ModeCharge. Defaults to ModeDetect.
	Mode string

	// Threshold is the confidence threshold. Nil means DefaultThreshold;
	// an explicit zero admits every structural match.
	Threshold *float64

	// Registry is the starting pattern set. Nil means a private registry
	// pre-populated with the built-in patterns. Passing patterns.Shared()
	// opts into process-wide shared state: custom patterns below are then
	// merged into the shared instance.
	Registry *patterns.Registry

	// CustomPatterns are merged into the registry by name at construction.
	// Nameless entries are silently skipped.
	CustomPatterns []patterns.Definition

	// Sink, when set, is invoked synchronously with every result.
	Sink Sink

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Paywall classifies requests as AI-crawler or human traffic.
// Safe for concurrent use.
type Paywall struct {
	mode      string
	threshold float64
	registry  *patterns.Registry
	sink      Sink
	logger    *zap.Logger
}

// New constructs a Paywall from cfg.
func New(cfg Config) *Paywall {
	p := &Paywall{
		mode:      cfg.Mode,
		threshold: DefaultThreshold,
		registry:  cfg.Registry,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
	}
	if p.mode == "" {
		p.mode = ModeDetect
	}
	if cfg.Threshold != nil {
		p.threshold = *cfg.Threshold
	}
	if p.registry == nil {
		p.registry = patterns.NewWithDefaults()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	for _, def := range cfg.CustomPatterns {
		if def.Name == "" {
			continue
		}
		p.registry.Upsert(def.Name, patterns.Compile(def.Name, def))
	}

	return p
}

// Check classifies a native HTTP request. It normalizes the request, runs
// detection, and hands the result to the sink before returning it. Check
// never fails; a request that matches nothing is classified human.
func (p *Paywall) Check(r *http.Request) *engine.DetectionResult {
	return p.CheckRequest(httpadapt.FromRequest(r))
}

// CheckRequest classifies an already-normalized request.
func (p *Paywall) CheckRequest(req *engine.NormalizedRequest) *engine.DetectionResult {
	result := engine.Detect(req, p.registry, p.threshold)
	p.emit(result)
	return result
}

// emit hands the result to the sink, isolating any panic so logging and
// storage failures can never suppress or alter the classification.
func (p *Paywall) emit(result *engine.DetectionResult) {
	if p.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("detection sink panicked", zap.Any("panic", r))
		}
	}()
	p.sink.LogDetection(result)
}

// Mode returns the configured operating mode.
func (p *Paywall) Mode() string { return p.mode }

// Threshold returns the configured confidence threshold.
func (p *Paywall) Threshold() float64 { return p.threshold }

// Registry returns the paywall's pattern registry. Mutations through it are
// observed by subsequent checks.
func (p *Paywall) Registry() *patterns.Registry { return p.registry }
