package paywall

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Middleware wraps an http.Handler with per-request classification. It is
// compatible with net/http, chi, gorilla/mux, and any router that accepts
// func(http.Handler) http.Handler.
//
// Behavior on a bot verdict follows the paywall mode:
//   - ModeDetect: annotate the response with X-Crawlgate-* headers and pass
//     the request through.
//   - ModeBlock: respond 403 Forbidden.
//   - ModeCharge: respond 402 Payment Required.
//
// Human-classified requests always pass through untouched.
func (p *Paywall) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := p.Check(r)

		if !result.IsBot {
			next.ServeHTTP(w, r)
			return
		}

		p.logger.Info("crawler detected",
			zap.String("bot_type", result.BotType),
			zap.Float64("confidence", result.Confidence),
			zap.String("detection_method", string(result.DetectionMethod)),
			zap.String("path", r.URL.Path),
			zap.String("mode", p.mode),
		)

		switch p.mode {
		case ModeBlock:
			writeVerdict(w, http.StatusForbidden, map[string]any{
				"error":    "AI crawler access is not permitted",
				"bot_type": result.BotType,
			})
		case ModeCharge:
			writeVerdict(w, http.StatusPaymentRequired, map[string]any{
				"error":    "AI crawler access requires payment",
				"bot_type": result.BotType,
			})
		default:
			w.Header().Set("X-Crawlgate-Bot", result.BotType)
			w.Header().Set("X-Crawlgate-Confidence", strconv.FormatFloat(result.Confidence, 'f', 2, 64))
			next.ServeHTTP(w, r)
		}
	})
}

func writeVerdict(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}
