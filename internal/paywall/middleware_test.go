package paywall

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveThrough(t *testing.T, p *Paywall, ua string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "http://example.com/article", nil)
	if ua != "" {
		r.Header.Set("User-Agent", ua)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w, reached
}

func TestMiddleware_BlockMode(t *testing.T) {
	p := New(Config{Mode: ModeBlock})

	w, reached := serveThrough(t, p, "GPTBot/1.0")

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if reached {
		t.Error("blocked request must not reach the handler")
	}
}

func TestMiddleware_ChargeMode(t *testing.T) {
	p := New(Config{Mode: ModeCharge})

	w, reached := serveThrough(t, p, "ClaudeBot/1.0")

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", w.Code)
	}
	if reached {
		t.Error("charged request must not reach the handler")
	}
}

func TestMiddleware_DetectModeAnnotates(t *testing.T) {
	p := New(Config{Mode: ModeDetect})

	w, reached := serveThrough(t, p, "GPTBot/1.0")

	if !reached {
		t.Fatal("detect mode must pass bots through")
	}
	if got := w.Header().Get("X-Crawlgate-Bot"); got != "openai" {
		t.Errorf("expected bot annotation header, got %q", got)
	}
}

func TestMiddleware_HumanPassesUntouched(t *testing.T) {
	p := New(Config{Mode: ModeBlock})

	w, reached := serveThrough(t, p, "Mozilla/5.0 (X11; Linux x86_64)")

	if !reached || w.Code != http.StatusOK {
		t.Errorf("human traffic must pass through in every mode, code=%d reached=%v", w.Code, reached)
	}
	if w.Header().Get("X-Crawlgate-Bot") != "" {
		t.Error("human responses must not carry bot annotations")
	}
}
