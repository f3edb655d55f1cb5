package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/tickerlens/internal/agent"
	"github.com/seenimoa/tickerlens/internal/config"
	"github.com/seenimoa/tickerlens/internal/datasource"
	"github.com/seenimoa/tickerlens/internal/market"
	"github.com/seenimoa/tickerlens/pkg/models"
	"github.com/seenimoa/tickerlens/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

// fakePipeline implements Pipeline with canned results keyed by symbol.
type fakePipeline struct {
	errs map[string]error
}

func (f *fakePipeline) AnalyzeWithObserver(_ context.Context, raw string, obs agent.Observer) (*models.Analysis, error) {
	sym := utils.NormalizeTicker(raw)
	if sym == "" {
		return nil, agent.ErrEmptyTicker
	}
	class := utils.ClassifyTicker(sym)
	emit := func(stage string) {
		if obs != nil {
			obs(agent.Event{Stage: stage, RequestID: "req-1", Symbol: sym})
		}
	}
	emit(agent.StageClassified)
	if err := f.errs[sym]; err != nil {
		return nil, err
	}
	emit(agent.StageMarketData)
	emit(agent.StageNews)
	emit(agent.StageAdvisory)

	snap, _ := models.NewQuoteSnapshot(decimal.NewFromInt(153), decimal.NewFromInt(150), "USD")
	return &models.Analysis{
		RequestID:  "req-1",
		Symbol:     sym,
		AssetClass: class,
		Snapshot:   snap,
		Advisory:   models.Advisory{Text: "text-ok"},
	}, nil
}

func (f *fakePipeline) Quote(_ context.Context, raw string) (*agent.QuoteResult, error) {
	sym := utils.NormalizeTicker(raw)
	if err := f.errs[sym]; err != nil {
		return nil, err
	}
	snap, _ := models.NewQuoteSnapshot(decimal.NewFromInt(1010), decimal.NewFromInt(1000), "TWD")
	return &agent.QuoteResult{Symbol: sym, AssetClass: utils.ClassifyTicker(sym), Market: models.MarketData{Symbol: sym, Snapshot: snap}}, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.LLM.GeminiKey = "AIzaSyTestKey123456"
	return NewServer(cfg, &fakePipeline{errs: map[string]error{
		"FAKE.TW": fmt.Errorf("%w for FAKE.TW", market.ErrNoData),
		"DOWN":    &market.FetchError{Symbol: "DOWN", Op: "quote", Err: errors.New("connection reset")},
	}}, zerolog.Nop())
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, resp
}

// ════════════════════════════════════════════════════════════════════
// REST handlers
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec, resp := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK || !resp.Success {
			t.Errorf("%s: got %d %+v", path, rec.Code, resp)
		}
	}
}

func TestAnalyzePost(t *testing.T) {
	rec, resp := do(t, testServer(t), http.MethodPost, "/api/v1/analyze", `{"ticker":"aapl"}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("got %d %+v", rec.Code, resp)
	}
	data := resp.Data.(map[string]interface{})
	if data["symbol"] != "AAPL" {
		t.Errorf("symbol: got %v", data["symbol"])
	}
	adv := data["advisory"].(map[string]interface{})
	if adv["text"] != "text-ok" {
		t.Errorf("advisory: got %v", adv)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	srv := testServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad body", http.MethodPost, "/api/v1/analyze", `{`, http.StatusBadRequest},
		{"empty ticker", http.MethodPost, "/api/v1/analyze", `{"ticker":"  "}`, http.StatusBadRequest},
		{"no data", http.MethodGet, "/api/v1/analyze/FAKE.TW", "", http.StatusNotFound},
		{"fetch error", http.MethodGet, "/api/v1/analyze/down", "", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, srv, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status: got %d, want %d (%s)", rec.Code, tt.want, resp.Error)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("expected error envelope, got %+v", resp)
			}
		})
	}
}

func TestQuoteEndpoint(t *testing.T) {
	rec, resp := do(t, testServer(t), http.MethodGet, "/api/v1/quote/2330.TW", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d %+v", rec.Code, resp)
	}
	data := resp.Data.(map[string]interface{})
	if data["asset_class"] != "Taiwan Stock" {
		t.Errorf("asset_class: got %v", data["asset_class"])
	}
}

func TestClassifyEndpoint(t *testing.T) {
	rec, resp := do(t, testServer(t), http.MethodGet, "/api/v1/classify/GC=F", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d %+v", rec.Code, resp)
	}
	data := resp.Data.(map[string]interface{})
	if data["asset_class"] != "Commodity/Crypto" || data["skips_news"] != true {
		t.Errorf("unexpected classification: %v", data)
	}
}

func TestConfigEndpointMasksKeys(t *testing.T) {
	rec, _ := do(t, testServer(t), http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}

	// Re-run to inspect the raw body.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	raw := httptest.NewRecorder()
	testServer(t).Router().ServeHTTP(raw, req)
	if strings.Contains(raw.Body.String(), "AIzaSyTestKey123456") {
		t.Fatal("raw API key leaked in config response")
	}
	if !strings.Contains(raw.Body.String(), `"candidates"`) {
		t.Errorf("candidates missing: %s", raw.Body.String())
	}

	var envelope struct {
		Data ConfigResponse `json:"data"`
	}
	if err := json.Unmarshal(raw.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	found := false
	for _, p := range envelope.Data.ReadyProviders {
		if p == "gemini" {
			found = true
		}
	}
	if !found {
		t.Errorf("gemini has a key and should be ready, got %v", envelope.Data.ReadyProviders)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{agent.ErrEmptyTicker, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", market.ErrNoData), http.StatusNotFound},
		{&market.FetchError{Op: "history", Err: errors.New("x")}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{&market.FetchError{Op: "quote", Err: fmt.Errorf("HTTP GET: %w", context.DeadlineExceeded)}, http.StatusGatewayTimeout},
		{&market.FetchError{Op: "quote", Err: fmt.Errorf("%w: ZZZZQ (yahoo: No data found)", datasource.ErrTickerNotFound)}, http.StatusNotFound},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v): got %d, want %d", tt.err, got, tt.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// websocket.go
// ════════════════════════════════════════════════════════════════════

func dialWS(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(testServer(t).Router())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, stop string) []map[string]interface{} {
	t.Helper()
	var msgs []map[string]interface{}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m map[string]interface{}
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v (got %v)", err, msgs)
		}
		msgs = append(msgs, m)
		if m["type"] == stop || m["type"] == WSTypeError {
			return msgs
		}
	}
}

func TestWebSocketAnalyzeStreamsStages(t *testing.T) {
	conn, cleanup := dialWS(t)
	defer cleanup()

	if err := conn.WriteJSON(map[string]interface{}{"type": "analyze", "data": map[string]string{"ticker": "AAPL"}}); err != nil {
		t.Fatal(err)
	}
	msgs := readUntil(t, conn, WSTypeResult)

	var stages []string
	for _, m := range msgs {
		if m["type"] == WSTypeStage {
			stages = append(stages, m["data"].(map[string]interface{})["stage"].(string))
		}
	}
	want := "classified,market_data,news,advisory"
	if strings.Join(stages, ",") != want {
		t.Fatalf("stages: got %v, want %s", stages, want)
	}
	last := msgs[len(msgs)-1]
	if last["type"] != WSTypeResult {
		t.Fatalf("last message: got %v", last)
	}
}

func TestWebSocketAnalyzeError(t *testing.T) {
	conn, cleanup := dialWS(t)
	defer cleanup()

	_ = conn.WriteJSON(map[string]interface{}{"type": "analyze", "data": map[string]string{"ticker": "FAKE.TW"}})
	msgs := readUntil(t, conn, WSTypeResult)
	last := msgs[len(msgs)-1]
	if last["type"] != WSTypeError {
		t.Fatalf("expected error, got %v", last)
	}
	if status := last["data"].(map[string]interface{})["status"]; status != float64(http.StatusNotFound) {
		t.Errorf("status: got %v", status)
	}
}

func TestWebSocketPing(t *testing.T) {
	conn, cleanup := dialWS(t)
	defer cleanup()

	_ = conn.WriteJSON(map[string]string{"type": "ping"})
	msgs := readUntil(t, conn, WSTypePong)
	if msgs[len(msgs)-1]["type"] != WSTypePong {
		t.Fatalf("expected pong, got %v", msgs)
	}
}
