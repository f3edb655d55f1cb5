package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/config"
	"github.com/seenimoa/tickerlens/internal/llm"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
// Credentials are reported only through their masked KeyStatus.
type ConfigResponse struct {
	Candidates      []config.CandidateConfig `json:"candidates"`
	ReadyProviders  []string                 `json:"ready_providers"` // backends with credentials
	Backoff         string                   `json:"backoff"`
	NewsProvider    string                   `json:"news_provider"`
	HistoryRange    string                   `json:"history_range"`
	RSIPeriod       int                      `json:"rsi_period"`
	RSISmoothing    string                   `json:"rsi_smoothing"`
	Language        string                   `json:"language"`
	ConcurrentFetch bool                     `json:"concurrent_fetch"`
	ShareBaseURL    string                   `json:"share_base_url,omitempty"`
	Keys            []config.KeyStatus       `json:"keys"`
}

// handleGetConfig returns the running configuration without secrets.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    newConfigResponse(s.cfg),
	})
}

func newConfigResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		Candidates:      cfg.LLM.Candidates,
		ReadyProviders:  llm.NewChainFromConfig(cfg, zerolog.Nop()).Providers(),
		Backoff:         cfg.LLM.Backoff.String(),
		NewsProvider:    cfg.News.Provider,
		HistoryRange:    cfg.Data.HistoryRange,
		RSIPeriod:       cfg.Analysis.RSIPeriod,
		RSISmoothing:    cfg.Analysis.RSISmoothing,
		Language:        cfg.Analysis.Language,
		ConcurrentFetch: cfg.Analysis.ConcurrentFetch,
		ShareBaseURL:    cfg.Share.BaseURL,
		Keys:            config.CheckAPIKeys(cfg),
	}
}
