package web

import (
	"encoding/json"
	"net/http"

	"replyserver/internal/shared/globalstate"
	"replyserver/internal/shared/types"
)

// StatusProvider defines what the web handler reads from the AppServer.
// This decouples the web package from the app package.
type StatusProvider interface {
	GetListenerInfo() *types.ListenerInfo
	GetMetrics() types.Metrics
	GetRecentExchanges() []*types.Exchange
}

type Handler struct {
	provider StatusProvider
}

func NewHandler(provider StatusProvider) *Handler {
	return &Handler{provider: provider}
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	GlobalStatus string              `json:"globalStatus"`
	Listener     *types.ListenerInfo `json:"listener"`
	Metrics      types.Metrics       `json:"metrics"`
}

// HandleStatus 处理 GET /api/status 请求
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	response := StatusResponse{
		GlobalStatus: globalstate.GlobalStatus.Get(),
		Listener:     h.provider.GetListenerInfo(),
		Metrics:      h.provider.GetMetrics(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleRecentExchanges 处理 GET /api/exchanges 请求，返回最近的交换记录。
func (h *Handler) HandleRecentExchanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	recent := h.provider.GetRecentExchanges()
	entries := make([]*ExchangeLogEntry, 0, len(recent))
	for _, ex := range recent {
		entries = append(entries, NewExchangeLogEntry(ex))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
