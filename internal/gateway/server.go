package gateway

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/relaymesh/relay/internal/agenterr"
)

// Handler builds the HTTP routing surface.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /v1/agents/{agent}/chat", s.requireAuth(http.HandlerFunc(s.handleChat)))
	return mux
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// requireAuth enforces the bearer token when one is configured. An empty
// token means the deployment fronts the gateway with its own auth layer.
func (s *Service) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.GatewayToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		supplied := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.cfg.GatewayToken)) != 1 {
			writeError(w, http.StatusUnauthorized, agenterr.ErrUnauthorized.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(strings.TrimSpace(r.PathValue("agent")))
	agentDef, ok := s.agents[name]
	if !ok {
		writeError(w, http.StatusNotFound, agenterr.ErrAgentNotFound.Error())
		return
	}

	if strings.TrimSpace(agentDef.UpstreamURL) != "" {
		s.proxyChat(w, r, agentDef)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	response, err := s.engine.Respond(r.Context(), agentDef, req)
	if err != nil {
		if errors.Is(err, agenterr.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("chat turn failed", "agent", name, "error", err)
		writeError(w, http.StatusBadGateway, "agent failed to respond")
		return
	}
	response.Agent = name

	if s.audit != nil {
		if err := s.audit.RecordChatTurn(r.Context(), name, req.Message, response.Reply, response.ToolCalls); err != nil {
			s.logger.Warn("chat audit failed", "agent", name, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
